package logger

// RedactSecret masks a credential for safe logging, keeping a short prefix
// so distinct tokens remain distinguishable.
// "v^1.1#i^1#f^0#longtoken" → "v^1.***"
func RedactSecret(secret string) string {
	if len(secret) <= 4 {
		return "***"
	}
	return secret[:4] + "***"
}

// RedactBuyerID masks a marketplace buyer id.
// "BUYER-8842ffa1" → "BU***"
func RedactBuyerID(id string) string {
	if len(id) <= 2 {
		return "***"
	}
	return id[:2] + "***"
}
