// Package httputil provides the JSON response and request helpers every
// API handler uses, so error envelopes and content types stay uniform
// across endpoints.
package httputil
