// Package domain holds the core entities of the listing lifecycle engine:
// listings, queue entries, and the append-only audit records that the
// lifecycle policies read and write. It has no dependencies on the store,
// the gateway, or any transport.
package domain
