package ingest

import "ledgerfeed/internal/core"

// Key identifies a polled candidate within the current process lifetime.
// It is not a durable identifier: the set resets on process restart, which
// is an accepted limitation of session-scoped dedup.
type Key struct {
	Date        string
	Description string
	Amount      string
}

// KeyOf derives the dedup key from a record. The amount is canonicalized
// through its decimal string form so 50.230 and 50.23 collide.
func KeyOf(rec core.TransactionRecord) Key {
	return Key{
		Date:        rec.Date,
		Description: rec.Description,
		Amount:      rec.Amount.String(),
	}
}

// Deduplicator is a session-scoped set membership filter for polled
// candidates. It grows without eviction for the lifetime of the process
// and is owned solely by the poll-and-stream task, so it needs no locking.
type Deduplicator struct {
	seen map[Key]struct{}
}

// NewDeduplicator creates an empty filter.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[Key]struct{})}
}

// Seen reports whether the key was marked before.
func (d *Deduplicator) Seen(key Key) bool {
	_, ok := d.seen[key]
	return ok
}

// Mark records the key as seen.
func (d *Deduplicator) Mark(key Key) {
	d.seen[key] = struct{}{}
}

// Len returns the number of distinct keys marked so far.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
