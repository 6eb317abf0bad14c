package ingest

import (
	"context"

	"ledgerfeed/internal/core"
)

// PolledSource is the bank-aggregator boundary. Implementations block (or
// observe ctx) until a finite batch of raw transaction candidates is
// available. Candidates are already structured; they have not been
// deduplicated. Any error is treated as an unexpected source failure and
// triggers a supervisor restart. No timeout is imposed here; integrations
// with slow upstreams should wrap FetchRecent with their own deadline.
type PolledSource interface {
	FetchRecent(ctx context.Context) ([]core.TransactionRecord, error)
}
