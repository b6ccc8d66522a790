package pivotlog

import (
	"context"
	"fmt"
	"time"
)

// Backfill computes embeddings for decisions that lack one, throttled between
// provider calls. With explicit IDs it re-embeds those decisions instead.
func (c *Client) Backfill(ctx context.Context, ids ...string) (_ BackfillReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("backfill", start, err) }()

	report, err := c.backfillSvc.Run(ctx, c.owner, ids, "")
	if err != nil {
		return BackfillReport{
			SuccessCount: report.SuccessCount,
			ErrorCount:   report.ErrorCount,
			Total:        report.Total,
		}, fmt.Errorf("backfill: %w", err)
	}
	return BackfillReport{
		SuccessCount: report.SuccessCount,
		ErrorCount:   report.ErrorCount,
		Total:        report.Total,
	}, nil
}
