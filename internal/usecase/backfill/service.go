package backfill

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
	"github.com/pivotlog/pivotlog/internal/logger"
	"github.com/pivotlog/pivotlog/internal/metrics"
)

// DefaultInterval is the pause between successive embedding provider calls.
const DefaultInterval = 100 * time.Millisecond

// Report summarizes one backfill run.
type Report struct {
	SuccessCount int
	ErrorCount   int
	Total        int
}

// Service computes missing decision embeddings one item at a time, throttled
// so a large batch cannot exhaust the embedding provider's rate limits.
type Service struct {
	repo        Repository
	embed       Embedder
	embedderFor domain.EmbedderFactory
	interval    time.Duration
}

// New creates a backfill service. A non-positive interval falls back to the
// default throttle.
func New(repo Repository, embed Embedder, embedderFor domain.EmbedderFactory, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{repo: repo, embed: embed, embedderFor: embedderFor, interval: interval}
}

// Run embeds the owner's decisions. With explicit IDs it processes exactly
// those, re-embedding ones that already have a vector; otherwise it selects
// all decisions lacking one. A single item's failure is counted and skipped,
// never aborting the batch. Embedding and searchable text are persisted in
// one write so neither can exist without the other.
func (s *Service) Run(ctx context.Context, ownerID string, ids []string, apiKey string) (Report, error) {
	var (
		targets []domdec.Decision
		err     error
	)
	if len(ids) > 0 {
		targets, err = s.repo.GetMany(ctx, ownerID, ids)
	} else {
		targets, err = s.repo.ListMissingEmbedding(ctx, ownerID)
	}
	if err != nil {
		return Report{}, fmt.Errorf("select backfill targets: %w", err)
	}

	embed := s.embed
	if apiKey != "" && s.embedderFor != nil {
		embed = s.embedderFor(apiKey)
	}

	log := logger.FromContext(ctx)
	limiter := rate.NewLimiter(rate.Every(s.interval), 1)

	report := Report{Total: len(targets)}
	for i := range targets {
		d := &targets[i]

		if err := limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("backfill interrupted: %w", err)
		}

		text := d.BuildSearchableText()
		res, err := embed.Embed(ctx, text)
		if err != nil {
			log.Warn("backfill: embedding failed",
				zap.String("decision_id", d.ID()), zap.Error(err))
			report.ErrorCount++
			metrics.BackfillProcessedTotal.WithLabelValues("error").Inc()
			continue
		}

		if err := s.repo.PersistEmbedding(ctx, ownerID, d.ID(), res.Embedding, text); err != nil {
			log.Warn("backfill: persist failed",
				zap.String("decision_id", d.ID()), zap.Error(err))
			report.ErrorCount++
			metrics.BackfillProcessedTotal.WithLabelValues("error").Inc()
			continue
		}

		report.SuccessCount++
		metrics.BackfillProcessedTotal.WithLabelValues("success").Inc()
	}

	log.Info("backfill finished",
		zap.Int("total", report.Total),
		zap.Int("success", report.SuccessCount),
		zap.Int("errors", report.ErrorCount),
	)
	return report, nil
}
