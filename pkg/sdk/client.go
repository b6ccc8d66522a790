package pivotlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/pivotlog/pivotlog/internal/db/redis"
	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
	"github.com/pivotlog/pivotlog/internal/domain/search/query"
	"github.com/pivotlog/pivotlog/internal/domain/search/result"
	decisionrepo "github.com/pivotlog/pivotlog/internal/repository/decision"
	backfilluc "github.com/pivotlog/pivotlog/internal/usecase/backfill"
	decisionuc "github.com/pivotlog/pivotlog/internal/usecase/decision"
	healthuc "github.com/pivotlog/pivotlog/internal/usecase/health"
	searchuc "github.com/pivotlog/pivotlog/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultOwner            = "default"
)

// Internal interfaces so services can be substituted in tests.
type searchUseCase interface {
	Search(ctx context.Context, ownerID string, q *query.Query) ([]result.Result, int, error)
	Ask(ctx context.Context, ownerID, text string, limit int, apiKey string) (string, []result.Result, error)
}

type decisionUseCase interface {
	Ingest(ctx context.Context, ownerID string, in decisionuc.IngestInput, apiKey string) (domdec.Decision, bool, error)
	Get(ctx context.Context, ownerID, id string) (domdec.Decision, error)
	List(ctx context.Context, ownerID, category, cursor string, limit int) ([]domdec.Decision, string, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type backfillUseCase interface {
	Run(ctx context.Context, ownerID string, ids []string, apiKey string) (backfilluc.Report, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the pivotlog SDK entry point.
type Client struct {
	store       *dbRedis.Store
	owner       string
	searchSvc   searchUseCase
	decisionSvc decisionUseCase
	backfillSvc backfillUseCase
	healthSvc   healthUseCase
	obs         *observer
}

// New creates a pivotlog Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		owner:                 defaultOwner,
		semanticMinSimilarity: 0.5,
		hybridMinScore:        0.3,
		askMinSimilarity:      0.3,
		backfillInterval:      backfilluc.DefaultInterval,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("pivotlog: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("pivotlog: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("pivotlog: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func wireClient(store *dbRedis.Store, cfg *clientConfig, obs *observer) *Client {
	repo := decisionrepo.New(store)

	// Embedder: noop if unset (keyword search works, semantic returns an error)
	var domEmb domain.Embedder = &noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}
	var domAns domain.Answerer = &noopAnswerer{}
	if cfg.answerer != nil {
		domAns = &answererAdapter{inner: cfg.answerer}
	}

	searchSvc := searchuc.New(repo, domEmb, nil, domAns, nil, searchuc.Thresholds{
		SemanticMinSimilarity: cfg.semanticMinSimilarity,
		HybridMinScore:        cfg.hybridMinScore,
		AskMinSimilarity:      cfg.askMinSimilarity,
	})
	decisionSvc := decisionuc.New(repo, domEmb, nil)
	backfillSvc := backfilluc.New(repo, domEmb, nil, cfg.backfillInterval)
	healthSvc := healthuc.New(store, nil)

	return &Client{
		store:       store,
		owner:       cfg.owner,
		searchSvc:   searchSvc,
		decisionSvc: decisionSvc,
		backfillSvc: backfillSvc,
		healthSvc:   healthSvc,
		obs:         obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Decisions returns the decision management service.
func (c *Client) Decisions() *DecisionService {
	return &DecisionService{owner: c.owner, svc: c.decisionSvc, obs: c.obs}
}

// Search returns the search service.
func (c *Client) Search() *SearchService {
	return &SearchService{owner: c.owner, svc: c.searchSvc, obs: c.obs}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// answererAdapter wraps the public Answerer to satisfy internal domain.Answerer.
type answererAdapter struct {
	inner Answerer
}

func (a *answererAdapter) Answer(
	ctx context.Context, q string, decisions []domain.DecisionContext,
) (string, error) {
	ctxs := make([]DecisionContext, len(decisions))
	for i, d := range decisions {
		ctxs[i] = DecisionContext{
			Decision:  d.Decision,
			Rationale: d.Rationale,
			Category:  d.Category,
		}
	}
	answer, err := a.inner.Answer(ctx, q, ctxs)
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	return answer, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"pivotlog: embedder not configured (use WithEmbedder for semantic search)",
	)
}

// noopAnswerer returns an error on Answer call; Ask then falls back to
// returning the matched decisions with an empty answer.
type noopAnswerer struct{}

func (noopAnswerer) Answer(_ context.Context, _ string, _ []domain.DecisionContext) (string, error) {
	return "", errors.New("pivotlog: answerer not configured (use WithAnswerer for Ask)")
}
