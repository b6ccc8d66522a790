package pivotlog

import (
	"context"

	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
	"github.com/pivotlog/pivotlog/internal/domain/search/query"
	"github.com/pivotlog/pivotlog/internal/domain/search/result"
	backfilluc "github.com/pivotlog/pivotlog/internal/usecase/backfill"
	decisionuc "github.com/pivotlog/pivotlog/internal/usecase/decision"
	healthuc "github.com/pivotlog/pivotlog/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, ownerID string, q *query.Query) ([]result.Result, int, error)
	askFn    func(ctx context.Context, ownerID, text string, limit int, apiKey string) (string, []result.Result, error)
}

func (m *mockSearchUC) Search(
	ctx context.Context, ownerID string, q *query.Query,
) ([]result.Result, int, error) {
	return m.searchFn(ctx, ownerID, q)
}

func (m *mockSearchUC) Ask(
	ctx context.Context, ownerID, text string, limit int, apiKey string,
) (string, []result.Result, error) {
	return m.askFn(ctx, ownerID, text, limit, apiKey)
}

// --- decisionUseCase mock ---

type mockDecisionUC struct {
	ingestFn func(ctx context.Context, ownerID string, in decisionuc.IngestInput, apiKey string) (domdec.Decision, bool, error)
	getFn    func(ctx context.Context, ownerID, id string) (domdec.Decision, error)
	listFn   func(ctx context.Context, ownerID, category, cursor string, limit int) ([]domdec.Decision, string, error)
	deleteFn func(ctx context.Context, ownerID, id string) error
}

func (m *mockDecisionUC) Ingest(
	ctx context.Context, ownerID string, in decisionuc.IngestInput, apiKey string,
) (domdec.Decision, bool, error) {
	return m.ingestFn(ctx, ownerID, in, apiKey)
}

func (m *mockDecisionUC) Get(ctx context.Context, ownerID, id string) (domdec.Decision, error) {
	return m.getFn(ctx, ownerID, id)
}

func (m *mockDecisionUC) List(
	ctx context.Context, ownerID, category, cursor string, limit int,
) ([]domdec.Decision, string, error) {
	return m.listFn(ctx, ownerID, category, cursor, limit)
}

func (m *mockDecisionUC) Delete(ctx context.Context, ownerID, id string) error {
	return m.deleteFn(ctx, ownerID, id)
}

// --- backfillUseCase mock ---

type mockBackfillUC struct {
	runFn func(ctx context.Context, ownerID string, ids []string, apiKey string) (backfilluc.Report, error)
}

func (m *mockBackfillUC) Run(
	ctx context.Context, ownerID string, ids []string, apiKey string,
) (backfilluc.Report, error) {
	return m.runFn(ctx, ownerID, ids, apiKey)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- helpers ---

func testClient(
	searchSvc searchUseCase,
	decisionSvc decisionUseCase,
	backfillSvc backfillUseCase,
	healthSvc healthUseCase,
) *Client {
	return &Client{
		owner:       "owner-1",
		searchSvc:   searchSvc,
		decisionSvc: decisionSvc,
		backfillSvc: backfillSvc,
		healthSvc:   healthSvc,
	}
}
