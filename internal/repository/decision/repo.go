package decision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/pivotlog/pivotlog/internal/db"
	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
)

var (
	decisionKeyPrefix = domain.KeyPrefix + "decision:"
	ownerKeyPrefix    = domain.KeyPrefix + "owner:"
)

// store is the consumer interface for the decision corpus (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string, path string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo is the decision corpus accessor backed by RedisJSON documents plus a
// per-owner membership set for owner scoping.
type Repo struct {
	store store
}

// New creates a decision repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert creates or updates a decision. Returns true if created.
// An existing document owned by someone else surfaces as not-found.
func (r *Repo) Upsert(ctx context.Context, d *domdec.Decision) (bool, error) {
	key := decisionKey(d.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		current, err := r.fetchOne(ctx, d.ID())
		if err != nil {
			return false, err
		}
		if current.OwnerID() != d.OwnerID() {
			return false, domain.ErrDecisionNotFound
		}
	}

	data, err := marshalDecision(d)
	if err != nil {
		return false, err
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}
	if err := r.store.SAdd(ctx, ownerKey(d.OwnerID()), d.ID()); err != nil {
		return false, fmt.Errorf("sadd owner index: %w", err)
	}

	return !exists, nil
}

// Get returns an owner's decision by ID.
func (r *Repo) Get(ctx context.Context, ownerID, id string) (domdec.Decision, error) {
	d, err := r.fetchOne(ctx, id)
	if err != nil {
		return domdec.Decision{}, err
	}
	if d.OwnerID() != ownerID {
		return domdec.Decision{}, domain.ErrDecisionNotFound
	}
	return d, nil
}

// Delete removes an owner's decision and its owner-index entry.
func (r *Repo) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := r.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := r.store.Del(ctx, decisionKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", decisionKey(id), err)
	}
	if err := r.store.SRem(ctx, ownerKey(ownerID), id); err != nil {
		return fmt.Errorf("srem owner index: %w", err)
	}
	return nil
}

// FindCandidates returns the owner's decisions matching the filter,
// most recently extracted first.
func (r *Repo) FindCandidates(ctx context.Context, ownerID string, f domdec.CandidateFilter) ([]domdec.Decision, error) {
	all, err := r.fetchOwned(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, d := range all {
		if f.Category != "" && d.Category() != f.Category {
			continue
		}
		if f.RequireEmbedding && !d.HasEmbedding() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// ListMissingEmbedding returns the owner's decisions that lack an embedding.
func (r *Repo) ListMissingEmbedding(ctx context.Context, ownerID string) ([]domdec.Decision, error) {
	all, err := r.fetchOwned(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if !d.HasEmbedding() {
			out = append(out, d)
		}
	}
	return out, nil
}

// GetMany returns the owner's decisions for the given IDs.
// IDs that are missing or owned by someone else are silently skipped.
func (r *Repo) GetMany(ctx context.Context, ownerID string, ids []string) ([]domdec.Decision, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = decisionKey(id)
	}
	raws, err := r.store.JSONGetMulti(ctx, keys, "$")
	if err != nil {
		return nil, fmt.Errorf("json.mget: %w", err)
	}

	out := make([]domdec.Decision, 0, len(ids))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		d, err := unmarshalDecision(unwrapPathArray(raw))
		if err != nil || d.OwnerID() != ownerID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// List returns a page of the owner's decisions, most recent first.
// The cursor is a numeric offset into the sorted listing.
func (r *Repo) List(ctx context.Context, ownerID string, category domdec.Category, cursor string, limit int) (
	[]domdec.Decision, string, error,
) {
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("%w: invalid cursor %q", domain.ErrValidation, cursor)
		}
		offset = parsed
	}

	all, err := r.FindCandidates(ctx, ownerID, domdec.CandidateFilter{Category: category})
	if err != nil {
		return nil, "", err
	}

	if offset >= len(all) {
		return nil, "", nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	page := all[offset:end]
	var nextCursor string
	if end < len(all) {
		nextCursor = strconv.Itoa(end)
	}
	return page, nextCursor, nil
}

// PersistEmbedding writes the embedding and its source text in a single
// document write, keeping the embedding/searchableText invariant.
func (r *Repo) PersistEmbedding(ctx context.Context, ownerID, id string, vec []float32, searchableText string) error {
	d, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	d.SetEmbedding(vec, searchableText)

	data, err := marshalDecision(&d)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, decisionKey(id), "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", decisionKey(id), err)
	}
	return nil
}

// fetchOne loads and parses a single decision document.
func (r *Repo) fetchOne(ctx context.Context, id string) (domdec.Decision, error) {
	raw, err := r.store.JSONGet(ctx, decisionKey(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdec.Decision{}, domain.ErrDecisionNotFound
		}
		return domdec.Decision{}, fmt.Errorf("json.get %s: %w", decisionKey(id), err)
	}
	return unmarshalDecision(unwrapPathArray(raw))
}

// fetchOwned hydrates every decision in the owner's membership set,
// sorted by extractedAt descending with ID as the final tie-break.
func (r *Repo) fetchOwned(ctx context.Context, ownerID string) ([]domdec.Decision, error) {
	ids, err := r.store.SMembers(ctx, ownerKey(ownerID))
	if err != nil {
		return nil, fmt.Errorf("smembers owner index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = decisionKey(id)
	}
	raws, err := r.store.JSONGetMulti(ctx, keys, "$")
	if err != nil {
		return nil, fmt.Errorf("json.mget: %w", err)
	}

	out := make([]domdec.Decision, 0, len(ids))
	for _, raw := range raws {
		if raw == nil {
			continue // stale index entry
		}
		d, err := unmarshalDecision(unwrapPathArray(raw))
		if err != nil {
			continue
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].ExtractedAt(), out[j].ExtractedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}

// unwrapPathArray strips the JSONPath array wrapper ("[{...}]") that
// JSON.GET/JSON.MGET with path "$" adds around the document.
func unwrapPathArray(raw []byte) []byte {
	if len(raw) >= 2 && raw[0] == '[' && raw[len(raw)-1] == ']' {
		return raw[1 : len(raw)-1]
	}
	return raw
}

func decisionKey(id string) string { return decisionKeyPrefix + id }

func ownerKey(ownerID string) string { return ownerKeyPrefix + ownerID + ":decisions" }
