package decision

import (
	"context"
	"testing"
	"time"

	"github.com/pivotlog/pivotlog/internal/db"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
)

// memStore is an in-memory fake of the consumer store interface.
type memStore struct {
	docs map[string][]byte
	sets map[string]map[string]struct{}

	jsonSetErr error
	mgetErr    error
}

func newMemStore() *memStore {
	return &memStore{
		docs: make(map[string][]byte),
		sets: make(map[string]map[string]struct{}),
	}
}

func (m *memStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	if m.jsonSetErr != nil {
		return m.jsonSetErr
	}
	m.docs[key] = data
	return nil
}

func (m *memStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	data, ok := m.docs[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	// JSON.GET with path "$" wraps the document in an array.
	return append(append([]byte("["), data...), ']'), nil
}

func (m *memStore) JSONGetMulti(_ context.Context, keys []string, _ string) ([][]byte, error) {
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, key := range keys {
		if data, ok := m.docs[key]; ok {
			out[i] = append(append([]byte("["), data...), ']')
		}
	}
	return out, nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	delete(m.docs, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.docs[key]
	return ok, nil
}

func (m *memStore) SAdd(_ context.Context, key string, members ...string) error {
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	for _, mem := range members {
		set[mem] = struct{}{}
	}
	return nil
}

func (m *memStore) SRem(_ context.Context, key string, members ...string) error {
	for _, mem := range members {
		delete(m.sets[key], mem)
	}
	return nil
}

func (m *memStore) SMembers(_ context.Context, key string) ([]string, error) {
	out := make([]string, 0, len(m.sets[key]))
	for mem := range m.sets[key] {
		out = append(out, mem)
	}
	return out, nil
}

func newTestRepo() (*Repo, *memStore) {
	ms := newMemStore()
	return New(ms), ms
}

func mustDecision(t *testing.T, id, owner string, category domdec.Category, extractedAt time.Time) domdec.Decision {
	t.Helper()
	d, err := domdec.New(
		id, owner, "", "doc-1",
		"Migrate to AWS", "Lower latency for EU customers", "Move infra to AWS",
		category, 80, nil, "", extractedAt,
	)
	if err != nil {
		t.Fatalf("decision.New: %v", err)
	}
	return d
}

func seedDecision(t *testing.T, repo *Repo, d domdec.Decision) {
	t.Helper()
	if _, err := repo.Upsert(context.Background(), &d); err != nil {
		t.Fatalf("seed upsert %s: %v", d.ID(), err)
	}
}
