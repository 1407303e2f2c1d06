package insight

import (
	"context"
	"errors"
	"path"
	"sort"
	"testing"
	"time"

	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
)

// memStore is an in-memory implementation of the consumer interface.
type memStore struct {
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}
	err    error
}

func newMemStore() *memStore {
	return &memStore{
		hashes: map[string]map[string]string{},
		sets:   map[string]map[string]struct{}{},
	}
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.err != nil {
		return m.err
	}
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *memStore) HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.hashes[key]; !ok {
		return false, nil
	}
	return true, m.HSet(ctx, key, fields)
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		h, err := m.HGetAll(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.hashes, k)
		delete(m.sets, k)
	}
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *memStore) Scan(_ context.Context, pattern string, limit int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var keys []string
	for k := range m.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (m *memStore) SCardMulti(_ context.Context, keys []string) ([]int64, error) {
	out := make([]int64, len(keys))
	for i, k := range keys {
		out[i] = int64(len(m.sets[k]))
	}
	return out, nil
}

func (m *memStore) SMove(_ context.Context, guard, member string, addTo, removeFrom []string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.hashes[guard]; !ok {
		return false, nil
	}
	for _, k := range removeFrom {
		delete(m.sets[k], member)
	}
	for _, k := range addTo {
		if m.sets[k] == nil {
			m.sets[k] = map[string]struct{}{}
		}
		m.sets[k][member] = struct{}{}
	}
	return true, nil
}

var errStoreDown = errors.New("store down")

func mustInsight(t *testing.T, id string, tags ...string) dominsight.Insight {
	t.Helper()
	in, err := dominsight.New(id, "author-1", "Title "+id, "Body of "+id, tags, dominsight.Public,
		time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC))
	if err != nil {
		t.Fatalf("build insight: %v", err)
	}
	return in
}
