// Package memory keeps history and metadata in process. It backs tests and
// DATABASE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
)

type Store struct {
	mu       sync.RWMutex
	nextID   int64
	records  []*domain.HistoryRecord
	metadata map[string]*domain.ModelMetadata
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		metadata: make(map[string]*domain.ModelMetadata),
		now:      time.Now,
	}
}

func (s *Store) History() ports.HistoryRepository  { return historyRepo{s} }
func (s *Store) Metadata() ports.MetadataRepository { return metadataRepo{s} }
func (s *Store) Ping(context.Context) error         { return nil }
func (s *Store) Close() error                       { return nil }

type historyRepo struct{ s *Store }

func (r historyRepo) Append(_ context.Context, record *domain.HistoryRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextID++
	record.ID = r.s.nextID
	r.s.records = append(r.s.records, cloneRecord(record))
	return nil
}

func (r historyRepo) Query(_ context.Context, filter ports.HistoryFilter) ([]*domain.HistoryRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.HistoryRecord, 0)
	for _, rec := range r.s.records {
		if filter.ModelName != "" && rec.ModelName != filter.ModelName {
			continue
		}
		out = append(out, cloneRecord(rec))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r historyRepo) Aggregate(context.Context) (*domain.HistoryStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &domain.HistoryStats{ByModel: make(map[string]int64)}
	for _, rec := range r.s.records {
		stats.Total++
		stats.ByModel[rec.ModelName]++
	}
	return stats, nil
}

type metadataRepo struct{ s *Store }

func (r metadataRepo) Get(_ context.Context, modelName string) (*domain.ModelMetadata, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.metadata[modelName]
	if !ok {
		return nil, domain.ErrModelNotFound
	}
	cp := *m
	return &cp, nil
}

func (r metadataRepo) List(context.Context) ([]*domain.ModelMetadata, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.ModelMetadata, 0, len(r.s.metadata))
	for _, m := range r.s.metadata {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelName < out[j].ModelName })
	return out, nil
}

func (r metadataRepo) Seed(_ context.Context, defaults []domain.ModelMetadata) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now().UTC()
	for _, d := range defaults {
		if _, ok := r.s.metadata[d.ModelName]; ok {
			continue
		}
		m := d
		m.CreatedAt, m.UpdatedAt = now, now
		r.s.metadata[d.ModelName] = &m
	}
	return nil
}

func (r metadataRepo) Upsert(_ context.Context, meta *domain.ModelMetadata) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now().UTC()
	cur, ok := r.s.metadata[meta.ModelName]
	if !ok {
		m := *meta
		m.CreatedAt, m.UpdatedAt = now, now
		r.s.metadata[meta.ModelName] = &m
		return nil
	}
	if cur.CurrentVersion == meta.CurrentVersion &&
		cur.Description == meta.Description &&
		equalAccuracy(cur.Accuracy, meta.Accuracy) {
		return nil
	}
	cur.CurrentVersion = meta.CurrentVersion
	cur.Description = meta.Description
	cur.Accuracy = meta.Accuracy
	cur.UpdatedAt = now
	return nil
}

func equalAccuracy(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneRecord(r *domain.HistoryRecord) *domain.HistoryRecord {
	cp := *r
	cp.InputData = make(map[string]any, len(r.InputData))
	for k, v := range r.InputData {
		cp.InputData[k] = v
	}
	if r.Confidence != nil {
		c := *r.Confidence
		cp.Confidence = &c
	}
	return &cp
}
