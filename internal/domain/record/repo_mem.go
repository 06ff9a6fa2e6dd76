package record

import (
	"context"
	"sort"
	"sync"
)

// memRepo is the in-memory Repository used in development mode (no
// DATABASE_URL) and in tests.
type memRepo struct {
	mu      sync.RWMutex
	records map[string]*PatientRecord
}

func NewMemRepo() Repository {
	return &memRepo{records: make(map[string]*PatientRecord)}
}

func (r *memRepo) Save(_ context.Context, rec *PatientRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

func (r *memRepo) GetByPatient(_ context.Context, patientID string) (*PatientRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[patientID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]*PatientRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := len(ids)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	out := make([]*PatientRecord, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, r.records[id])
	}
	return out, total, nil
}

func (r *memRepo) Delete(_ context.Context, patientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[patientID]; !ok {
		return ErrNotFound
	}
	delete(r.records, patientID)
	return nil
}
