package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/record"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

// fakePrimaryStore keeps the last write per patient id, mirroring the
// store's last-write-wins contract.
type fakePrimaryStore struct {
	mu     sync.Mutex
	items  map[string]*record.Enriched
	puts   int
	putErr error
}

func newFakePrimaryStore() *fakePrimaryStore {
	return &fakePrimaryStore{items: make(map[string]*record.Enriched)}
}

func (f *fakePrimaryStore) Put(_ context.Context, patientID string, enriched *record.Enriched) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.items[patientID] = enriched
	return nil
}

func (f *fakePrimaryStore) get(patientID string) *record.Enriched {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[patientID]
}

func (f *fakePrimaryStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// fakeBackupStore records backup objects keyed by object key.
type fakeBackupStore struct {
	mu      sync.Mutex
	objects map[string]pipeline.BackupObject
	putErr  error
}

func newFakeBackupStore() *fakeBackupStore {
	return &fakeBackupStore{objects: make(map[string]pipeline.BackupObject)}
}

func (f *fakeBackupStore) Put(_ context.Context, obj pipeline.BackupObject) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	f.objects[obj.Key] = obj
	return "s3://test-backups/" + obj.Key, nil
}

func (f *fakeBackupStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func (f *fakeBackupStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

type emission struct {
	correlationID string
	status        pipeline.MetricStatus
}

// fakeMetricsSink captures every emission attempt, then fails if told to.
// Attempts are recorded before the error so tests can assert best-effort
// emission on failure paths.
type fakeMetricsSink struct {
	mu        sync.Mutex
	emissions []emission
	err       error
}

func newFakeMetricsSink() *fakeMetricsSink {
	return &fakeMetricsSink{}
}

func (f *fakeMetricsSink) RecordProcessed(_ context.Context, correlationID string, status pipeline.MetricStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emissions = append(f.emissions, emission{correlationID: correlationID, status: status})
	return f.err
}

func (f *fakeMetricsSink) all() []emission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]emission, len(f.emissions))
	copy(out, f.emissions)
	return out
}

// fixedClock always reports the same instant.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// sequenceIDs returns a generator handing out the given ids in order,
// then falling back to random ones.
func sequenceIDs(ids ...uuid.UUID) func() uuid.UUID {
	i := 0
	return func() uuid.UUID {
		if i < len(ids) {
			id := ids[i]
			i++
			return id
		}
		return uuid.New()
	}
}

func mustUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		panic(fmt.Sprintf("bad test uuid %q: %v", s, err))
	}
	return id
}
