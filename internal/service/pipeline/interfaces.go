package pipeline

import (
	"context"
	"time"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/record"
)

// MetricStatus is the outcome dimension of the processing metric.
type MetricStatus string

const (
	MetricStatusSuccess MetricStatus = "SUCCESS"
	MetricStatusError   MetricStatus = "ERROR"
)

// PrimaryStore persists the authoritative copy of an enriched record,
// keyed by patient id with last-write-wins semantics.
type PrimaryStore interface {
	Put(ctx context.Context, patientID string, enriched *record.Enriched) error
}

// BackupObject is one redundant copy bound for the blob store.
type BackupObject struct {
	Key          string
	Body         []byte
	ProcessingID string
	PatientID    string
}

// BackupStore writes the encrypted redundant copy and returns the
// location descriptor callers hand back to the sender.
type BackupStore interface {
	Put(ctx context.Context, obj BackupObject) (string, error)
}

// MetricsSink records one processing outcome. The correlation id is the
// processing id on the success path and the generated error id on the
// failure path.
type MetricsSink interface {
	RecordProcessed(ctx context.Context, correlationID string, status MetricStatus) error
}

// Clock supplies pipeline timestamps; injectable for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
