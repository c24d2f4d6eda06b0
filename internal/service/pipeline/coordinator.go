package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/errors"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/record"
)

const backupKeyPrefix = "lambda-processed"

// Sink names used in error details and logs.
const (
	sinkPrimaryStore = "primary_store"
	sinkBackupStore  = "backup_store"
	sinkMetrics      = "metrics"
)

// Coordinator sequences the dual write and the success metric. There is
// no compensation: a backup failure after a successful primary write
// leaves the primary copy in place, and the invocation reports failure.
type Coordinator struct {
	logger  *zap.Logger
	primary PrimaryStore
	backup  BackupStore
	metrics MetricsSink
}

func NewCoordinator(logger *zap.Logger, primary PrimaryStore, backup BackupStore, metrics MetricsSink) *Coordinator {
	return &Coordinator{
		logger:  logger,
		primary: primary,
		backup:  backup,
		metrics: metrics,
	}
}

// PersistResult reports where the redundant copy landed. The primary
// write has no payload of its own; its acknowledgement is the absence of
// an error.
type PersistResult struct {
	BackupLocation string
}

// Persist writes the enriched record to the primary store, then the
// backup store, then emits the SUCCESS metric. The first failure aborts
// the remaining steps and is returned typed by sink.
func (c *Coordinator) Persist(ctx context.Context, e *record.Enriched, processingID string) (*PersistResult, error) {
	log := c.logger.With(
		zap.String("processing_id", processingID),
		zap.String("patient_id", e.PatientID),
	)

	if err := c.primary.Put(ctx, e.PatientID, e); err != nil {
		return nil, errors.NewExternalError(sinkPrimaryStore, "primary write failed").WithCause(err)
	}
	log.Debug("primary record written", zap.String("stage", StagePrimaryWritten.String()))

	body, err := e.MarshalIndent()
	if err != nil {
		return nil, errors.NewExternalError(sinkBackupStore, "encoding backup object failed").WithCause(err)
	}

	key := BackupKey(e.PatientID, processingID)
	location, err := c.backup.Put(ctx, BackupObject{
		Key:          key,
		Body:         body,
		ProcessingID: processingID,
		PatientID:    e.PatientID,
	})
	if err != nil {
		return nil, errors.NewExternalError(sinkBackupStore, "backup write failed").WithCause(err)
	}
	log.Debug("backup written", zap.String("stage", StageBackedUp.String()), zap.String("backup_location", location))

	if err := c.metrics.RecordProcessed(ctx, processingID, MetricStatusSuccess); err != nil {
		return nil, errors.NewExternalError(sinkMetrics, "metric emission failed").WithCause(err)
	}
	log.Debug("metric emitted", zap.String("stage", StageMetricEmitted.String()))

	return &PersistResult{BackupLocation: location}, nil
}

// BackupKey builds the backup object key. Keys embed the processing id,
// so repeated submissions for one patient never overwrite each other.
func BackupKey(patientID, processingID string) string {
	return fmt.Sprintf("%s/%s/%s.json", backupKeyPrefix, patientID, processingID)
}
