package pipeline_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/errors"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/record"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

func enrichedFixture(t *testing.T) *record.Enriched {
	t.Helper()
	e, err := pipeline.NewEnricher("us-east-1").Enrich(compliantRecord(t), "proc-abc", time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return e
}

func newCoordinator(t *testing.T, primary *fakePrimaryStore, backup *fakeBackupStore, metrics *fakeMetricsSink) *pipeline.Coordinator {
	t.Helper()
	return pipeline.NewCoordinator(zaptest.NewLogger(t), primary, backup, metrics)
}

func TestCoordinator_Persist_Success(t *testing.T) {
	primary := newFakePrimaryStore()
	backup := newFakeBackupStore()
	metrics := newFakeMetricsSink()
	enriched := enrichedFixture(t)

	result, err := newCoordinator(t, primary, backup, metrics).Persist(context.Background(), enriched, "proc-abc")
	require.NoError(t, err)

	assert.Equal(t, "s3://test-backups/lambda-processed/P-9/proc-abc.json", result.BackupLocation)
	assert.Same(t, enriched, primary.get("P-9"))

	obj, ok := backup.objects["lambda-processed/P-9/proc-abc.json"]
	require.True(t, ok)
	assert.Equal(t, "proc-abc", obj.ProcessingID)
	assert.Equal(t, "P-9", obj.PatientID)

	var stored map[string]any
	require.NoError(t, json.Unmarshal(obj.Body, &stored))
	assert.Contains(t, stored, "SystemMetadata")
	assert.Contains(t, string(obj.Body), "\n  \"", "backup body must be pretty-printed")

	require.Len(t, metrics.all(), 1)
	assert.Equal(t, emission{correlationID: "proc-abc", status: pipeline.MetricStatusSuccess}, metrics.all()[0])
}

func TestCoordinator_Persist_PrimaryFailureAbortsSequence(t *testing.T) {
	primary := newFakePrimaryStore()
	primary.putErr = assert.AnError
	backup := newFakeBackupStore()
	metrics := newFakeMetricsSink()

	_, err := newCoordinator(t, primary, backup, metrics).Persist(context.Background(), enrichedFixture(t), "proc-abc")
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
	assert.Equal(t, 500, errors.GetStatusCode(err))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "primary_store", appErr.Details["sink"])

	assert.Equal(t, 0, backup.count(), "backup must not be attempted after a primary failure")
	assert.Empty(t, metrics.all(), "no metric is emitted by the coordinator on failure")
}

func TestCoordinator_Persist_BackupFailureLeavesPrimaryWrite(t *testing.T) {
	primary := newFakePrimaryStore()
	backup := newFakeBackupStore()
	backup.putErr = assert.AnError
	metrics := newFakeMetricsSink()

	_, err := newCoordinator(t, primary, backup, metrics).Persist(context.Background(), enrichedFixture(t), "proc-abc")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "backup_store", appErr.Details["sink"])

	assert.Equal(t, 1, primary.count(), "the primary write is not rolled back")
	assert.Empty(t, metrics.all())
}

func TestCoordinator_Persist_MetricFailureSurfaces(t *testing.T) {
	primary := newFakePrimaryStore()
	backup := newFakeBackupStore()
	metrics := newFakeMetricsSink()
	metrics.err = assert.AnError

	_, err := newCoordinator(t, primary, backup, metrics).Persist(context.Background(), enrichedFixture(t), "proc-abc")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "metrics", appErr.Details["sink"])

	assert.Equal(t, 1, primary.count())
	assert.Equal(t, 1, backup.count())
	require.Len(t, metrics.all(), 1, "the SUCCESS emission is attempted before failing")
	assert.Equal(t, pipeline.MetricStatusSuccess, metrics.all()[0].status)
}

func TestBackupKey(t *testing.T) {
	key := pipeline.BackupKey("P1", "11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "lambda-processed/P1/11111111-2222-3333-4444-555555555555.json", key)
}

func TestBackupKey_UniquePerProcessingAttempt(t *testing.T) {
	a := pipeline.BackupKey("P1", "proc-1")
	b := pipeline.BackupKey("P1", "proc-2")
	assert.NotEqual(t, a, b)
}
