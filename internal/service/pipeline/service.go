package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/errors"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/record"
)

// Config holds the pipeline's fixed deployment labels.
type Config struct {
	Region string
}

// Service runs the intake pipeline: normalize, validate, enrich, persist.
// It is stateless and safe for concurrent use; every invocation owns its
// own record copies.
type Service struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	validator *Validator
	enricher  *Enricher
	coord     *Coordinator
	metrics   MetricsSink
	clock     Clock
	newID     func() uuid.UUID
}

type Option func(*Service)

// WithClock overrides the source of pipeline timestamps.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator overrides how processing and error ids are minted.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Service) { s.newID = fn }
}

func NewService(logger *zap.Logger, primary PrimaryStore, backup BackupStore, metrics MetricsSink, cfg Config, opts ...Option) *Service {
	s := &Service{
		logger:    logger,
		tracer:    otel.Tracer("hdr.service.pipeline"),
		validator: NewValidator(),
		enricher:  NewEnricher(cfg.Region),
		coord:     NewCoordinator(logger.Named("coordinator"), primary, backup, metrics),
		metrics:   metrics,
		clock:     systemClock{},
		newID:     uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Receipt is the outcome of a fully processed record.
type Receipt struct {
	ProcessingID   string
	PatientID      string
	Record         *record.Enriched
	BackupLocation string
	CompletedAt    time.Time
}

// Process runs one payload through the pipeline. A fresh processing id is
// minted per call. Rejections and sink failures come back as
// *errors.AppError; entry points map the error type to a response.
func (s *Service) Process(ctx context.Context, payload []byte) (*Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.process")
	defer span.End()

	processingID := s.newID().String()
	span.SetAttributes(attribute.String("processing_id", processingID))
	log := s.logger.With(zap.String("processing_id", processingID))

	span.AddEvent(StageReceived.String())
	log.Debug("payload received", zap.Int("payload_bytes", len(payload)))

	rec, err := record.NormalizePayload(payload)
	if err != nil {
		return nil, s.fail(ctx, log, span, errors.NewInternalError("request payload could not be decoded").WithCause(err))
	}

	result := s.validator.Validate(rec)
	if !result.Compliant {
		span.AddEvent(StageRejected.String())
		span.SetStatus(codes.Error, "compliance rejection")
		log.Info("record rejected",
			zap.String("stage", StageRejected.String()),
			zap.Strings("issues", result.Issues),
		)
		return nil, errors.NewComplianceError(processingID, result.Issues)
	}
	span.AddEvent(StageValidated.String())

	enriched, err := s.enricher.Enrich(rec, processingID, s.clock.Now())
	if err != nil {
		return nil, s.fail(ctx, log, span, errors.NewInternalError("record enrichment failed").WithCause(err))
	}
	span.AddEvent(StageEnriched.String())

	persisted, err := s.coord.Persist(ctx, enriched, processingID)
	if err != nil {
		appErr, ok := err.(*errors.AppError)
		if !ok {
			appErr = errors.NewInternalError("record persistence failed").WithCause(err)
		}
		return nil, s.fail(ctx, log, span, appErr)
	}

	receipt := &Receipt{
		ProcessingID:   processingID,
		PatientID:      enriched.PatientID,
		Record:         enriched,
		BackupLocation: persisted.BackupLocation,
		CompletedAt:    s.clock.Now(),
	}

	log.Info("record processed",
		zap.String("patient_id", receipt.PatientID),
		zap.String("backup_location", receipt.BackupLocation),
		zap.String("data_hash", enriched.SystemMetadata.DataHash),
	)
	return receipt, nil
}

// fail finalizes the FAILED state: mint an error id, attempt the ERROR
// metric, and attach the id for the response body. On this path the
// metric's correlation token is the error id, not a processing id.
func (s *Service) fail(ctx context.Context, log *zap.Logger, span trace.Span, appErr *errors.AppError) error {
	errorID := s.newID().String()

	if merr := s.metrics.RecordProcessed(ctx, errorID, MetricStatusError); merr != nil {
		log.Warn("ERROR metric emission failed", zap.Error(merr))
	}

	span.AddEvent(StageFailed.String())
	span.RecordError(appErr)
	span.SetStatus(codes.Error, "pipeline failure")

	if appErr.Details == nil {
		appErr.Details = make(map[string]interface{}, 1)
	}
	appErr.Details["error_id"] = errorID

	log.Error("pipeline failed",
		zap.String("stage", StageFailed.String()),
		zap.String("error_id", errorID),
		zap.Error(appErr),
	)
	return appErr
}
