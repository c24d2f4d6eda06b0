package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/api/rest"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/errors"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/config"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/storage"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/telemetry"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

// handler adapts the intake pipeline to the Lambda runtime. The raw
// event is passed through untouched: payload normalization already
// understands both direct invocations and API Gateway proxy events.
type handler struct {
	processor rest.Processor
}

func (h *handler) Handle(ctx context.Context, event json.RawMessage) (events.APIGatewayProxyResponse, error) {
	receipt, err := h.processor.Process(ctx, event)
	if err != nil {
		return h.errorResponse(err), nil
	}

	body, err := json.Marshal(rest.NewSuccessResponse(receipt))
	if err != nil {
		return h.errorResponse(errors.NewInternalError("encoding response failed").WithCause(err)), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":          "application/json",
			rest.HeaderProcessingID: receipt.ProcessingID,
		},
		Body: string(body),
	}, nil
}

func (h *handler) errorResponse(err error) events.APIGatewayProxyResponse {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError("unexpected processing failure").WithCause(err)
	}

	var body []byte
	if appErr.Type == errors.ErrorTypeCompliance {
		body, _ = json.Marshal(rest.NewRejectionResponse(appErr))
	} else {
		body, _ = json.Marshal(rest.NewFailureResponse(appErr))
	}

	return events.APIGatewayProxyResponse{
		StatusCode: errors.GetStatusCode(appErr),
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	slog.SetDefault(logger)

	ctx := context.Background()
	awsCfg, err := storage.NewAWSConfig(ctx, cfg.AWS.Region, cfg.AWS.Endpoint)
	if err != nil {
		log.Fatalf("Failed to load AWS configuration: %v", err)
	}

	zlog := zap.Must(zap.NewProduction())
	defer zlog.Sync()

	primary := storage.NewDynamoDBStore(
		storage.NewDynamoDBClient(awsCfg, cfg.AWS.Endpoint),
		cfg.Storage.TableName,
		zlog.Named("dynamodb"),
	)
	backup := storage.NewS3Store(
		storage.NewS3Client(awsCfg, cfg.AWS.Endpoint),
		cfg.Storage.BackupBucket,
		zlog.Named("s3"),
	)
	metrics := storage.NewCloudWatchSink(
		storage.NewCloudWatchClient(awsCfg, cfg.AWS.Endpoint),
		cfg.AWS.Region,
		zlog.Named("cloudwatch"),
	)

	processor := pipeline.NewService(
		zlog.Named("pipeline"),
		primary, backup, metrics,
		pipeline.Config{Region: cfg.AWS.Region},
	)

	h := &handler{processor: processor}
	lambda.Start(h.Handle)
}
