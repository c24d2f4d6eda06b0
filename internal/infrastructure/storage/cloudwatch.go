package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

const (
	metricNamespace = "HealthcareProcessing"
	metricName      = "RecordsProcessed"
)

// CloudWatchClient is the subset of the CloudWatch API the sink uses.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// NewCloudWatchClient builds a CloudWatch client, optionally pointed at
// a local endpoint override.
func NewCloudWatchClient(cfg aws.Config, endpoint string) *cloudwatch.Client {
	if endpoint == "" {
		return cloudwatch.NewFromConfig(cfg)
	}
	return cloudwatch.NewFromConfig(cfg, func(o *cloudwatch.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// CloudWatchSink emits one RecordsProcessed datum per invocation,
// dimensioned by outcome status and region. The correlation ID travels
// in logs only, never as a metric dimension.
type CloudWatchSink struct {
	client CloudWatchClient
	region string
	logger *zap.Logger
}

var _ pipeline.MetricsSink = (*CloudWatchSink)(nil)

func NewCloudWatchSink(client CloudWatchClient, region string, logger *zap.Logger) *CloudWatchSink {
	return &CloudWatchSink{
		client: client,
		region: region,
		logger: logger,
	}
}

func (c *CloudWatchSink) RecordProcessed(ctx context.Context, correlationID string, status pipeline.MetricStatus) error {
	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricNamespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Dimensions: []types.Dimension{
					{Name: aws.String("Status"), Value: aws.String(string(status))},
					{Name: aws.String("Region"), Value: aws.String(c.region)},
				},
				Value: aws.Float64(1),
				Unit:  types.StandardUnitCount,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("emitting %s metric: %w", status, err)
	}

	c.logger.Debug("emitted processing metric",
		zap.String("correlation_id", correlationID),
		zap.String("status", string(status)),
	)
	return nil
}
