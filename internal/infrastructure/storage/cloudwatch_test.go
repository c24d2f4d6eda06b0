package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/storage"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

type mockCloudWatch struct {
	putMetricDataFunc func(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)

	lastPut *cloudwatch.PutMetricDataInput
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.lastPut = params
	if m.putMetricDataFunc != nil {
		return m.putMetricDataFunc(ctx, params, optFns...)
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestCloudWatchSink_RecordProcessed(t *testing.T) {
	tests := []struct {
		name       string
		status     pipeline.MetricStatus
		wantStatus string
	}{
		{name: "success datum", status: pipeline.MetricStatusSuccess, wantStatus: "SUCCESS"},
		{name: "error datum", status: pipeline.MetricStatusError, wantStatus: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCloudWatch{}
			sink := storage.NewCloudWatchSink(mock, "ca-central-1", zaptest.NewLogger(t))

			err := sink.RecordProcessed(context.Background(), "corr-1", tt.status)
			require.NoError(t, err)

			require.NotNil(t, mock.lastPut)
			assert.Equal(t, "HealthcareProcessing", *mock.lastPut.Namespace)
			require.Len(t, mock.lastPut.MetricData, 1)

			datum := mock.lastPut.MetricData[0]
			assert.Equal(t, "RecordsProcessed", *datum.MetricName)
			assert.Equal(t, float64(1), *datum.Value)
			assert.Equal(t, cwtypes.StandardUnitCount, datum.Unit)

			require.Len(t, datum.Dimensions, 2)
			assert.Equal(t, "Status", *datum.Dimensions[0].Name)
			assert.Equal(t, tt.wantStatus, *datum.Dimensions[0].Value)
			assert.Equal(t, "Region", *datum.Dimensions[1].Name)
			assert.Equal(t, "ca-central-1", *datum.Dimensions[1].Value)
		})
	}
}

func TestCloudWatchSink_RecordProcessed_ClientError(t *testing.T) {
	mock := &mockCloudWatch{
		putMetricDataFunc: func(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	sink := storage.NewCloudWatchSink(mock, "us-east-1", zaptest.NewLogger(t))

	err := sink.RecordProcessed(context.Background(), "corr-1", pipeline.MetricStatusSuccess)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emitting SUCCESS metric")
}
