// Package storage provides the AWS-backed adapters for the record
// pipeline: DynamoDB for the primary store, S3 for encrypted backups,
// and CloudWatch for processing metrics. Each adapter wraps a narrow
// client interface so tests can substitute the AWS SDK.
package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// NewAWSConfig loads the base AWS configuration for the region. A
// non-empty endpoint switches to static test credentials so local
// stand-ins like LocalStack accept the requests.
func NewAWSConfig(ctx context.Context, region, endpoint string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if endpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}
