package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

const backupComplianceTag = "PIPEDA"

// S3Client is the subset of the S3 API the backup store uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// NewS3Client builds an S3 client, optionally pointed at a local
// endpoint override. Path-style addressing is required by MinIO and
// LocalStack.
func NewS3Client(cfg aws.Config, endpoint string) *s3.Client {
	if endpoint == "" {
		return s3.NewFromConfig(cfg)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
}

// S3Store writes encrypted per-record backup objects.
type S3Store struct {
	client S3Client
	bucket string
	logger *zap.Logger
}

var _ pipeline.BackupStore = (*S3Store)(nil)

func NewS3Store(client S3Client, bucket string, logger *zap.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Put stores the backup object under its key with server-side AES-256
// encryption and returns the s3:// location of the object.
func (s *S3Store) Put(ctx context.Context, obj pipeline.BackupObject) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(obj.Key),
		Body:                 bytes.NewReader(obj.Body),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
		Metadata: map[string]string{
			"processing-id": obj.ProcessingID,
			"patient-id":    obj.PatientID,
			"compliance":    backupComplianceTag,
		},
	})
	if err != nil {
		return "", fmt.Errorf("putting backup %s: %w", obj.Key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, obj.Key)
	s.logger.Debug("stored backup object",
		zap.String("location", location),
		zap.String("processing_id", obj.ProcessingID),
	)
	return location, nil
}

// Ping verifies the bucket is reachable.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("heading bucket %s: %w", s.bucket, err)
	}
	return nil
}
