package storage_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/infrastructure/storage"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

type mockS3 struct {
	putObjectFunc  func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	headBucketFunc func(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)

	lastPut  *s3.PutObjectInput
	lastBody []byte
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.lastPut = params
	if params.Body != nil {
		data, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		m.lastBody = data
	}
	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if m.headBucketFunc != nil {
		return m.headBucketFunc(ctx, params, optFns...)
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	mock := &mockS3{}
	store := storage.NewS3Store(mock, "dr-healthcare-primary-ab-20250803", zaptest.NewLogger(t))

	body := []byte("{\n  \"PatientID\": \"P-1\"\n}")
	location, err := store.Put(context.Background(), pipeline.BackupObject{
		Key:          "lambda-processed/P-1/proc-1.json",
		Body:         body,
		ProcessingID: "proc-1",
		PatientID:    "P-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://dr-healthcare-primary-ab-20250803/lambda-processed/P-1/proc-1.json", location)

	require.NotNil(t, mock.lastPut)
	assert.Equal(t, "dr-healthcare-primary-ab-20250803", *mock.lastPut.Bucket)
	assert.Equal(t, "lambda-processed/P-1/proc-1.json", *mock.lastPut.Key)
	assert.Equal(t, "application/json", *mock.lastPut.ContentType)
	assert.Equal(t, s3types.ServerSideEncryptionAes256, mock.lastPut.ServerSideEncryption)
	assert.Equal(t, map[string]string{
		"processing-id": "proc-1",
		"patient-id":    "P-1",
		"compliance":    "PIPEDA",
	}, mock.lastPut.Metadata)
	assert.Equal(t, body, mock.lastBody)
}

func TestS3Store_Put_ClientError(t *testing.T) {
	mock := &mockS3{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, errors.New("access denied")
		},
	}
	store := storage.NewS3Store(mock, "dr-healthcare-primary-ab-20250803", zaptest.NewLogger(t))

	location, err := store.Put(context.Background(), pipeline.BackupObject{
		Key:  "lambda-processed/P-1/proc-1.json",
		Body: []byte("{}"),
	})
	require.Error(t, err)
	assert.Empty(t, location)
	assert.Contains(t, err.Error(), "putting backup lambda-processed/P-1/proc-1.json")
}

func TestS3Store_Ping(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		mock := &mockS3{
			headBucketFunc: func(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
				assert.Equal(t, "dr-healthcare-primary-ab-20250803", *params.Bucket)
				return &s3.HeadBucketOutput{}, nil
			},
		}
		store := storage.NewS3Store(mock, "dr-healthcare-primary-ab-20250803", zaptest.NewLogger(t))
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		mock := &mockS3{
			headBucketFunc: func(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
				return nil, errors.New("no such bucket")
			},
		}
		store := storage.NewS3Store(mock, "dr-healthcare-primary-ab-20250803", zaptest.NewLogger(t))
		err := store.Ping(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "heading bucket")
	})
}
