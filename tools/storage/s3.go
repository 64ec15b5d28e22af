package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3Getter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3DatasetState reads the dataset CSV from a single S3 object.
type S3DatasetState struct {
	bucket string
	key    string
	s3     s3Getter
}

func NewS3DatasetState(s3Client s3Getter, bucket, key string) *S3DatasetState {
	return &S3DatasetState{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (s *S3DatasetState) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrDatasetNotFound, s.bucket, s.key)
		}
		return nil, fmt.Errorf("failed to get dataset object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// S3ChartStore uploads charts under a key prefix. Each session gets its own
// object so concurrent invocations never overwrite each other.
type S3ChartStore struct {
	bucket string
	prefix string
	s3     s3Putter
}

func NewS3ChartStore(s3Client s3Putter, bucket, prefix string) *S3ChartStore {
	return &S3ChartStore{bucket: bucket, prefix: prefix, s3: s3Client}
}

// Key returns the object key used for sessionID.
func (s *S3ChartStore) Key(sessionID string) string {
	return path.Join(s.prefix, sessionID+".png")
}

// PublishSession uploads the chart at localPath for sessionID and returns its
// s3:// URI.
func (s *S3ChartStore) PublishSession(ctx context.Context, sessionID, localPath string) (string, error) {
	img, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read chart: %w", err)
	}
	key := s.Key(sessionID)
	if _, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img),
		ContentType: aws.String("image/png"),
	}); err != nil {
		return "", fmt.Errorf("failed to put chart s3://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Publish uploads the chart keyed by its file name.
func (s *S3ChartStore) Publish(ctx context.Context, localPath string) (string, error) {
	name := filepath.Base(localPath)
	return s.PublishSession(ctx, name[:len(name)-len(filepath.Ext(name))], localPath)
}
