package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	body  string
	err   error
	input *s3.GetObjectInput
	put   *s3.PutObjectInput
	data  []byte
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(m.body))}, nil
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.put = in
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.data = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3DatasetState(t *testing.T) {
	tests := []struct {
		name      string
		client    *mockS3
		want      string
		wantErrIs error
		wantErr   []string
	}{
		{
			name:   "reads object",
			client: &mockS3{body: "Food,Calories\n"},
			want:   "Food,Calories\n",
		},
		{
			name:      "missing key",
			client:    &mockS3{err: &types.NoSuchKey{}},
			wantErrIs: ErrDatasetNotFound,
			wantErr:   []string{"s3://artifacts/clean-food.csv"},
		},
		{
			name:    "wraps other errors",
			client:  &mockS3{err: errors.New("access denied")},
			wantErr: []string{"s3://artifacts/clean-food.csv", "access denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewS3DatasetState(tt.client, "artifacts", "clean-food.csv").Load(context.Background())
			assert.Equal(t, "artifacts", aws.ToString(tt.client.input.Bucket))
			assert.Equal(t, "clean-food.csv", aws.ToString(tt.client.input.Key))
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, string(data))
				return
			}
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			}
			for _, s := range tt.wantErr {
				assert.ErrorContains(t, err, s)
			}
		})
	}
}

func TestS3ChartStore(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "plot.png")
	require.NoError(t, os.WriteFile(chart, []byte("png bytes"), 0o644))

	t.Run("publishes per session", func(t *testing.T) {
		client := &mockS3{}
		store := NewS3ChartStore(client, "artifacts", "charts")

		uri, err := store.PublishSession(context.Background(), "abc-123", chart)
		require.NoError(t, err)

		assert.Equal(t, "s3://artifacts/charts/abc-123.png", uri)
		assert.Equal(t, "charts/abc-123.png", aws.ToString(client.put.Key))
		assert.Equal(t, "image/png", aws.ToString(client.put.ContentType))
		assert.Equal(t, []byte("png bytes"), client.data)
	})

	t.Run("publish uses file name", func(t *testing.T) {
		uri, err := NewS3ChartStore(&mockS3{}, "artifacts", "").Publish(context.Background(), chart)
		require.NoError(t, err)
		assert.Equal(t, "s3://artifacts/plot.png", uri)
	})

	t.Run("missing chart", func(t *testing.T) {
		_, err := NewS3ChartStore(&mockS3{}, "artifacts", "charts").PublishSession(context.Background(), "s", filepath.Join(t.TempDir(), "none.png"))
		assert.ErrorContains(t, err, "read chart")
	})

	t.Run("put failure", func(t *testing.T) {
		_, err := NewS3ChartStore(&mockS3{err: errors.New("denied")}, "artifacts", "charts").PublishSession(context.Background(), "s", chart)
		assert.EqualError(t, err, "failed to put chart s3://artifacts/charts/s.png: denied")
	})
}
