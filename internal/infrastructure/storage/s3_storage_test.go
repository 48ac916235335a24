package storage

import (
	"context"
	"testing"

	"github.com/cotiza/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:      true,
		Bucket:       "cotiza-test",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	_, err := NewS3ObjectStorage(nil)
	assert.ErrorContains(t, err, "configuration is required")

	cfg := testStorageConfig()
	cfg.Bucket = ""
	cfg.SecretKey = ""
	_, err = NewS3ObjectStorage(cfg)
	assert.EqualError(t, err, "storage: missing bucket, secret_key")

	cfg = testStorageConfig()
	cfg.Endpoint = "ftp://minio"
	_, err = NewS3ObjectStorage(cfg)
	assert.ErrorContains(t, err, "invalid endpoint")
}

func TestNewS3ObjectStorage(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig(), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "cotiza-test", s.Bucket())
	assert.NotNil(t, s.client)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{"", "", false},
		{"minio:9000", "https://minio:9000", false},
		{"http://localhost:9000/", "http://localhost:9000", false},
		{"https://s3.us-east-1.amazonaws.com", "https://s3.us-east-1.amazonaws.com", false},
		{"http://", "", true},
		{"ftp://files", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3ObjectStorage_UploadRequiresKey(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig())
	require.NoError(t, err)

	err = s.Upload(context.Background(), "", []byte("x"), ContentTypeCSV)
	assert.EqualError(t, err, "storage key is required")
}
