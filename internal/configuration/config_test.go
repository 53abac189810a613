package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_DIR", "UPLOADS_DIR", "R2_BUCKET_NAME", "R2_ENABLED", "AWS_REGION", "MAX_UPLOAD_BYTES", "METADATA_BACKEND"} {
		t.Setenv(key, "")
	}

	cfg := fromEnv()
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, "./uploads", cfg.Storage.UploadsDir)
	assert.Equal(t, "file", cfg.Storage.MetadataBackend)
	assert.Equal(t, "auto", cfg.Remote.Region)
	assert.EqualValues(t, 200<<20, cfg.Server.MaxUploadBytes)
	assert.False(t, cfg.Remote.Requested())
}

func TestRemoteRequested(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		bucket string
		want   bool
	}{
		{"nothing set", "", "", false},
		{"bucket implies enabled", "", "images", true},
		{"flag without bucket", "true", "", false},
		{"flag and bucket", "true", "images", true},
		{"explicit false wins", "false", "images", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("R2_ENABLED", tt.flag)
			t.Setenv("R2_BUCKET_NAME", tt.bucket)
			assert.Equal(t, tt.want, fromEnv().Remote.Requested())
		})
	}
}

func TestRemoteCredentials(t *testing.T) {
	t.Setenv("R2_BUCKET_NAME", "images")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "")

	cfg := fromEnv()
	assert.True(t, cfg.Remote.Requested())
	assert.False(t, cfg.Remote.HasCredentials())

	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	assert.True(t, fromEnv().Remote.HasCredentials())
}

func TestInvalidUploadLimitFallsBack(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "lots")
	assert.EqualValues(t, 200<<20, fromEnv().Server.MaxUploadBytes)

	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	assert.EqualValues(t, 1024, fromEnv().Server.MaxUploadBytes)
}
