package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnvFile(t *testing.T, path string) {
	t.Helper()
	orig := envFile
	t.Cleanup(func() { envFile = orig })
	envFile = path
}

func TestParseEnv_Variables(t *testing.T) {
	withEnvFile(t, filepath.Join(t.TempDir(), "missing.env"))

	t.Setenv(envHTTPAddr, ":9090")
	t.Setenv(envGRPCAddr, ":6000")
	t.Setenv(envRequestTimeout, "5s")
	t.Setenv(envStorage, "bolt")
	t.Setenv(envBlobPath, "/data/blobs.db")
	t.Setenv(envS3UseSSL, "true")
	t.Setenv(envRedisAddr, "redis:6379")
	t.Setenv(envRedisDB, "2")
	t.Setenv(envCacheTTL, "1m")

	c := &Config{}
	c.LoadDefaults()
	parseEnv(c)

	assert.Equal(t, ":9090", c.EndpointAddrHTTP)
	assert.Equal(t, ":6000", c.EndpointAddrGRPC)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, "bolt", c.StorageBackend)
	assert.Equal(t, "/data/blobs.db", c.BlobPath)
	assert.True(t, c.S3UseSSL)
	assert.Equal(t, "redis:6379", c.RedisAddr)
	assert.Equal(t, 2, c.RedisDB)
	assert.Equal(t, time.Minute, c.DirectoryCacheTTL)
	assert.Equal(t, "secretKey", c.SecretKey)
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHAREKEEPER_S3_BUCKET=dotenv-bucket\nSHAREKEEPER_SECRET_KEY=dotenv-secret\n"), 0o600))
	withEnvFile(t, path)

	// Variables already present win over the file.
	t.Setenv(envSecretKey, "real-env")
	// Register cleanup for the variable godotenv will set.
	t.Setenv(envS3Bucket, "")
	require.NoError(t, os.Unsetenv(envS3Bucket))

	c := &Config{}
	c.LoadDefaults()
	parseEnv(c)

	assert.Equal(t, "dotenv-bucket", c.S3Bucket)
	assert.Equal(t, "real-env", c.SecretKey)
}

func TestParseEnv_MalformedValuePanics(t *testing.T) {
	withEnvFile(t, filepath.Join(t.TempDir(), "missing.env"))

	tests := []struct {
		name  string
		value string
	}{
		{envRequestTimeout, "soon"},
		{envS3UseSSL, "maybe"},
		{envRedisDB, "one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.name, tt.value)
			c := &Config{}
			require.Panics(t, func() { parseEnv(c) })
		})
	}
}
