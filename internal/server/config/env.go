package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded into the process environment when present. Variables that
// are already set are not overwritten.
var envFile = ".env"

// Environment variable names.
const (
	envHTTPAddr       = "SHAREKEEPER_HTTP_ADDR"
	envGRPCAddr       = "SHAREKEEPER_GRPC_ADDR"
	envDatabaseDSN    = "SHAREKEEPER_DATABASE_DSN"
	envSecretKey      = "SHAREKEEPER_SECRET_KEY"
	envRequestTimeout = "SHAREKEEPER_REQUEST_TIMEOUT"
	envStorage        = "SHAREKEEPER_STORAGE_BACKEND"
	envBlobPath       = "SHAREKEEPER_BLOB_PATH"
	envS3User         = "SHAREKEEPER_S3_ROOT_USER"
	envS3Password     = "SHAREKEEPER_S3_ROOT_PASSWORD"
	envS3Bucket       = "SHAREKEEPER_S3_BUCKET"
	envS3Region       = "SHAREKEEPER_S3_REGION"
	envS3Endpoint     = "SHAREKEEPER_S3_BASE_ENDPOINT"
	envS3UseSSL       = "SHAREKEEPER_S3_USE_SSL"
	envRedisAddr      = "SHAREKEEPER_REDIS_ADDR"
	envRedisPassword  = "SHAREKEEPER_REDIS_PASSWORD"
	envRedisDB        = "SHAREKEEPER_REDIS_DB"
	envCacheTTL       = "SHAREKEEPER_DIRECTORY_CACHE_TTL"
)

// parseEnv overlays Config with SHAREKEEPER_* variables. Durations use
// time.ParseDuration syntax ("30s"). Malformed values panic, like malformed
// JSON and flags do.
func parseEnv(config *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, envHTTPAddr)
	setString(&config.EndpointAddrGRPC, envGRPCAddr)
	setString(&config.DatabaseDSN, envDatabaseDSN)
	setString(&config.SecretKey, envSecretKey)
	setDuration(&config.RequestTimeout, envRequestTimeout)
	setString(&config.StorageBackend, envStorage)
	setString(&config.BlobPath, envBlobPath)
	setString(&config.S3RootUser, envS3User)
	setString(&config.S3RootPassword, envS3Password)
	setString(&config.S3Bucket, envS3Bucket)
	setString(&config.S3Region, envS3Region)
	setString(&config.S3BaseEndpoint, envS3Endpoint)
	setBool(&config.S3UseSSL, envS3UseSSL)
	setString(&config.RedisAddr, envRedisAddr)
	setString(&config.RedisPassword, envRedisPassword)
	setInt(&config.RedisDB, envRedisDB)
	setDuration(&config.DirectoryCacheTTL, envCacheTTL)
}

func setString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) {
	if v, ok := os.LookupEnv(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}

func setBool(dst *bool, name string) {
	if v, ok := os.LookupEnv(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		*dst = b
	}
}

func setInt(dst *int, name string) {
	if v, ok := os.LookupEnv(name); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = i
	}
}
