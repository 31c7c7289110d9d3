package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sharekeeper/internal/flagx"
	"github.com/dmitrijs2005/sharekeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. Fields left out of the file keep the value they had before.
type JsonConfig struct {
	EndpointAddrHTTP  string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC  string          `json:"endpoint_addr_grpc"`
	DatabaseDSN       string          `json:"database_dsn"`
	SecretKey         string          `json:"secret_key"`
	RequestTimeout    *timex.Duration `json:"request_timeout"`
	StorageBackend    string          `json:"storage_backend"`
	BlobPath          string          `json:"blob_path"`
	S3RootUser        string          `json:"s3_root_user"`
	S3RootPassword    string          `json:"s3_root_password"`
	S3Bucket          string          `json:"s3_bucket"`
	S3Region          string          `json:"s3_region"`
	S3BaseEndpoint    string          `json:"s3_base_endpoint"`
	S3UseSSL          *bool           `json:"s3_use_ssl"`
	RedisAddr         string          `json:"redis_addr"`
	RedisPassword     string          `json:"redis_password"`
	RedisDB           *int            `json:"redis_db"`
	DirectoryCacheTTL *timex.Duration `json:"directory_cache_ttl"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. If neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.StorageBackend, c.StorageBackend)
	overlay(&config.BlobPath, c.BlobPath)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlay(&config.RedisAddr, c.RedisAddr)
	overlay(&config.RedisPassword, c.RedisPassword)

	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.DirectoryCacheTTL != nil {
		config.DirectoryCacheTTL = c.DirectoryCacheTTL.Duration
	}
	if c.S3UseSSL != nil {
		config.S3UseSSL = *c.S3UseSSL
	}
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
