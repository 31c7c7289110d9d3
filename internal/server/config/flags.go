package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP API bind address (e.g., ":8080")
//	-m string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      request timeout, seconds
//	-o string   storage backend: s3, minio, bolt or memory
//	-f string   bolt backend database file
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l bool     use TLS for the object store
//	-r string   Redis address for the directory cache, empty disables it
//	-x int      directory cache TTL, seconds
//
// Notes:
//   - os.Args is filtered down to the flags defined here with flagx.FilterArgs,
//     so -c/-config and flags owned by other components do not collide.
//   - Duration flags are accepted as integers in seconds and then converted
//     to time.Duration values. They replace the configured value only when
//     given, so a sub-second value from the environment or JSON survives.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP API")
	fs.StringVar(&config.EndpointAddrGRPC, "m", config.EndpointAddrGRPC, "address and port to run gRPC health service")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	requestTimeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")

	fs.StringVar(&config.StorageBackend, "o", config.StorageBackend, "storage backend (s3, minio, bolt, memory)")
	fs.StringVar(&config.BlobPath, "f", config.BlobPath, "bolt backend database file")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&config.S3UseSSL, "l", config.S3UseSSL, "use TLS for object storage")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address for directory cache")

	cacheTTL := fs.Int("x", int(config.DirectoryCacheTTL.Seconds()), "directory cache TTL (in seconds)")

	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], fs)); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
		case "x":
			config.DirectoryCacheTTL = time.Duration(*cacheTTL) * time.Second
		}
	})
}
