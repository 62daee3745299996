package config

import (
	"flag"

	"github.com/dmitrijs2005/jobhub/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-l", "-s", "-t", "-session-ttl",
	"-storage", "-root", "-base-url",
	"-u", "-p", "-b", "-g", "-e", "-public-url",
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string            HTTP bind address (e.g., ":8080")
//	-d string            PostgreSQL DSN
//	-l string            log level
//	-s string            JWT HMAC secret key
//	-t duration          token validity (e.g., "24h")
//	-session-ttl dur     session validity
//	-storage string      storage backend: local | s3
//	-root string         local storage root directory
//	-base-url string     public base URL of this server (local backend)
//	-u / -p string       S3 access key / secret key
//	-b string            S3 bucket name
//	-g string            S3 region
//	-e string            S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-public-url string   public base URL of the bucket
//
// args are filtered through flagx.FilterArgs first, so flags owned by other
// components (such as -c) do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "token validity")
	fs.DurationVar(&config.SessionValidityDuration, "session-ttl", config.SessionValidityDuration, "session validity")

	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "storage backend (local|s3)")
	fs.StringVar(&config.LocalStorageRoot, "root", config.LocalStorageRoot, "local storage root")
	fs.StringVar(&config.LocalBaseURL, "base-url", config.LocalBaseURL, "public base URL of this server")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicBaseURL, "public-url", config.S3PublicBaseURL, "S3 public base URL")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
