package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays environment variables onto config. lookup is usually
// os.LookupEnv; variables that are unset leave the field untouched.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}

	strs := map[string]*string{
		"HTTP_ADDR":          &config.EndpointAddr,
		"DATABASE_DSN":       &config.DatabaseDSN,
		"LOG_LEVEL":          &config.LogLevel,
		"JWT_SECRET":         &config.SecretKey,
		"STORAGE_BACKEND":    &config.StorageBackend,
		"LOCAL_STORAGE_ROOT": &config.LocalStorageRoot,
		"LOCAL_BASE_URL":     &config.LocalBaseURL,
		"S3_ACCESS_KEY":      &config.S3RootUser,
		"S3_SECRET_KEY":      &config.S3RootPassword,
		"S3_BUCKET":          &config.S3Bucket,
		"S3_REGION":          &config.S3Region,
		"S3_ENDPOINT":        &config.S3BaseEndpoint,
		"S3_PUBLIC_BASE_URL": &config.S3PublicBaseURL,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"TOKEN_TTL":       &config.TokenValidityDuration,
		"SESSION_TTL":     &config.SessionValidityDuration,
		"SIGNED_URL_TTL":  &config.SignedURLValidityDuration,
		"STORAGE_TIMEOUT": &config.StorageTimeout,
	}
	for name, dst := range durations {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"PASSWORD_HASH_COST":   &config.PasswordHashCost,
		"MAX_PARALLEL_UPLOADS": &config.MaxParallelUploads,
	}
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
		*dst = n
	}

	if v, ok := lookup("S3_USE_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env S3_USE_PATH_STYLE: %w", err)
		}
		config.S3UsePathStyle = b
	}

	return nil
}
