package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/jobhub/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "24h"-style strings or integer nanoseconds. Pointer fields let an
// absent key leave the current value alone.
type JsonConfig struct {
	EndpointAddr              *string         `json:"endpoint_addr"`
	DatabaseDSN               *string         `json:"database_dsn"`
	LogLevel                  *string         `json:"log_level"`
	SecretKey                 *string         `json:"secret_key"`
	TokenValidityDuration     *timex.Duration `json:"token_validity_duration"`
	SessionValidityDuration   *timex.Duration `json:"session_validity_duration"`
	PasswordHashCost          *int            `json:"password_hash_cost"`
	StorageBackend            *string         `json:"storage_backend"`
	LocalStorageRoot          *string         `json:"local_storage_root"`
	LocalBaseURL              *string         `json:"local_base_url"`
	S3RootUser                *string         `json:"s3_root_user"`
	S3RootPassword            *string         `json:"s3_root_password"`
	S3Bucket                  *string         `json:"s3_bucket"`
	S3Region                  *string         `json:"s3_region"`
	S3BaseEndpoint            *string         `json:"s3_base_endpoint"`
	S3PublicBaseURL           *string         `json:"s3_public_base_url"`
	S3UsePathStyle            *bool           `json:"s3_use_path_style"`
	SignedURLValidityDuration *timex.Duration `json:"signed_url_validity_duration"`
	StorageTimeout            *timex.Duration `json:"storage_timeout"`
	MaxParallelUploads        *int            `json:"max_parallel_uploads"`
}

// parseJson overlays values from the JSON file at path onto config.
// An empty path means no file and is not an error.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenValidityDuration, c.TokenValidityDuration)
	setDuration(&config.SessionValidityDuration, c.SessionValidityDuration)
	if c.PasswordHashCost != nil {
		config.PasswordHashCost = *c.PasswordHashCost
	}
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.LocalStorageRoot, c.LocalStorageRoot)
	setString(&config.LocalBaseURL, c.LocalBaseURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	if c.S3UsePathStyle != nil {
		config.S3UsePathStyle = *c.S3UsePathStyle
	}
	setDuration(&config.SignedURLValidityDuration, c.SignedURLValidityDuration)
	setDuration(&config.StorageTimeout, c.StorageTimeout)
	if c.MaxParallelUploads != nil {
		config.MaxParallelUploads = *c.MaxParallelUploads
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
