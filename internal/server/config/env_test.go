package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func Test_parseEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	err := parseEnv(cfg, mapLookup(map[string]string{
		"STORAGE_BACKEND":      "s3",
		"S3_ENDPOINT":          "https://s3.example.com",
		"S3_BUCKET":            "profiles",
		"S3_ACCESS_KEY":        "AKIA",
		"S3_SECRET_KEY":        "shh",
		"S3_PUBLIC_BASE_URL":   "https://cdn.example.com",
		"S3_USE_PATH_STYLE":    "false",
		"JWT_SECRET":           "jwt",
		"TOKEN_TTL":            "2h",
		"SESSION_TTL":          "24h",
		"SIGNED_URL_TTL":       "87600h",
		"STORAGE_TIMEOUT":      "10s",
		"MAX_PARALLEL_UPLOADS": "2",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorageS3, cfg.StorageBackend)
	assert.Equal(t, "https://s3.example.com", cfg.S3BaseEndpoint)
	assert.Equal(t, "profiles", cfg.S3Bucket)
	assert.Equal(t, "AKIA", cfg.S3RootUser)
	assert.Equal(t, "shh", cfg.S3RootPassword)
	assert.Equal(t, "https://cdn.example.com", cfg.S3PublicBaseURL)
	assert.False(t, cfg.S3UsePathStyle)
	assert.Equal(t, "jwt", cfg.SecretKey)
	assert.Equal(t, 2*time.Hour, cfg.TokenValidityDuration)
	assert.Equal(t, 24*time.Hour, cfg.SessionValidityDuration)
	assert.Equal(t, 87600*time.Hour, cfg.SignedURLValidityDuration)
	assert.Equal(t, 10*time.Second, cfg.StorageTimeout)
	assert.Equal(t, 2, cfg.MaxParallelUploads)
	assert.Equal(t, ":8080", cfg.EndpointAddr, "unset vars keep defaults")
}

func Test_parseEnv_Errors(t *testing.T) {
	for _, env := range []map[string]string{
		{"TOKEN_TTL": "forever"},
		{"MAX_PARALLEL_UPLOADS": "many"},
		{"S3_USE_PATH_STYLE": "maybe"},
	} {
		require.Error(t, parseEnv(&Config{}, mapLookup(env)), "%v", env)
	}
}

func Test_parseEnv_NilLookup(t *testing.T) {
	cfg := &Config{SecretKey: "keep"}
	require.NoError(t, parseEnv(cfg, nil))
	assert.Equal(t, "keep", cfg.SecretKey)
}
