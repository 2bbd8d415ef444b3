package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "FOODGRAM_"

// dotenvFile is read before looking at the environment. Variables already
// set in the process environment win over the file.
var dotenvFile = ".env"

// parseEnv overlays FOODGRAM_* environment variables, e.g.
// FOODGRAM_DATABASE_DSN or FOODGRAM_ACCESS_TOKEN_VALIDITY_DURATION=24h.
func parseEnv(config *Config) error {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	lookup := func(key string) (string, bool) {
		v, ok := os.LookupEnv(envPrefix + key)
		return v, ok && v != ""
	}

	strs := map[string]*string{
		"ENDPOINT_ADDR_HTTP": &config.EndpointAddrHTTP,
		"DATABASE_DSN":       &config.DatabaseDSN,
		"SECRET_KEY":         &config.SecretKey,
		"S3_ROOT_USER":       &config.S3RootUser,
		"S3_ROOT_PASSWORD":   &config.S3RootPassword,
		"S3_BUCKET":          &config.S3Bucket,
		"S3_REGION":          &config.S3Region,
		"S3_BASE_ENDPOINT":   &config.S3BaseEndpoint,
		"LOG_LEVEL":          &config.LogLevel,
		"LOG_BACKEND":        &config.LogBackend,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PAGE_SIZE":       &config.PageSize,
		"AUTH_RATE_LIMIT": &config.AuthRateLimit,
		"TAG_CACHE_SIZE":  &config.TagCacheSize,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.New(envPrefix + key + ": " + err.Error())
			}
			*dst = n
		}
	}

	if v, ok := lookup("ACCESS_TOKEN_VALIDITY_DURATION"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New(envPrefix + "ACCESS_TOKEN_VALIDITY_DURATION: " + err.Error())
		}
		config.AccessTokenValidityDuration = d
	}

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
