package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/foodgram/internal/flagx"
	"github.com/dmitrijs2005/foodgram/internal/timex"
	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
)

// FileConfig is the on-disk shape of the configuration. Zero values leave
// the corresponding Config field untouched, so a file may set only a few keys.
type FileConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http" toml:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn" toml:"database_dsn"`
	SecretKey                   string         `json:"secret_key" toml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" toml:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user" toml:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password" toml:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket" toml:"s3_bucket"`
	S3Region                    string         `json:"s3_region" toml:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint" toml:"s3_base_endpoint"`
	PageSize                    int            `json:"page_size" toml:"page_size"`
	LogLevel                    string         `json:"log_level" toml:"log_level"`
	LogBackend                  string         `json:"log_backend" toml:"log_backend"`
	CORSAllowedOrigins          []string       `json:"cors_allowed_origins" toml:"cors_allowed_origins"`
	AuthRateLimit               int            `json:"auth_rate_limit" toml:"auth_rate_limit"`
	TagCacheSize                int            `json:"tag_cache_size" toml:"tag_cache_size"`
}

// parseFile loads the file named by -c/-config, if any. Files ending in
// .toml are decoded as TOML, everything else as JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := &FileConfig{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, fc)
	} else {
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return err
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.SecretKey, fc.SecretKey)
	if fc.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	setString(&config.S3RootUser, fc.S3RootUser)
	setString(&config.S3RootPassword, fc.S3RootPassword)
	setString(&config.S3Bucket, fc.S3Bucket)
	setString(&config.S3Region, fc.S3Region)
	setString(&config.S3BaseEndpoint, fc.S3BaseEndpoint)
	setInt(&config.PageSize, fc.PageSize)
	setString(&config.LogLevel, fc.LogLevel)
	setString(&config.LogBackend, fc.LogBackend)
	if len(fc.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = fc.CORSAllowedOrigins
	}
	setInt(&config.AuthRateLimit, fc.AuthRateLimit)
	setInt(&config.TagCacheSize, fc.TagCacheSize)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
