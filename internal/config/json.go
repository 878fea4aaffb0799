package config

import (
	"encoding/json"
	"os"

	"github.com/dkravchenko/patienthub/internal/flagx"
	"github.com/dkravchenko/patienthub/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. It uses timex.Duration for interval fields, which
// allows parsing both string values such as "15m" and integer nanoseconds.
// After unmarshalling, non-empty fields are copied into the runtime Config.
type JsonConfig struct {
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	SignedURLValidityDuration    timex.Duration `json:"signed_url_validity_duration"`
	PublicBaseURL                string         `json:"public_base_url"`
	RequireEmailConfirmation     bool           `json:"require_email_confirmation"`
	MaxUploadSizeBytes           int64          `json:"max_upload_size_bytes"`
	SweepInterval                timex.Duration `json:"sweep_interval"`
	SweepGracePeriod             timex.Duration `json:"sweep_grace_period"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config. The file path is taken from the -c or -config command-line flags;
// when neither is set, no JSON file is loaded. The file must be readable
// and contain valid JSON, otherwise the function panics. Zero-valued fields
// in the file leave the corresponding Config fields untouched.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.SignedURLValidityDuration.Duration != 0 {
		config.SignedURLValidityDuration = c.SignedURLValidityDuration.Duration
	}
	if c.PublicBaseURL != "" {
		config.PublicBaseURL = c.PublicBaseURL
	}
	if c.RequireEmailConfirmation {
		config.RequireEmailConfirmation = true
	}
	if c.MaxUploadSizeBytes != 0 {
		config.MaxUploadSizeBytes = c.MaxUploadSizeBytes
	}
	if c.SweepInterval.Duration != 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.SweepGracePeriod.Duration != 0 {
		config.SweepGracePeriod = c.SweepGracePeriod.Duration
	}
}
