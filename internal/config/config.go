package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"taxdoc"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"taxdoc"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	// Record-keeping API holding the job records.
	JobAPIBaseURL string `envconfig:"JOB_API_BASE_URL" default:"http://backend:8000"`

	// External ingestion APIs and the name of the bearer-token secret.
	ExternalAPIBaseURL string `envconfig:"EXTERNAL_API_BASE_URL" default:"http://external-api:8080"`
	ExternalAPISecret  string `envconfig:"EXTERNAL_API_SECRET" default:"external-api/token"`

	AWSRegion      string `envconfig:"AWS_DEFAULT_REGION" default:"us-east-1"`
	AWSEndpointURL string `envconfig:"AWS_ENDPOINT_URL"`

	// Object keys are expected as {UploadPrefix}/{job_id}/{filename}.
	UploadPrefix string `envconfig:"UPLOAD_PREFIX" default:"uploads"`

	Pdftotext string `envconfig:"PDFTOTEXT_BIN" default:"pdftotext"`
	Pdftk     string `envconfig:"PDFTK_BIN" default:"pdftk"`

	ServerPort         int    `envconfig:"SERVER_PORT" default:"8081"`
	HTTPTimeoutSeconds int    `envconfig:"HTTP_TIMEOUT_SECONDS" default:"10"`
	AuditLogPath       string `envconfig:"AUDIT_LOG_PATH" default:"data/logs/pipeline.log"`
	MigrationPath      string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	// Try finding root .env (assuming 2 levels up if in apps/processor)
	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.JobAPIBaseURL == "" {
		return fmt.Errorf("%w: JOB_API_BASE_URL", ErrMissingRequired)
	}
	if c.ExternalAPIBaseURL == "" {
		return fmt.Errorf("%w: EXTERNAL_API_BASE_URL", ErrMissingRequired)
	}
	if c.ExternalAPISecret == "" {
		return fmt.Errorf("%w: EXTERNAL_API_SECRET", ErrMissingRequired)
	}
	return nil
}
