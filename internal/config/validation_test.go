package config_test

import (
	"errors"
	"testing"

	"taxdoc/apps/processor/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	valid := config.Config{
		DBHost:             "localhost",
		DBUser:             "user",
		DBName:             "db",
		JobAPIBaseURL:      "http://backend:8000",
		ExternalAPIBaseURL: "http://external-api:8080",
		ExternalAPISecret:  "external-api/token",
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{
			name:    "Valid Config",
			mutate:  func(c *config.Config) {},
			wantErr: false,
		},
		{
			name:    "Missing DBHost",
			mutate:  func(c *config.Config) { c.DBHost = "" },
			wantErr: true,
		},
		{
			name:    "Missing DBUser",
			mutate:  func(c *config.Config) { c.DBUser = "" },
			wantErr: true,
		},
		{
			name:    "Missing JobAPIBaseURL",
			mutate:  func(c *config.Config) { c.JobAPIBaseURL = "" },
			wantErr: true,
		},
		{
			name:    "Missing ExternalAPIBaseURL",
			mutate:  func(c *config.Config) { c.ExternalAPIBaseURL = "" },
			wantErr: true,
		},
		{
			name:    "Missing ExternalAPISecret",
			mutate:  func(c *config.Config) { c.ExternalAPISecret = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, config.ErrMissingRequired))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
