package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"taxdoc/apps/processor/internal/adapter/gateway"
	"taxdoc/apps/processor/internal/config"
)

type nopFetcher struct{}

func (nopFetcher) Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(topic string, body []byte) error { return nil }

func TestNew(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	cfg := &config.Config{
		JobAPIBaseURL:      "http://backend:8000",
		ExternalAPIBaseURL: "http://external-api:8080",
		UploadPrefix:       "uploads",
		HTTPTimeoutSeconds: 10,
		AuditLogPath:       t.TempDir() + "/pipeline.log",
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	app, err := New(cfg, db, nopFetcher{}, gateway.StaticSecret("tok"), nopPublisher{}, logger)
	assert.NoError(t, err)
	assert.NotNil(t, app)
	assert.NotNil(t, app.Handler)
	assert.NotNil(t, app.Dispatcher)

	// Verify Routes
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	app.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/events/failed", nil)
	w = httptest.NewRecorder()
	app.Handler.ServeHTTP(w, req)
	// sqlmock has no expectation set, the list query fails server-side
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
