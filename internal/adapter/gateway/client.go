// Package gateway submits processed W2 documents to the external filing
// partner. Both endpoints are terminal per attempt, the caller records the
// outcome instead of retrying through the queue.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taxdoc/apps/processor/internal/extract"
)

// ErrCredentialUnavailable marks a submission that never left the process
// because the partner credential could not be resolved.
var ErrCredentialUnavailable = errors.New("external api credential unavailable")

// ErrUpstream marks a response from the partner that was not 201 Created.
var ErrUpstream = errors.New("external api rejected request")

// SecretResolver yields the bearer token for the partner API. Resolution
// happens per request so a rotated secret takes effect without a restart.
type SecretResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// StaticSecret resolves to a fixed token, for local runs and tests.
type StaticSecret string

func (s StaticSecret) Resolve(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("empty static secret")
	}
	return string(s), nil
}

type Client struct {
	baseURL string
	secrets SecretResolver
	client  *http.Client
}

func NewClient(baseURL string, secrets SecretResolver, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secrets: secrets,
		client:  &http.Client{Timeout: timeout},
	}
}

// SubmitUpload registers the stored document with the partner and returns
// the partner's file id.
func (c *Client) SubmitUpload(ctx context.Context, s3URL, jobID string) (string, error) {
	payload := map[string]string{
		"s3_url": s3URL,
		"job_id": jobID,
	}

	var result struct {
		FileID string `json:"file_id"`
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/external/file-upload", payload, &result); err != nil {
		return "", err
	}
	return result.FileID, nil
}

// SubmitData files the extracted form values and returns the partner's
// report id and file id.
func (c *Client) SubmitData(ctx context.Context, fields *extract.W2Fields, jobID string) (string, string, error) {
	payload := map[string]interface{}{
		"w2_data": fields,
		"job_id":  jobID,
	}

	var result struct {
		ReportID string `json:"report_id"`
		FileID   string `json:"file_id"`
	}
	if err := c.post(ctx, "/external/data-update", payload, &result); err != nil {
		return "", "", err
	}
	return result.ReportID, result.FileID, nil
}

func (c *Client) post(ctx context.Context, path string, payload, result interface{}) error {
	token, err := c.secrets.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("external api unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d %s", ErrUpstream, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}
