// Package jobapi talks to the job record service that owns W2Job rows.
// The processor never writes the jobs table directly, every state change
// goes through a partial update here.
package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taxdoc/apps/processor/internal/worker"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Update sends only the fields set on u, so repeated deliveries of the same
// event converge on the same record instead of clobbering other flags.
func (c *Client) Update(ctx context.Context, jobID string, u worker.JobUpdate) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode job update: %w", err)
	}

	url := fmt.Sprintf("%s/jobs/%s/", c.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("job api unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("job api error for %s: %d %s", jobID, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}
