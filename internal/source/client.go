package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/activitystats/internal/activities"
	"github.com/2beens/activitystats/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// max accepted response body
const maxBodyBytes = 32 << 20

// Client fetches the activity list the dashboard is rendered from: a remote
// JSON document of the persisted snapshot shape, {"activities": [...]}.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient returns a client for url. A nil httpClient gets a traced default.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		url:        url,
		httpClient: httpClient,
	}
}

func (c *Client) URL() string {
	return c.url
}

// Activities always bypasses caches on the way.
func (c *Client) Activities(ctx context.Context) (_ []activities.Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "source.activities")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("url", c.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get activities: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get activities: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read activities body: %w", err)
	}

	var doc struct {
		Activities json.RawMessage `json:"activities"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}

	records, skipped, err := activities.DecodeList(doc.Activities)
	if err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	if skipped > 0 {
		log.Warnf("source: skipped %d non-object activities from %s", skipped, c.url)
	}
	span.SetAttributes(attribute.Int("activities", len(records)))

	return records, nil
}
