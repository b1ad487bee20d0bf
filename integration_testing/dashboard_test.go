//go:build integration_test || all_tests

package integration_testing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/activitystats/internal/analytics"
	"github.com/2beens/activitystats/internal/dashboard"
	pkgtesting "github.com/2beens/activitystats/pkg/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) do(ctx context.Context, method, path, body string) (int, []byte) {
	t := s.T()

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Origin", testAllowedOrigin)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) TestDashboardFlow() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(time.RFC3339)
	ingestBody := fmt.Sprintf(`[{"json":{},"Activities":[
		{"Name":"Easy","Type":"Run","Distance":"=8.0","Moving Time":"=44","Average Heart Rate":"=142","Average Pace":"5:30","Date":%q},
		{"Name":"Commute","Type":"Ride","Distance":12.3,"Date":%q},
		{"Name":"Laps","Type":"Swim","Distance":1.5}
	]}]`, yesterday, yesterday)

	status, body := s.do(ctx, http.MethodPost, "/n8n", ingestBody)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.JSONEq(t, `{"ok":true}`, string(body))

	// the stored row is exactly the ingested list
	var stored []byte
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT data FROM activity_snapshot WHERE id = 1`).Scan(&stored))
	var storedSnap struct {
		Activities []map[string]any `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(stored, &storedSnap))
	require.Len(t, storedSnap.Activities, 3)
	assert.Equal(t, "=8.0", storedSnap.Activities[0]["Distance"])

	status, body = s.do(ctx, http.MethodGet, "/latest", "")
	require.Equal(t, http.StatusOK, status)
	var latest dashboard.LatestResponse
	require.NoError(t, json.Unmarshal(body, &latest))
	require.Len(t, latest.Data.Activities, 3)
	assert.Equal(t, "Easy", latest.Data.Activities[0]["Name"])

	status, body = s.do(ctx, http.MethodGet, "/activities/counts", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t,
		`{"counts":{"Run":1,"Hike":0,"Walk":0,"Swim":1,"Ride":1},"types":["Run","Hike","Walk","Swim","Ride"]}`,
		string(body),
	)

	status, body = s.do(ctx, http.MethodGet, "/activities/run/history", "")
	require.Equal(t, http.StatusOK, status)
	var history dashboard.HistoryResponse
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history.Activities, 1)
	assert.Equal(t, "Yesterday", history.Activities[0].When)
	assert.Equal(t, 8.0, history.Activities[0].Activity["Distance"])

	status, body = s.do(ctx, http.MethodGet, "/activities/Run/analytics", "")
	require.Equal(t, http.StatusOK, status)
	var metrics analytics.Metrics
	require.NoError(t, json.Unmarshal(body, &metrics))
	assert.Equal(t, 1, metrics.Count)
	require.Len(t, metrics.WeeklyVolume, 1)
	assert.Equal(t, 8.0, metrics.WeeklyVolume[0].Distance)
	require.Len(t, metrics.PaceTrend, 1)
	assert.Equal(t, "5:30", metrics.PaceTrend[0].PaceDisplay)
	assert.GreaterOrEqual(t, metrics.Streak, 1)

	status, _ = s.do(ctx, http.MethodGet, "/activities/yoga/history", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(ctx, http.MethodPost, "/n8n", "not json")
	assert.Equal(t, http.StatusBadRequest, status)

	// metrics server
	resp, err := s.httpClient.Get(fmt.Sprintf("http://%s:%s/metrics", serverHost, testPrometheusPort))
	require.NoError(t, err)
	defer resp.Body.Close()
	metricsBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(metricsBody), "backend_activitystats_stored_activities 3")
	assert.Contains(t, string(metricsBody), "pgxpool_")
}

func (s *IntegrationTestSuite) TestIngestRateLimit() {
	t := s.T()

	ctx, rdb := pkgtesting.GetRedisClientAndCtx(t, s.redisPort)
	// start from a fresh budget, earlier tests spent some of it
	require.NoError(t, rdb.FlushAll(ctx).Err())

	for i := 0; i < testIngestPerMin; i++ {
		status, body := s.do(ctx, http.MethodPost, "/n8n", `{"Activities":[]}`)
		require.Equal(t, http.StatusOK, status, "request %d: %s", i, body)
	}

	status, body := s.do(ctx, http.MethodPost, "/n8n", `{"Activities":[]}`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, string(body), "retry after")

	// reads are not limited
	status, _ = s.do(ctx, http.MethodGet, "/latest", "")
	assert.Equal(t, http.StatusOK, status)
}
