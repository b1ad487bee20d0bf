package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/2beens/activitystats/internal/activities"
	"github.com/2beens/activitystats/internal/analytics"
	"github.com/2beens/activitystats/internal/dashboard"
	"github.com/2beens/activitystats/internal/snapshot"
	"github.com/2beens/activitystats/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// wednesday
var testNow = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

func testAnalyzer() *analytics.Analyzer {
	return analytics.NewAnalyzer(195, time.UTC, func() time.Time { return testNow })
}

func TestService_IngestAndLatest(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	store := snapshot.NewDiskStore(filepath.Join(t.TempDir(), "latest.json"))
	service := dashboard.NewService(dashboard.NewServiceParams{
		Store:          store,
		Analyzer:       testAnalyzer(),
		MetricsManager: metricsManager,
	})
	ctx := context.Background()

	// nothing ingested yet
	latest := service.Latest(ctx)
	assert.NotNil(t, latest.Activities)
	assert.Empty(t, latest.Activities)

	require.NoError(t, service.Ingest(ctx, []activities.Record{{"Type": "Run"}, {"Type": "Hike"}}))
	latest = service.Latest(ctx)
	assert.Equal(t, []activities.Record{{"Type": "Run"}, {"Type": "Hike"}}, latest.Activities)

	// full overwrite, no merge
	require.NoError(t, service.Ingest(ctx, nil))
	assert.Empty(t, service.Latest(ctx).Activities)

	assert.Equal(t, float64(2), testutil.ToFloat64(metricsManager.CounterIngests))
	assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.GaugeStoredActivities))
}

func TestService_Latest_Fallbacks(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMocksnapshotStore(ctrl)
	metricsManager := metrics.NewTestManager()
	service := dashboard.NewService(dashboard.NewServiceParams{
		Store:          store,
		MetricsManager: metricsManager,
	})
	ctx := context.Background()

	var syntaxErr error = &json.SyntaxError{Offset: 3}
	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).Return(snapshot.Snapshot{}, snapshot.ErrNotFound),
		store.EXPECT().Load(gomock.Any()).Return(snapshot.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", syntaxErr)),
		store.EXPECT().Load(gomock.Any()).Return(snapshot.Snapshot{}, errors.New("connection refused")),
		store.EXPECT().Load(gomock.Any()).Return(snapshot.Snapshot{}, nil),
	)

	for i := 0; i < 4; i++ {
		latest := service.Latest(ctx)
		assert.NotNil(t, latest.Activities)
		assert.Empty(t, latest.Activities)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterSnapshotReadFallbacks.WithLabelValues("corrupt")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterSnapshotReadFallbacks.WithLabelValues("read_error")))
}

func TestService_Ingest_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMocksnapshotStore(ctrl)
	metricsManager := metrics.NewTestManager()
	service := dashboard.NewService(dashboard.NewServiceParams{
		Store:          store,
		MetricsManager: metricsManager,
	})

	store.EXPECT().
		Save(gomock.Any(), snapshot.Snapshot{Activities: []activities.Record{{"Type": "Swim"}}}).
		Return(errors.New("disk full"))

	err := service.Ingest(context.Background(), []activities.Record{{"Type": "Swim"}})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.CounterIngests))
}

func TestService_CountsAndHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMocksnapshotStore(ctrl)
	service := dashboard.NewService(dashboard.NewServiceParams{
		Store:    store,
		Analyzer: testAnalyzer(),
	})
	ctx := context.Background()

	stored := snapshot.Snapshot{Activities: []activities.Record{
		{"Type": "Run", "Name": "Tempo", "Distance": "=8.456", "Date": "2026-10-14T07:00:00Z"},
		{"Type": "Ride", "Date": "2026-10-10"},
		{"Type": "Run", "Name": "Long", "Date": "2026-10-13T07:00:00Z"},
		{"Type": "Run", "Name": "Old", "Date": "2026-09-01T07:00:00Z"},
		{"Type": "Run", "Name": "Undated"},
		{"Type": "Yoga"},
	}}
	store.EXPECT().Load(gomock.Any()).Return(stored, nil).Times(2)

	counts := service.Counts(ctx)
	assert.Equal(t, map[activities.Type]int{
		activities.TypeRun:  4,
		activities.TypeHike: 0,
		activities.TypeWalk: 0,
		activities.TypeSwim: 0,
		activities.TypeRide: 1,
	}, counts)

	history := service.History(ctx, activities.TypeRun)
	require.Len(t, history, 4)
	assert.Equal(t, "Tempo", history[0].Activity["Name"])
	assert.Equal(t, 8.46, history[0].Activity["Distance"])
	assert.Equal(t, "Today", history[0].When)
	assert.Equal(t, "Yesterday", history[1].When)
	assert.Equal(t, "Sep 1, 2026", history[2].When)
	assert.Equal(t, "", history[3].When)

	// stored records are not touched by normalization
	assert.Equal(t, "=8.456", stored.Activities[0]["Distance"])
}

func TestService_Analytics_CacheInvalidatedByIngest(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMocksnapshotStore(ctrl)
	metricsManager := metrics.NewTestManager()
	service := dashboard.NewService(dashboard.NewServiceParams{
		Store:          store,
		Analyzer:       testAnalyzer(),
		CacheTTL:       time.Hour,
		MetricsManager: metricsManager,
	})
	ctx := context.Background()

	first := snapshot.Snapshot{Activities: []activities.Record{
		{"Type": "Run", "Distance": 4.0, "Date": "2026-10-12T07:00:00Z", "Average Heart Rate": 150.0},
	}}
	second := snapshot.Snapshot{Activities: []activities.Record{
		{"Type": "Run", "Distance": 12.0, "Date": "2026-10-12T07:00:00Z"},
		{"Type": "Run", "Distance": 6.0, "Date": "2026-10-13T07:00:00Z"},
	}}
	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).Return(first, nil),
		store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil),
		store.EXPECT().Load(gomock.Any()).Return(second, nil),
	)

	decode := func(data []byte) analytics.Metrics {
		var m analytics.Metrics
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	data, err := service.Analytics(ctx, activities.TypeRun)
	require.NoError(t, err)
	m := decode(data)
	assert.Equal(t, 1, m.Count)
	assert.Equal(t, []analytics.Bucket{{Label: analytics.IntensityTempo, Count: 1}}, m.Intensity)
	assert.Equal(t, 1, m.Streak)

	// served from cache, no second Load
	cached, err := service.Analytics(ctx, activities.TypeRun)
	require.NoError(t, err)
	assert.Equal(t, data, cached)

	require.NoError(t, service.Ingest(ctx, second.Activities))

	data, err = service.Analytics(ctx, activities.TypeRun)
	require.NoError(t, err)
	m = decode(data)
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, []analytics.WeekVolume{{WeekStart: "2026-10-12", Label: "Oct 12", Distance: 18}}, m.WeeklyVolume)
	assert.Equal(t, []analytics.Bucket{
		{Label: analytics.DistanceMedium, Count: 1},
		{Label: analytics.DistanceLong, Count: 1},
	}, m.DistanceDistribution)
	assert.Equal(t, 2, m.Streak)

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterAnalyticsCache.WithLabelValues("hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metricsManager.CounterAnalyticsCache.WithLabelValues("miss")))
}

func TestService_Analytics_InFlightDeriveNotCachedAfterIngest(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMocksnapshotStore(ctrl)
	service := dashboard.NewService(dashboard.NewServiceParams{
		Store:    store,
		Analyzer: testAnalyzer(),
		CacheTTL: time.Hour,
	})
	ctx := context.Background()

	before := snapshot.Snapshot{Activities: []activities.Record{
		{"Type": "Run", "Distance": 4.0, "Date": "2026-10-12T07:00:00Z"},
	}}
	after := []activities.Record{
		{"Type": "Run", "Distance": 12.0, "Date": "2026-10-12T07:00:00Z"},
		{"Type": "Run", "Distance": 6.0, "Date": "2026-10-13T07:00:00Z"},
	}

	loadStarted := make(chan struct{})
	releaseLoad := make(chan struct{})
	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).DoAndReturn(func(context.Context) (snapshot.Snapshot, error) {
			close(loadStarted)
			<-releaseLoad
			return before, nil
		}),
		store.EXPECT().Save(gomock.Any(), snapshot.Snapshot{Activities: after}).Return(nil),
		store.EXPECT().Load(gomock.Any()).Return(snapshot.Snapshot{Activities: after}, nil),
	)

	countOf := func(data []byte) int {
		var m analytics.Metrics
		require.NoError(t, json.Unmarshal(data, &m))
		return m.Count
	}

	inFlight := make(chan []byte, 1)
	go func() {
		data, err := service.Analytics(ctx, activities.TypeRun)
		assert.NoError(t, err)
		inFlight <- data
	}()

	<-loadStarted
	require.NoError(t, service.Ingest(ctx, after))
	close(releaseLoad)

	// the request that started before the ingest still sees the old list
	assert.Equal(t, 1, countOf(<-inFlight))

	data, err := service.Analytics(ctx, activities.TypeRun)
	require.NoError(t, err)
	assert.Equal(t, 2, countOf(data))
}

func TestService_RemoteSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMocksnapshotStore(ctrl)
	source := NewMockactivitySource(ctrl)
	metricsManager := metrics.NewTestManager()
	service := dashboard.NewService(dashboard.NewServiceParams{
		Store:          store,
		Source:         source,
		Analyzer:       testAnalyzer(),
		MetricsManager: metricsManager,
	})
	ctx := context.Background()

	gomock.InOrder(
		source.EXPECT().Activities(gomock.Any()).Return([]activities.Record{{"Type": "Walk"}, {"Type": "Walk"}}, nil),
		source.EXPECT().Activities(gomock.Any()).Return(nil, errors.New("503")),
	)

	assert.Equal(t, 2, service.Counts(ctx)[activities.TypeWalk])
	assert.Equal(t, 0, service.Counts(ctx)[activities.TypeWalk])
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterSnapshotReadFallbacks.WithLabelValues("source_error")))
}
