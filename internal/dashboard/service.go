package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/activitystats/internal/activities"
	"github.com/2beens/activitystats/internal/analytics"
	"github.com/2beens/activitystats/internal/snapshot"
	"github.com/2beens/activitystats/internal/telemetry/metrics"
	"github.com/2beens/activitystats/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=dashboard_test

type snapshotStore interface {
	Load(ctx context.Context) (snapshot.Snapshot, error)
	Save(ctx context.Context, s snapshot.Snapshot) error
}

type activitySource interface {
	Activities(ctx context.Context) ([]activities.Record, error)
}

const (
	analyticsCacheSize = 10 * 1024 * 1024
	defaultCacheTTL    = 5 * time.Minute

	fallbackReasonRead    = "read_error"
	fallbackReasonCorrupt = "corrupt"
	fallbackReasonSource  = "source_error"
)

type HistoryItem struct {
	Activity activities.Record `json:"activity"`
	When     string            `json:"when"`
}

type Service struct {
	store          snapshotStore
	source         activitySource
	analyzer       *analytics.Analyzer
	cache          *freecache.Cache
	cacheTTL       time.Duration
	// generation is bumped on every ingest, analytics derived from an older
	// snapshot are not cached. cacheMu orders bump + clear against check + set.
	cacheMu        sync.Mutex
	generation     uint64
	metricsManager *metrics.Manager
}

type NewServiceParams struct {
	Store snapshotStore
	// Source, when set, replaces the local store as the dashboard data source.
	Source         activitySource
	Analyzer       *analytics.Analyzer
	CacheTTL       time.Duration
	MetricsManager *metrics.Manager
}

func NewService(params NewServiceParams) *Service {
	analyzer := params.Analyzer
	if analyzer == nil {
		analyzer = analytics.NewAnalyzer(analytics.DefaultMaxHeartRate, time.UTC, nil)
	}
	cacheTTL := params.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	metricsManager := params.MetricsManager
	if metricsManager == nil {
		metricsManager = metrics.NewTestManager()
	}

	return &Service{
		store:          params.Store,
		source:         params.Source,
		analyzer:       analyzer,
		cache:          freecache.NewCache(analyticsCacheSize),
		cacheTTL:       cacheTTL,
		metricsManager: metricsManager,
	}
}

// Ingest replaces the persisted snapshot with records.
func (s *Service) Ingest(ctx context.Context, records []activities.Record) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.dashboard.ingest")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("activities", len(records)))

	if records == nil {
		records = []activities.Record{}
	}
	if err := s.store.Save(ctx, snapshot.Snapshot{Activities: records}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.cacheMu.Lock()
	s.generation++
	s.cache.Clear()
	s.cacheMu.Unlock()
	s.metricsManager.CounterIngests.Inc()
	s.metricsManager.GaugeStoredActivities.Set(float64(len(records)))
	log.Debugf("ingested snapshot with %d activities", len(records))

	return nil
}

// Latest returns the persisted snapshot. A missing or unreadable snapshot
// is reported as an empty one.
func (s *Service) Latest(ctx context.Context) snapshot.Snapshot {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.dashboard.latest")
	defer span.End()

	snap, err := s.store.Load(ctx)
	switch {
	case err == nil:
		if snap.Activities == nil {
			snap.Activities = []activities.Record{}
		}
		return snap
	case errors.Is(err, snapshot.ErrNotFound):
		log.Tracef("no snapshot stored yet")
	default:
		reason := fallbackReasonRead
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			reason = fallbackReasonCorrupt
		}
		log.Errorf("load snapshot, falling back to empty list: %s", err)
		span.RecordError(err)
		s.metricsManager.CounterSnapshotReadFallbacks.WithLabelValues(reason).Inc()
	}

	return snapshot.Empty()
}

// Records returns the raw activity list the dashboard renders: fetched from
// the remote source when one is configured, the local snapshot otherwise.
func (s *Service) Records(ctx context.Context) []activities.Record {
	if s.source == nil {
		return s.Latest(ctx).Activities
	}

	records, err := s.source.Activities(ctx)
	if err != nil {
		log.Errorf("fetch activities from source, falling back to empty list: %s", err)
		s.metricsManager.CounterSnapshotReadFallbacks.WithLabelValues(fallbackReasonSource).Inc()
		return []activities.Record{}
	}
	return records
}

func (s *Service) Counts(ctx context.Context) map[activities.Type]int {
	return activities.CountByType(s.Records(ctx))
}

// History lists the normalized activities of typ in stored order.
func (s *Service) History(ctx context.Context, typ activities.Type) []HistoryItem {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.dashboard.history")
	defer span.End()
	span.SetAttributes(attribute.String("type", string(typ)))

	loc := s.analyzer.Location()
	now := s.analyzer.Now()

	filtered := activities.FilterByType(s.Records(ctx), typ)
	items := make([]HistoryItem, 0, len(filtered))
	for _, r := range filtered {
		normalized := activities.NormalizeRecord(r)
		item := HistoryItem{Activity: normalized}
		if act := activities.FromRecord(normalized, loc); act.Date != nil {
			item.When = analytics.RelativeDay(*act.Date, now, loc)
		}
		items = append(items, item)
	}
	return items
}

// Analytics returns the JSON encoded metrics of typ. Results are cached
// until the next ingest or the cache TTL, whichever comes first.
func (s *Service) Analytics(ctx context.Context, typ activities.Type) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.dashboard.analytics")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("type", string(typ)))

	cacheKey := []byte("analytics::" + string(typ))
	if cached, err := s.cache.Get(cacheKey); err == nil {
		s.metricsManager.CounterAnalyticsCache.WithLabelValues("hit").Inc()
		span.SetAttributes(attribute.Bool("cached", true))
		return cached, nil
	}
	s.metricsManager.CounterAnalyticsCache.WithLabelValues("miss").Inc()

	s.cacheMu.Lock()
	generation := s.generation
	s.cacheMu.Unlock()

	derived := s.analyzer.DeriveForType(s.Records(ctx), typ)
	metricsJson, err := json.Marshal(derived)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation != generation {
		// an ingest finished while deriving
		log.Debugf("analytics [%s] derived from a replaced snapshot, not cached", typ)
		return metricsJson, nil
	}
	if err := s.cache.Set(cacheKey, metricsJson, int(s.cacheTTL.Seconds())); err != nil {
		log.Warnf("cache analytics [%s]: %s", typ, err)
	}
	return metricsJson, nil
}
