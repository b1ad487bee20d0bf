package dashboard

import (
	"context"
	"io"
	"net/http"

	"github.com/2beens/activitystats/internal/activities"
	"github.com/2beens/activitystats/internal/middleware"
	"github.com/2beens/activitystats/internal/snapshot"
	"github.com/2beens/activitystats/internal/telemetry/metrics"
	"github.com/2beens/activitystats/internal/telemetry/tracing"
	"github.com/2beens/activitystats/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ingest bodies come from a spreadsheet export, 16MB is plenty
const maxIngestBodyBytes = 16 << 20

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=dashboard_test

type dashboardService interface {
	Ingest(ctx context.Context, records []activities.Record) error
	Latest(ctx context.Context) snapshot.Snapshot
	Counts(ctx context.Context) map[activities.Type]int
	History(ctx context.Context, typ activities.Type) []HistoryItem
	Analytics(ctx context.Context, typ activities.Type) ([]byte, error)
}

type IngestResponse struct {
	OK bool `json:"ok"`
}

type LatestResponse struct {
	Data snapshot.Snapshot `json:"data"`
}

type CountsResponse struct {
	Counts map[activities.Type]int `json:"counts"`
	Types  []activities.Type       `json:"types"`
}

type HistoryResponse struct {
	Type       activities.Type `json:"type"`
	Activities []HistoryItem   `json:"activities"`
}

type Handler struct {
	service dashboardService
}

func NewHandler(service dashboardService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	ingestAllowedPerMin int,
) {
	ingestRouter := router.PathPrefix("/n8n").Subrouter()
	ingestRouter.HandleFunc("", handler.HandleIngest).Methods("POST", "OPTIONS").Name("ingest")
	ingestRouter.Use(middleware.RateLimit(rateLimiter, "ingest", ingestAllowedPerMin, metricsManager))

	router.HandleFunc("/latest", handler.HandleLatest).Methods("GET", "OPTIONS").Name("latest")
	router.HandleFunc("/activities/counts", handler.HandleCounts).Methods("GET", "OPTIONS").Name("counts")
	router.HandleFunc("/activities/{type}/history", handler.HandleHistory).Methods("GET", "OPTIONS").Name("history")
	router.HandleFunc("/activities/{type}/analytics", handler.HandleAnalytics).Methods("GET", "OPTIONS").Name("analytics")
}

func (handler *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.ingest")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBodyBytes+1))
	if err != nil {
		log.Errorf("ingest, read body: %s", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxIngestBodyBytes {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}

	records, err := ExtractActivities(body)
	if err != nil {
		log.Tracef("ingest, extract activities: %s", err)
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("activities", len(records)))

	if err := handler.service.Ingest(ctx, records); err != nil {
		log.Errorf("ingest %d activities: %s", len(records), err)
		http.Error(w, "failed to store activities", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, IngestResponse{OK: true}, http.StatusOK)
}

func (handler *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.latest")
	defer span.End()

	snap := handler.service.Latest(ctx)
	span.SetAttributes(attribute.Int("activities", len(snap.Activities)))

	pkg.WriteJSON(w, LatestResponse{Data: snap}, http.StatusOK)
}

func (handler *Handler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.counts")
	defer span.End()

	pkg.WriteJSON(w, CountsResponse{
		Counts: handler.service.Counts(ctx),
		Types:  activities.AllTypes,
	}, http.StatusOK)
}

func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.history")
	defer span.End()

	typ, ok := typeFromPath(w, r)
	if !ok {
		return
	}

	pkg.WriteJSON(w, HistoryResponse{
		Type:       typ,
		Activities: handler.service.History(ctx, typ),
	}, http.StatusOK)
}

func (handler *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.analytics")
	defer span.End()

	typ, ok := typeFromPath(w, r)
	if !ok {
		return
	}

	metricsJson, err := handler.service.Analytics(ctx, typ)
	if err != nil {
		log.Errorf("analytics [%s]: %s", typ, err)
		http.Error(w, "failed to derive analytics", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, metricsJson, http.StatusOK)
}

func typeFromPath(w http.ResponseWriter, r *http.Request) (activities.Type, bool) {
	typ, err := activities.ParseType(mux.Vars(r)["type"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return typ, true
}

// compile time check
var _ dashboardService = (*Service)(nil)
