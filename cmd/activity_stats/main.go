package main

//// CLI printing the analytics panel of one activity type as plain text.
//// Reads the same source the dashboard reads, either a remote JSON resource or a local snapshot file.

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/2beens/activitystats/internal/activities"
	"github.com/2beens/activitystats/internal/analytics"
	"github.com/2beens/activitystats/internal/config"
	"github.com/2beens/activitystats/internal/snapshot"
	"github.com/2beens/activitystats/internal/source"

	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment, used with -config")
	configPath := flag.String("config", "", "optional TOML config file to take defaults from")
	sourceURL := flag.String("url", "", "remote source returning {\"activities\": [...]}")
	snapshotPath := flag.String("snapshot", "", "local snapshot file, used when no url is given")
	typeName := flag.String("type", "Run", "activity type [Run | Hike | Walk | Swim | Ride]")
	timezone := flag.String("tz", "", "IANA time zone used for weeks and dates")
	maxHeartRate := flag.Float64("max-hr", 0, "max heart rate for intensity zones")
	flag.Parse()

	cfg := &config.Config{
		Timezone:     "UTC",
		MaxHeartRate: analytics.DefaultMaxHeartRate,
		SnapshotPath: "./data/latest.json",
	}
	if *configPath != "" {
		loaded, err := config.Load(*env, *configPath)
		if err != nil {
			log.Fatalf("load config: %s", err)
		}
		cfg = loaded
	}
	if *sourceURL != "" {
		cfg.DashboardSourceURL = *sourceURL
	}
	if *snapshotPath != "" {
		cfg.SnapshotPath = *snapshotPath
	}
	if *timezone != "" {
		cfg.Timezone = *timezone
	}
	if *maxHeartRate > 0 {
		cfg.MaxHeartRate = *maxHeartRate
	}

	typ, err := activities.ParseType(*typeName)
	if err != nil {
		log.Fatal(err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("time zone [%s]: %s", cfg.Timezone, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := loadRecords(ctx, cfg)
	if err != nil {
		log.Fatalf("load activities: %s", err)
	}

	analyzer := analytics.NewAnalyzer(cfg.MaxHeartRate, loc, nil)
	writeReport(os.Stdout, activities.CountByType(records), analyzer.DeriveForType(records, typ))
}

func loadRecords(ctx context.Context, cfg *config.Config) ([]activities.Record, error) {
	if cfg.DashboardSourceURL != "" {
		log.Debugf("reading activities from [%s]", cfg.DashboardSourceURL)
		return source.NewClient(cfg.DashboardSourceURL, nil).Activities(ctx)
	}

	log.Debugf("reading activities from [%s]", cfg.SnapshotPath)
	snap, err := snapshot.NewDiskStore(cfg.SnapshotPath).Load(ctx)
	if errors.Is(err, snapshot.ErrNotFound) {
		log.Warnf("no snapshot at [%s] yet, reporting an empty list", cfg.SnapshotPath)
		return []activities.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return snap.Activities, nil
}

func writeReport(w io.Writer, counts map[activities.Type]int, m analytics.Metrics) {
	fmt.Fprintln(w, "Activities")
	for _, t := range activities.AllTypes {
		fmt.Fprintf(w, "  %-5s %d\n", t, counts[t])
	}

	fmt.Fprintf(w, "\n%s: %d activities, weekly streak %d\n", m.Type, m.Count, m.Streak)

	fmt.Fprintln(w, "\nWeekly volume (km)")
	if len(m.WeeklyVolume) == 0 {
		fmt.Fprintln(w, "  -")
	}
	for _, wv := range m.WeeklyVolume {
		fmt.Fprintf(w, "  %-7s %7.2f %s\n", wv.Label, wv.Distance, bar(wv.Distance))
	}

	fmt.Fprintln(w, "\nPace trend")
	if len(m.PaceTrend) == 0 {
		fmt.Fprintln(w, "  -")
	}
	for _, p := range m.PaceTrend {
		fmt.Fprintf(w, "  %-7s %s /km\n", p.Date, p.PaceDisplay)
	}

	writeBuckets(w, "Intensity", m.Intensity)
	writeBuckets(w, "Distance distribution", m.DistanceDistribution)
}

func writeBuckets(w io.Writer, title string, buckets []analytics.Bucket) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(buckets) == 0 {
		fmt.Fprintln(w, "  -")
	}
	for _, b := range buckets {
		fmt.Fprintf(w, "  %-12s %d\n", b.Label, b.Count)
	}
}

// one block per 5 km, capped so a long ride does not wrap the line
func bar(km float64) string {
	n := int(km / 5)
	if n < 0 {
		n = 0
	}
	if n > 40 {
		n = 40
	}
	return strings.Repeat("#", n)
}
