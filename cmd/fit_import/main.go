package main

//// Small CLI tool used to push activities recorded as FIT files (watch / bike computer exports)
//// to the activitystats ingest endpoint, the same way the n8n workflow does.

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/2beens/activitystats/internal/activities"
	"github.com/2beens/activitystats/internal/fitimport"

	log "github.com/sirupsen/logrus"
)

type ingestBody struct {
	Activities []activities.Record `json:"Activities"`
}

func main() {
	ingestURL := flag.String("url", "http://localhost:9000/n8n", "activitystats ingest endpoint")
	dryRun := flag.Bool("dry-run", false, "print the ingest body instead of sending it")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.fit [file.fit ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	records, failed := readFiles(flag.Args())
	if len(records) == 0 {
		log.Fatalf("no activities read from %d file(s)", flag.NArg())
	}
	log.Infof("read %d activities, %d file(s) failed", len(records), failed)

	body, err := json.MarshalIndent(ingestBody{Activities: records}, "", "  ")
	if err != nil {
		log.Fatalf("marshal ingest body: %s", err)
	}

	if *dryRun {
		fmt.Println(string(body))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postActivities(ctx, http.DefaultClient, *ingestURL, body); err != nil {
		log.Fatalf("ingest: %s", err)
	}
	log.Infof("ingested %d activities to [%s]", len(records), *ingestURL)
}

func readFiles(paths []string) ([]activities.Record, int) {
	records := make([]activities.Record, 0, len(paths))
	failed := 0
	for _, path := range paths {
		record, err := fitimport.FromFile(path)
		if err != nil {
			log.Errorf("skipping [%s]: %s", path, err)
			failed++
			continue
		}
		log.Debugf("+++ [%s]: %v", path, record)
		records = append(records, record)
	}
	return records, failed
}

func postActivities(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}
	return nil
}
