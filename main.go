package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/petar-nikolic125/hmo-finder-live/api"
	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/httputil"
	"github.com/petar-nikolic125/hmo-finder-live/logging"
	"github.com/petar-nikolic125/hmo-finder-live/models"
	"github.com/petar-nikolic125/hmo-finder-live/scheduler"
	"github.com/petar-nikolic125/hmo-finder-live/scraper"
	"github.com/petar-nikolic125/hmo-finder-live/storage"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <city> <min_bedrooms> <max_price> <keywords>

One-shot mode scrapes once and writes the result JSON array to stdout.
Pass keywords as "none" to search without keyword filtering.

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	serve := flag.Bool("serve", false, "run the JSON API server instead of a one-shot scrape")
	addr := flag.String("addr", "", "listen address for -serve (overrides ADDR)")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if _, err := logging.Setup(cfg.LogPath); err != nil {
		log.Printf("warning: log file unavailable: %v", err)
	}

	cities, err := config.LoadCities()
	if err != nil {
		log.Fatalf("cities: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	client := httputil.NewClient(cfg.Fetch.Timeout, cfg.Fetch.ProxyURL)
	pipeline := scraper.NewPipeline(cfg, cities, client, rng)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		if *addr != "" {
			cfg.Server.Addr = *addr
		}
		runServer(ctx, cfg, cities, pipeline)
		return
	}

	runOnce(ctx, cfg, pipeline)
}

func runOnce(ctx context.Context, cfg *config.Config, pipeline *scraper.Pipeline) {
	args := flag.Args()
	if len(args) != 4 {
		usage()
		os.Exit(2)
	}

	minBeds, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid min_bedrooms %q\n", args[1])
		usage()
		os.Exit(2)
	}
	maxPrice, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid max_price %q\n", args[2])
		usage()
		os.Exit(2)
	}

	q := models.SearchQuery{
		City:        args[0],
		MinBedrooms: minBeds,
		MaxPrice:    maxPrice,
		Keywords:    args[3],
	}

	var store *storage.SQLiteStore
	if cfg.DBPath != "" {
		if store, err = storage.NewSQLiteStore(cfg.DBPath); err != nil {
			log.Printf("warning: run history unavailable: %v", err)
			store = nil
		}
	}

	var runID int64
	if store != nil {
		if id, err := store.StartRun(q.City); err == nil {
			runID = id
		}
	}

	records, stats, err := pipeline.Run(ctx, q)

	// Close the store before any exit: log.Fatalf would skip a defer and
	// abandon the WAL checkpoint.
	if store != nil {
		if runID > 0 {
			status := models.RunStatusCompleted
			if err != nil {
				status = models.RunStatusFailed
			}
			store.FinishRun(runID, status, stats)
		}
		store.Close()
	}

	if err != nil {
		log.Fatalf("scrape failed: %v", err)
	}

	if cfg.DatabaseURL != "" {
		if pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL); err != nil {
			log.Printf("warning: postgres unavailable: %v", err)
		} else {
			if err := pg.SaveAll(ctx, records); err != nil {
				log.Printf("warning: postgres save failed: %v", err)
			}
			pg.Close()
		}
	}

	if records == nil {
		records = []models.Property{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		log.Fatalf("encode results: %v", err)
	}
}

func runServer(ctx context.Context, cfg *config.Config, cities *config.Cities, pipeline *scraper.Pipeline) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "hmo-finder.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("sqlite: %v", err)
	}
	defer store.Close()

	var pg *storage.PostgresStore
	if cfg.DatabaseURL != "" {
		if pg, err = storage.NewPostgresStore(ctx, cfg.DatabaseURL); err != nil {
			log.Printf("warning: postgres unavailable: %v", err)
			pg = nil
		} else {
			defer pg.Close()
		}
	}

	server := api.NewServer(cfg, cities, pipeline, store, pg)

	sched := scheduler.New(cfg.Refresh, func(ctx context.Context, city string) {
		q := models.SearchQuery{City: city, MinBedrooms: 3, MaxPrice: 500_000}
		if _, err := server.Search(ctx, q); err != nil {
			log.Printf("refresh %s failed: %v", city, err)
		}
	})
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", cfg.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}
