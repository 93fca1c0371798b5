package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/petar-nikolic125/hmo-finder-live/config"
	"github.com/petar-nikolic125/hmo-finder-live/models"
	"github.com/petar-nikolic125/hmo-finder-live/scraper"
	"github.com/petar-nikolic125/hmo-finder-live/storage"
)

// Query parameter caps, applied before any scrape is started.
const (
	maxCount    = 50
	maxPriceCap = 10_000_000
	maxRoomsCap = 15
)

// Server exposes the scrape pipeline as a JSON API, with a SQLite-backed
// result cache so repeated searches do not hammer the portals.
type Server struct {
	cfg      *config.Config
	cities   *config.Cities
	pipeline *scraper.Pipeline
	store    *storage.SQLiteStore
	pg       *storage.PostgresStore

	// Serializes scrapes: the pipeline owns per-run mutable state (random
	// source, identity pool, cookie seeding) that is not safe for
	// concurrent use, and handlers share it with the scheduler.
	mu sync.Mutex
}

func NewServer(cfg *config.Config, cities *config.Cities, pipeline *scraper.Pipeline, store *storage.SQLiteStore, pg *storage.PostgresStore) *Server {
	return &Server{cfg: cfg, cities: cities, pipeline: pipeline, store: store, pg: pg}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/properties", s.handleProperties).Methods(http.MethodGet)
	r.HandleFunc("/api/cities", s.handleCities).Methods(http.MethodGet)
	r.HandleFunc("/api/runs", s.handleRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/ping", s.handlePing).Methods(http.MethodGet)
	return r
}

func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	q := models.SearchQuery{
		City:        queryString(r, "city", "Liverpool"),
		MinBedrooms: queryInt(r, "minRooms", 3),
		MaxPrice:    queryInt(r, "maxPrice", 500_000),
		Keywords:    queryString(r, "keywords", ""),
	}
	count := queryInt(r, "count", maxCount)

	// Cap extreme parameters instead of rejecting them.
	if count > maxCount {
		count = maxCount
	}
	if q.MaxPrice > maxPriceCap {
		q.MaxPrice = maxPriceCap
	}
	if q.MinBedrooms > maxRoomsCap {
		q.MinBedrooms = maxRoomsCap
	}

	records, err := s.Search(r.Context(), q)
	if err != nil {
		log.Printf("api: search failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch properties")
		return
	}

	if len(records) > count {
		records = records[:count]
	}
	writeJSON(w, http.StatusOK, records)
}

// Search serves a query from the cache when fresh, scraping otherwise.
// Also used by the scheduler for periodic refreshes. Runs one at a time;
// a request that queued behind an identical search is answered from the
// cache the first one just wrote.
func (s *Server) Search(ctx context.Context, q models.SearchQuery) ([]models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(q)

	if s.store != nil {
		if cached, ok := s.store.CachedResults(key, s.cfg.Server.CacheTTL); ok {
			log.Printf("api: cache hit for %s", key)
			return cached, nil
		}
	}

	var runID int64
	if s.store != nil {
		if id, err := s.store.StartRun(q.City); err == nil {
			runID = id
		}
	}

	records, stats, err := s.pipeline.Run(ctx, q)
	if err != nil {
		if s.store != nil && runID > 0 {
			s.store.FinishRun(runID, models.RunStatusFailed, stats)
		}
		return nil, err
	}

	if s.store != nil {
		if runID > 0 {
			s.store.FinishRun(runID, models.RunStatusCompleted, stats)
		}
		if err := s.store.CacheResults(key, records); err != nil {
			log.Printf("api: cache write failed: %v", err)
		}
	}

	if s.pg != nil {
		if err := s.pg.SaveAll(ctx, records); err != nil {
			log.Printf("api: postgres save failed: %v", err)
		}
	}

	return records, nil
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cities.Names())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []models.ScrapeRun{})
		return
	}
	runs, err := s.store.RecentRuns(queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read runs")
		return
	}
	if runs == nil {
		runs = []models.ScrapeRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"now": time.Now().UnixMilli()})
}

func cacheKey(q models.SearchQuery) string {
	return strings.ToLower(fmt.Sprintf("%s|%d|%d|%s", q.City, q.MinBedrooms, q.MaxPrice, q.Keywords))
}

func queryString(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		v = []models.Property{}
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
