package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/petar-nikolic125/hmo-finder-live/models"
)

// SQLiteStore keeps run history and the serve-mode result cache.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		city TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		urls_tried INTEGER DEFAULT 0,
		urls_succeeded INTEGER DEFAULT 0,
		listings_found INTEGER DEFAULT 0,
		unique_count INTEGER DEFAULT 0,
		synthetic_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS cached_searches (
		search_key TEXT PRIMARY KEY,
		data JSON NOT NULL,
		cached_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_city ON scrape_runs(city, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// StartRun opens a run record and returns its id.
func (s *SQLiteStore) StartRun(city string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO scrape_runs (city, started_at, status) VALUES (?, ?, ?)`,
		city, time.Now().UTC(), models.RunStatusRunning,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishRun closes a run record with its final status and counters.
func (s *SQLiteStore) FinishRun(id int64, status string, stats models.RunStats) error {
	_, err := s.db.Exec(
		`UPDATE scrape_runs SET finished_at = ?, status = ?, urls_tried = ?,
			urls_succeeded = ?, listings_found = ?, unique_count = ?, synthetic_count = ?
		 WHERE id = ?`,
		time.Now().UTC(), status, stats.URLsTried, stats.URLsSucceeded,
		stats.ListingsFound, stats.UniqueCount, stats.SyntheticCount, id,
	)
	return err
}

// RecentRuns returns the newest run records, most recent first.
func (s *SQLiteStore) RecentRuns(limit int) ([]models.ScrapeRun, error) {
	rows, err := s.db.Query(
		`SELECT id, city, started_at, finished_at, status, urls_tried,
			urls_succeeded, listings_found, unique_count, synthetic_count
		 FROM scrape_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var r models.ScrapeRun
		if err := rows.Scan(&r.ID, &r.City, &r.StartedAt, &r.FinishedAt, &r.Status,
			&r.URLsTried, &r.URLsSucceeded, &r.ListingsFound, &r.UniqueCount, &r.SyntheticCount); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CacheResults stores a search's result set under its cache key.
func (s *SQLiteStore) CacheResults(key string, records []models.Property) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO cached_searches (search_key, data, cached_at) VALUES (?, ?, ?)
		 ON CONFLICT(search_key) DO UPDATE SET data = excluded.data, cached_at = excluded.cached_at`,
		key, data, time.Now().UTC(),
	)
	return err
}

// CachedResults returns a cached result set if one exists and is newer
// than maxAge.
func (s *SQLiteStore) CachedResults(key string, maxAge time.Duration) ([]models.Property, bool) {
	var (
		data     []byte
		cachedAt time.Time
	)
	err := s.db.QueryRow(
		`SELECT data, cached_at FROM cached_searches WHERE search_key = ?`, key,
	).Scan(&data, &cachedAt)
	if err != nil {
		return nil, false
	}
	if time.Since(cachedAt) > maxAge {
		return nil, false
	}

	var records []models.Property
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return records, true
}
