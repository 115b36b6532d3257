// internal/db/store.go
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"voiceflow/internal/session"
)

// AppName names the data directory
const AppName = "voiceflow"

type Store struct {
	db *sql.DB
}

// Outcome is what happened to a suggestion
type Outcome string

const (
	OutcomePending    Outcome = "pending"
	OutcomeShown      Outcome = "shown"
	OutcomeAccepted   Outcome = "accepted"
	OutcomeDismissed  Outcome = "dismissed"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeFailed     Outcome = "failed"
)

// SuggestionRecord is one AI request and its fate
type SuggestionRecord struct {
	ID         string
	Question   string
	Suggestion string
	FollowUps  []string
	Outcome    Outcome
	Provider   string
	Model      string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Persisted setting keys
const (
	keyScript        = "scriptText"
	keySpeed         = "scrollSpeed"
	keyFontSize      = "fontSize"
	keyOpacity       = "backgroundOpacity"
	keyMirror        = "isMirrorMode"
	keyGuideLine     = "showGuideLine"
	keyAIEnabled     = "aiEnabled"
	keyShowFollowUps = "showFollowUps"
	keyProvider      = "aiProvider"
	keyModel         = "aiModel"
	keyMode          = "aiMode"
	keyStyle         = "aiStyle"
	keyMaxLength     = "maxResponseLength"
)

// Open opens the database in the user data dir
func Open() (*Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, AppName+".db"))
}

// OpenPath opens (and migrates) the database at path
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return store, nil
}

// DataDir returns $XDG_DATA_HOME/voiceflow, defaulting to ~/.local/share
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName), nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS suggestions (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		suggestion TEXT,
		follow_ups TEXT,
		outcome TEXT NOT NULL DEFAULT 'pending',
		provider TEXT,
		model TEXT,
		error TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_suggestions_created ON suggestions(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) setSetting(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	return err
}

// LoadPreferences reads every persisted setting. Keys never written stay nil.
// Unparseable values are treated as unset.
func (s *Store) LoadPreferences() (session.Preferences, error) {
	var p session.Preferences
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return p, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return p, err
		}
		switch key {
		case keyScript:
			p.Script = session.Ptr(value)
		case keySpeed:
			p.Speed = parseFloat(value)
		case keyFontSize:
			p.FontSize = parseFloat(value)
		case keyOpacity:
			p.Opacity = parseFloat(value)
		case keyMirror:
			p.Mirror = parseBool(value)
		case keyGuideLine:
			p.GuideLine = parseBool(value)
		case keyAIEnabled:
			p.AIEnabled = parseBool(value)
		case keyShowFollowUps:
			p.ShowFollowUps = parseBool(value)
		case keyProvider:
			p.Provider = session.Ptr(value)
		case keyModel:
			p.Model = session.Ptr(value)
		case keyMode:
			p.Mode = session.Ptr(value)
		case keyStyle:
			p.Style = session.Ptr(value)
		case keyMaxLength:
			if n, err := strconv.Atoi(value); err == nil {
				p.MaxResponseLength = &n
			}
		}
	}
	return p, rows.Err()
}

// SavePreferences writes every non-nil field in one transaction
func (s *Store) SavePreferences(p session.Preferences) error {
	values := map[string]string{}
	if p.Script != nil {
		values[keyScript] = *p.Script
	}
	if p.Speed != nil {
		values[keySpeed] = formatFloat(*p.Speed)
	}
	if p.FontSize != nil {
		values[keyFontSize] = formatFloat(*p.FontSize)
	}
	if p.Opacity != nil {
		values[keyOpacity] = formatFloat(*p.Opacity)
	}
	if p.Mirror != nil {
		values[keyMirror] = strconv.FormatBool(*p.Mirror)
	}
	if p.GuideLine != nil {
		values[keyGuideLine] = strconv.FormatBool(*p.GuideLine)
	}
	if p.AIEnabled != nil {
		values[keyAIEnabled] = strconv.FormatBool(*p.AIEnabled)
	}
	if p.ShowFollowUps != nil {
		values[keyShowFollowUps] = strconv.FormatBool(*p.ShowFollowUps)
	}
	if p.Provider != nil {
		values[keyProvider] = *p.Provider
	}
	if p.Model != nil {
		values[keyModel] = *p.Model
	}
	if p.Mode != nil {
		values[keyMode] = *p.Mode
	}
	if p.Style != nil {
		values[keyStyle] = *p.Style
	}
	if p.MaxResponseLength != nil {
		values[keyMaxLength] = strconv.Itoa(*p.MaxResponseLength)
	}
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for k, v := range values {
		if err := s.setSetting(tx, k, v); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// SaveScript persists only the script text
func (s *Store) SaveScript(text string) error {
	return s.SavePreferences(session.Preferences{Script: &text})
}

// RecordSuggestion inserts or replaces a history entry
func (s *Store) RecordSuggestion(r SuggestionRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if r.Outcome == "" {
		r.Outcome = OutcomePending
	}
	followUps, err := json.Marshal(r.FollowUps)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO suggestions
		 (id, question, suggestion, follow_ups, outcome, provider, model, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Question, r.Suggestion, string(followUps), string(r.Outcome),
		r.Provider, r.Model, r.Error, r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	)
	return err
}

// UpdateOutcome sets the outcome of an existing entry
func (s *Store) UpdateOutcome(id string, outcome Outcome) error {
	result, err := s.db.Exec(
		`UPDATE suggestions SET outcome = ?, updated_at = ? WHERE id = ?`,
		string(outcome), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("suggestion %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// ListSuggestions returns the newest entries first. limit <= 0 returns all.
func (s *Store) ListSuggestions(limit int) ([]SuggestionRecord, error) {
	query := `SELECT id, question, suggestion, follow_ups, outcome, provider, model, error, created_at, updated_at
		 FROM suggestions ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SuggestionRecord
	for rows.Next() {
		r, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSuggestion(sc scanner) (SuggestionRecord, error) {
	var r SuggestionRecord
	var suggestion, followUps, provider, model, errMsg sql.NullString
	var outcome string
	err := sc.Scan(&r.ID, &r.Question, &suggestion, &followUps, &outcome, &provider, &model, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	r.Suggestion = suggestion.String
	r.Outcome = Outcome(outcome)
	r.Provider = provider.String
	r.Model = model.String
	r.Error = errMsg.String
	if followUps.Valid && followUps.String != "" && followUps.String != "null" {
		if err := json.Unmarshal([]byte(followUps.String), &r.FollowUps); err != nil {
			return r, fmt.Errorf("decode follow-ups for %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseBool(s string) *bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
