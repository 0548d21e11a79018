package token

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// CookieStore is the client's credential store: an http.CookieJar whose
// contents survive process restarts. Cookies live in memory and are written
// through to a local SQLite database on every change.
type CookieStore struct {
	mu      sync.Mutex
	cookies map[string]map[string]*http.Cookie // host -> name -> cookie
	db      *sql.DB
	logger  *slog.Logger
}

const cookieSchema = `
CREATE TABLE IF NOT EXISTS cookies (
	host    TEXT NOT NULL,
	name    TEXT NOT NULL,
	value   TEXT NOT NULL,
	path    TEXT NOT NULL DEFAULT '/',
	expires TEXT NOT NULL DEFAULT '',
	secure  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (host, name)
);`

// NewCookieStore opens (or creates) the credential database at path and
// loads any persisted cookies. An empty path keeps everything in memory.
func NewCookieStore(path string, logger *slog.Logger) (*CookieStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &CookieStore{
		cookies: make(map[string]map[string]*http.Cookie),
		logger:  logger,
	}

	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create credentials dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open credentials db: %w", err)
	}
	if _, err := db.Exec(cookieSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate credentials db: %w", err)
	}
	s.db = db

	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *CookieStore) load() error {
	rows, err := s.db.Query(`SELECT host, name, value, path, expires, secure FROM cookies`)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	loaded := 0
	for rows.Next() {
		var host, name, value, cookiePath, expires string
		var secure int
		if err := rows.Scan(&host, &name, &value, &cookiePath, &expires, &secure); err != nil {
			return fmt.Errorf("scan cookie: %w", err)
		}

		c := &http.Cookie{Name: name, Value: value, Path: cookiePath, Secure: secure != 0}
		if expires != "" {
			t, err := time.Parse(time.RFC3339, expires)
			if err != nil || t.Before(now) {
				continue
			}
			c.Expires = t
		}

		if s.cookies[host] == nil {
			s.cookies[host] = make(map[string]*http.Cookie)
		}
		s.cookies[host][name] = c
		loaded++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}

	s.logger.Debug("credentials.loaded", "cookies", loaded)
	return rows.Err()
}

// SetCookies implements http.CookieJar. Each cookie is persisted as it
// arrives; a cookie expired by the server is dropped from the store.
func (s *CookieStore) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()

	host := u.Hostname()
	for _, c := range cookies {
		expired := c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now()))
		if expired || c.Value == "" {
			if s.cookies[host] != nil {
				delete(s.cookies[host], c.Name)
			}
			s.deleteRow(host, c.Name)
			continue
		}

		stored := &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: c.Expires,
			Secure:  c.Secure,
		}
		if c.MaxAge > 0 {
			stored.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		}

		if s.cookies[host] == nil {
			s.cookies[host] = make(map[string]*http.Cookie)
		}
		s.cookies[host][c.Name] = stored
		s.upsertRow(host, stored)
	}
}

// Cookies implements http.CookieJar.
func (s *CookieStore) Cookies(u *url.URL) []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()

	host := u.Hostname()
	now := time.Now()

	var out []*http.Cookie
	for name, c := range s.cookies[host] {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			delete(s.cookies[host], name)
			s.deleteRow(host, name)
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// Get returns the value of a named cookie for the given URL, or "" when the
// cookie is absent or expired. This is the no-network fast path for token
// reads.
func (s *CookieStore) Get(u *url.URL, name string) string {
	for _, c := range s.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// Clear forgets every stored cookie, in memory and on disk.
func (s *CookieStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cookies = make(map[string]map[string]*http.Cookie)
	if s.db != nil {
		if _, err := s.db.Exec(`DELETE FROM cookies`); err != nil {
			s.logger.Warn("credentials.clear_failed", "error", err)
		}
	}
}

// Close releases the underlying database.
func (s *CookieStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *CookieStore) upsertRow(host string, c *http.Cookie) {
	if s.db == nil {
		return
	}
	expires := ""
	if !c.Expires.IsZero() {
		expires = c.Expires.UTC().Format(time.RFC3339)
	}
	secure := 0
	if c.Secure {
		secure = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO cookies (host, name, value, path, expires, secure) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (host, name) DO UPDATE SET value = excluded.value, path = excluded.path,
		 expires = excluded.expires, secure = excluded.secure`,
		host, c.Name, c.Value, c.Path, expires, secure,
	)
	if err != nil {
		s.logger.Warn("credentials.persist_failed", "cookie", c.Name, "error", err)
	}
}

func (s *CookieStore) deleteRow(host, name string) {
	if s.db == nil {
		return
	}
	if _, err := s.db.Exec(`DELETE FROM cookies WHERE host = ? AND name = ?`, host, name); err != nil {
		s.logger.Warn("credentials.delete_failed", "cookie", name, "error", err)
	}
}
