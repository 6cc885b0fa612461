package db

import (
	"time"
)

// SearchHistory represents a saved search query
type SearchHistory struct {
	ID          int64
	Query       string
	ResultCount int
	CreatedAt   time.Time
}

// AddSearch adds a search to history
func (s *Store) AddSearch(query string, resultCount int) error {
	_, err := s.db.Exec(`
		INSERT INTO searches (query, result_count, created_at)
		VALUES (?, ?, ?)`,
		query, resultCount, time.Now().UTC(),
	)
	return err
}

// RecentSearches retrieves recent search history, newest first
func (s *Store) RecentSearches(limit int) ([]*SearchHistory, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, query, result_count, created_at
		FROM searches
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*SearchHistory
	for rows.Next() {
		h := &SearchHistory{}
		if err := rows.Scan(&h.ID, &h.Query, &h.ResultCount, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ClearSearches removes all search history
func (s *Store) ClearSearches() error {
	_, err := s.db.Exec(`DELETE FROM searches`)
	return err
}
