package db

import (
	"database/sql"
	"time"
)

// DownloadStatus represents the outcome of a download attempt
type DownloadStatus string

const (
	StatusCompleted DownloadStatus = "completed"
	StatusFailed    DownloadStatus = "failed"
)

// Download represents one download attempt
type Download struct {
	ID          int64
	ContentHash string
	Filename    string
	Path        string
	Status      DownloadStatus
	Bytes       int64
	Error       string
	CreatedAt   time.Time
}

// RecordDownload journals a download attempt
func (s *Store) RecordDownload(d *Download) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.Exec(`
		INSERT INTO downloads (content_hash, filename, path, status, bytes, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ContentHash, d.Filename, d.Path, d.Status, d.Bytes, nullString(d.Error), d.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

// RecentDownloads lists download attempts, newest first. An empty status
// lists all of them.
func (s *Store) RecentDownloads(status DownloadStatus, limit int) ([]*Download, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, content_hash, filename, path, status, bytes, error, created_at
		FROM downloads`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var downloads []*Download
	for rows.Next() {
		d := &Download{}
		var path, errMsg sql.NullString
		if err := rows.Scan(&d.ID, &d.ContentHash, &d.Filename, &path, &d.Status, &d.Bytes, &errMsg, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Path = path.String
		d.Error = errMsg.String
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
