// Package store persists parsed chunks and scraped timetables in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sevigo/campusrag/schema"
	"github.com/sevigo/campusrag/timetable"
)

var ErrNotFound = errors.New("store: not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pdf_chunks (
	chunk_id INTEGER PRIMARY KEY AUTOINCREMENT,
	heading TEXT NOT NULL,
	content TEXT NOT NULL,
	source_file TEXT,
	page_number INTEGER,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_pdf_chunks_source ON pdf_chunks(source_file);

CREATE TABLE IF NOT EXISTS block_hours (
	block_id TEXT PRIMARY KEY,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
	group_id INTEGER PRIMARY KEY AUTOINCREMENT,
	group_code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS teachers (
	teacher_id INTEGER PRIMARY KEY AUTOINCREMENT,
	full_name TEXT NOT NULL,
	short_code TEXT
);

CREATE TABLE IF NOT EXISTS courses (
	course_id INTEGER PRIMARY KEY AUTOINCREMENT,
	course_code TEXT NOT NULL,
	course_name TEXT
);

CREATE TABLE IF NOT EXISTS lessons (
	lesson_id INTEGER PRIMARY KEY AUTOINCREMENT,
	group_id INTEGER NOT NULL REFERENCES groups(group_id),
	course_id INTEGER NOT NULL REFERENCES courses(course_id),
	teacher_id INTEGER REFERENCES teachers(teacher_id),
	block_id TEXT NOT NULL REFERENCES block_hours(block_id),
	lesson_date TEXT NOT NULL,
	room TEXT,
	building TEXT,
	info TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_lessons_group ON lessons(group_id);
`

// Store wraps the SQLite database. Writes are serialized.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at path, applies the schema and
// fills the default block hours.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.FillBlockHours(context.Background(), timetable.DefaultBlockHours); err != nil {
		db.Close()
		return nil, fmt.Errorf("filling block hours: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- chunk operations ---

// InsertChunk stores one record and returns it with ChunkID and CreatedAt set.
func (s *Store) InsertChunk(ctx context.Context, rec schema.ChunkRecord) (schema.ChunkRecord, error) {
	out, err := s.InsertChunks(ctx, []schema.ChunkRecord{rec})
	if err != nil {
		return schema.ChunkRecord{}, err
	}
	return out[0], nil
}

// InsertChunks stores records in one transaction. The returned copies carry
// their assigned ChunkID and CreatedAt; the inputs are not modified.
func (s *Store) InsertChunks(ctx context.Context, recs []schema.ChunkRecord) ([]schema.ChunkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	out := make([]schema.ChunkRecord, len(recs))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO pdf_chunks (heading, content, source_file, page_number, created_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, rec := range recs {
			res, err := stmt.ExecContext(ctx, rec.Heading, rec.Content, nullString(rec.SourceFile), rec.PageNumber, now)
			if err != nil {
				return fmt.Errorf("inserting chunk %d: %w", i, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			created := now
			rec.ChunkID = &id
			rec.CreatedAt = &created
			out[i] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListChunks returns all chunks ordered by id.
func (s *Store) ListChunks(ctx context.Context) ([]schema.ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, heading, content, source_file, page_number, created_at
		FROM pdf_chunks ORDER BY chunk_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schema.ChunkRecord
	for rows.Next() {
		rec, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetChunk returns ErrNotFound for an unknown id.
func (s *Store) GetChunk(ctx context.Context, id int64) (schema.ChunkRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chunk_id, heading, content, source_file, page_number, created_at
		FROM pdf_chunks WHERE chunk_id = ?
	`, id)
	rec, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.ChunkRecord{}, fmt.Errorf("%w: chunk %d", ErrNotFound, id)
	}
	return rec, err
}

// DeleteChunksBySource removes all chunks of one source and returns how many.
func (s *Store) DeleteChunksBySource(ctx context.Context, sourceFile string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM pdf_chunks WHERE source_file = ?`, sourceFile)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChunk(sc scanner) (schema.ChunkRecord, error) {
	var (
		id      int64
		rec     schema.ChunkRecord
		source  sql.NullString
		page    sql.NullInt64
		created sql.NullTime
	)
	if err := sc.Scan(&id, &rec.Heading, &rec.Content, &source, &page, &created); err != nil {
		return schema.ChunkRecord{}, err
	}
	rec.ChunkID = &id
	rec.SourceFile = source.String
	if page.Valid {
		p := int(page.Int64)
		rec.PageNumber = &p
	}
	if created.Valid {
		t := created.Time
		rec.CreatedAt = &t
	}
	return rec, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
