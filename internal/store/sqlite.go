package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
)

// paragraphBatch bounds the rows per INSERT to stay below SQLite's
// host parameter limit.
const paragraphBatch = 500

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		original_filename TEXT NOT NULL,
		title TEXT NOT NULL,
		media_type TEXT NOT NULL,
		upload_time INTEGER NOT NULL,
		file_size INTEGER NOT NULL,
		total_pages INTEGER NOT NULL,
		full_text TEXT NOT NULL,
		file_path TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS paragraphs (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		page INTEGER NOT NULL,
		paragraph_index INTEGER NOT NULL,
		start_position INTEGER NOT NULL,
		end_position INTEGER NOT NULL,
		PRIMARY KEY (document_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_upload_time ON documents(upload_time)`,
}

type documentRow struct {
	ID               string `db:"id"`
	OriginalFilename string `db:"original_filename"`
	Title            string `db:"title"`
	MediaType        string `db:"media_type"`
	UploadTime       int64  `db:"upload_time"`
	FileSize         int64  `db:"file_size"`
	TotalPages       int    `db:"total_pages"`
	FullText         string `db:"full_text"`
	FilePath         string `db:"file_path"`
}

type summaryRow struct {
	documentRow
	TotalParagraphs int `db:"total_paragraphs"`
}

type paragraphRow struct {
	DocumentID     string `db:"document_id"`
	Position       int    `db:"position"`
	Text           string `db:"text"`
	Page           int    `db:"page"`
	ParagraphIndex int    `db:"paragraph_index"`
	StartPosition  int    `db:"start_position"`
	EndPosition    int    `db:"end_position"`
}

// SQLiteStore persists documents in a SQLite database.
type SQLiteStore struct {
	db   *sqlx.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Put adds or replaces a document and its paragraphs in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, doc *Document) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := documentRow{
		ID:               doc.ID,
		OriginalFilename: doc.OriginalFilename,
		Title:            doc.Title,
		MediaType:        doc.MediaType,
		UploadTime:       doc.UploadTime.UnixNano(),
		FileSize:         doc.FileSize,
		TotalPages:       doc.TotalPages,
		FullText:         doc.FullText,
		FilePath:         doc.FilePath,
	}
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO documents (id, original_filename, title, media_type, upload_time, file_size, total_pages, full_text, file_path)
		VALUES (:id, :original_filename, :title, :media_type, :upload_time, :file_size, :total_pages, :full_text, :file_path)
		ON CONFLICT(id) DO UPDATE SET
			original_filename = excluded.original_filename,
			title = excluded.title,
			media_type = excluded.media_type,
			upload_time = excluded.upload_time,
			file_size = excluded.file_size,
			total_pages = excluded.total_pages,
			full_text = excluded.full_text,
			file_path = excluded.file_path`, row)
	if err != nil {
		return fmt.Errorf("saving document %s: %w", doc.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM paragraphs WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clearing paragraphs of %s: %w", doc.ID, err)
	}

	rows := make([]paragraphRow, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		rows[i] = paragraphRow{
			DocumentID:     doc.ID,
			Position:       i,
			Text:           p.Text,
			Page:           p.Page,
			ParagraphIndex: p.ParagraphIndex,
			StartPosition:  p.StartPosition,
			EndPosition:    p.EndPosition,
		}
	}
	for start := 0; start < len(rows); start += paragraphBatch {
		end := min(start+paragraphBatch, len(rows))
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO paragraphs (document_id, position, text, page, paragraph_index, start_position, end_position)
			VALUES (:document_id, :position, :text, :page, :paragraph_index, :start_position, :end_position)`, rows[start:end])
		if err != nil {
			return fmt.Errorf("saving paragraphs of %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document %s: %w", doc.ID, err)
	}
	return nil
}

// Get loads a document with its paragraphs in source order.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading document %s: %w", id, err)
	}

	var rows []paragraphRow
	err = s.db.SelectContext(ctx, &rows,
		`SELECT * FROM paragraphs WHERE document_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("loading paragraphs of %s: %w", id, err)
	}

	doc := row.toDocument()
	doc.Paragraphs = make([]document.Paragraph, len(rows))
	for i, r := range rows {
		doc.Paragraphs[i] = document.Paragraph{
			Text:           r.Text,
			Page:           r.Page,
			ParagraphIndex: r.ParagraphIndex,
			StartPosition:  r.StartPosition,
			EndPosition:    r.EndPosition,
		}
	}
	return doc, nil
}

// Delete removes a document and, through the foreign key, its paragraphs.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns document summaries ordered by upload time.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	var rows []summaryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT d.*, (SELECT COUNT(*) FROM paragraphs p WHERE p.document_id = d.id) AS total_paragraphs
		FROM documents d
		ORDER BY d.upload_time, d.id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	summaries := make([]Summary, len(rows))
	for i, r := range rows {
		summaries[i] = r.toDocument().Summary()
		summaries[i].TotalParagraphs = r.TotalParagraphs
	}
	return summaries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (r documentRow) toDocument() *Document {
	return &Document{
		ID:               r.ID,
		OriginalFilename: r.OriginalFilename,
		Title:            r.Title,
		MediaType:        r.MediaType,
		UploadTime:       time.Unix(0, r.UploadTime).UTC(),
		FileSize:         r.FileSize,
		TotalPages:       r.TotalPages,
		FullText:         r.FullText,
		FilePath:         r.FilePath,
	}
}
