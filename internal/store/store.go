// Package store keeps processed documents so questions can be asked about
// them after upload.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
)

var (
	// ErrNotFound is returned when no document has the requested ID.
	ErrNotFound = errors.New("document not found")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("store is closed")
)

// Document is an uploaded document together with its extracted paragraphs.
type Document struct {
	ID               string
	OriginalFilename string
	Title            string
	MediaType        string
	UploadTime       time.Time
	FileSize         int64
	TotalPages       int
	Paragraphs       []document.Paragraph
	FullText         string
	FilePath         string
}

// Summary describes a stored document without its content.
type Summary struct {
	ID               string    `json:"document_id"`
	OriginalFilename string    `json:"original_filename"`
	Title            string    `json:"document_title"`
	MediaType        string    `json:"media_type"`
	UploadTime       time.Time `json:"upload_time"`
	FileSize         int64     `json:"file_size"`
	TotalPages       int       `json:"total_pages"`
	TotalParagraphs  int       `json:"total_paragraphs"`
}

// Summary returns the content-free view of d.
func (d *Document) Summary() Summary {
	return Summary{
		ID:               d.ID,
		OriginalFilename: d.OriginalFilename,
		Title:            d.Title,
		MediaType:        d.MediaType,
		UploadTime:       d.UploadTime,
		FileSize:         d.FileSize,
		TotalPages:       d.TotalPages,
		TotalParagraphs:  len(d.Paragraphs),
	}
}

// Store is a key-value registry of documents keyed by ID.
type Store interface {
	// Put adds or replaces a document.
	Put(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	Delete(ctx context.Context, id string) error
	// List returns summaries ordered by upload time, oldest first.
	List(ctx context.Context) ([]Summary, error)
	Close() error
}
