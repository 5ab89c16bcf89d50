// Package library scans a directory for book files and imports them into
// the catalog, grounded on
// original_source/backend/app/services/library_service.py's
// scan_books_directory/import_books/get_library_stats. Unlike the
// original's two-step scan-then-import split, this package's Import walks
// and imports in one pass; Scanner layers an async task wrapper over it
// for the polling /library/scan endpoints.
package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexmercer/bookbrain/internal/pipeline"
)

var bookExtensions = map[string]string{
	".pdf":  "pdf",
	".epub": "epub",
}

// Result tallies the outcome of importing a batch of files.
type Result struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   int      `json:"errors"`
	Files    []string `json:"files,omitempty"`
}

// Stats summarizes the catalog's size and processing progress.
type Stats struct {
	TotalBooks     int `json:"total_books"`
	ProcessedBooks int `json:"processed_books"`
	PendingBooks   int `json:"pending_books"`
	TotalChunks    int `json:"total_chunks"`
	TotalInsights  int `json:"total_insights"`
}

// Importer walks directories and registers new books, deduplicating by
// content hash and kicking off pipeline processing for each new book.
type Importer struct {
	db          *pgxpool.Pool
	coordinator *pipeline.Coordinator
}

// New builds an Importer.
func New(db *pgxpool.Pool, coordinator *pipeline.Coordinator) *Importer {
	return &Importer{db: db, coordinator: coordinator}
}

// ScanDirectory walks directory and returns every file with a recognized
// book extension, without importing them.
func ScanDirectory(directory string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := bookExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan directory %s: %w", directory, err)
	}
	return found, nil
}

// Import walks directory, and for each book file not already present by
// content hash, creates a book + book_files row and enqueues processing.
// Matches compute_file_hash/get_book_by_hash/create_book/add_book_file's
// dedup-by-hash behavior from the original service.
func (imp *Importer) Import(ctx context.Context, directory string) (Result, error) {
	files, err := ScanDirectory(directory)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, path := range files {
		imported, err := imp.importFile(ctx, path)
		if err != nil {
			res.Errors++
			continue
		}
		if imported {
			res.Imported++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) (bool, error) {
	hash, err := hashFile(path)
	if err != nil {
		return false, fmt.Errorf("hash %s: %w", path, err)
	}

	var existing uuid.UUID
	err = imp.db.QueryRow(ctx, `SELECT book_id FROM book_files WHERE file_hash = $1`, hash).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if err != pgx.ErrNoRows {
		return false, fmt.Errorf("check existing hash: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	format := bookExtensions[ext]
	title := filenameDefaultTitle(path)

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	tx, err := imp.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var bookID uuid.UUID
	if err := tx.QueryRow(ctx, `
		INSERT INTO books (title, processing_status)
		VALUES ($1, 'pending')
		RETURNING id`, title).Scan(&bookID); err != nil {
		return false, fmt.Errorf("create book: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO book_files (book_id, path, format, file_hash, size_bytes)
		VALUES ($1, $2, $3, $4, $5)`, bookID, path, format, hash, info.Size()); err != nil {
		return false, fmt.Errorf("create book file: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit import tx: %w", err)
	}

	if imp.coordinator != nil {
		if err := imp.coordinator.ProcessBook(ctx, bookID); err != nil {
			return true, fmt.Errorf("schedule processing: %w", err)
		}
	}
	return true, nil
}

// Stats reports catalog totals, matching get_library_stats.
func (imp *Importer) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if err := imp.db.QueryRow(ctx, `SELECT count(*) FROM books`).Scan(&s.TotalBooks); err != nil {
		return Stats{}, fmt.Errorf("count books: %w", err)
	}
	if err := imp.db.QueryRow(ctx, `SELECT count(*) FROM books WHERE processing_status = 'completed'`).Scan(&s.ProcessedBooks); err != nil {
		return Stats{}, fmt.Errorf("count processed books: %w", err)
	}
	s.PendingBooks = s.TotalBooks - s.ProcessedBooks
	if err := imp.db.QueryRow(ctx, `SELECT count(*) FROM book_chunks`).Scan(&s.TotalChunks); err != nil {
		return Stats{}, fmt.Errorf("count chunks: %w", err)
	}
	if err := imp.db.QueryRow(ctx, `SELECT count(*) FROM book_insights`).Scan(&s.TotalInsights); err != nil {
		return Stats{}, fmt.Errorf("count insights: %w", err)
	}
	return s, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func filenameDefaultTitle(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}

// TaskStatus values a Scan task can hold.
const (
	TaskPending = "pending"
	TaskRunning = "running"
	TaskDone    = "done"
	TaskFailed  = "failed"
)

// ScanTask is one async directory scan+import, polled via GET
// /library/scan/{task_id}. Held in memory: scan tasks don't need to
// survive a server restart, matching the original's request-scoped usage.
type ScanTask struct {
	ID        uuid.UUID
	Directory string
	Status    string
	Result    Result
	Err       string
}

// Scanner tracks in-flight and completed scan tasks.
type Scanner struct {
	imp *Importer

	mu    sync.Mutex
	tasks map[uuid.UUID]*ScanTask
}

// NewScanner builds a Scanner backed by imp.
func NewScanner(imp *Importer) *Scanner {
	return &Scanner{imp: imp, tasks: make(map[uuid.UUID]*ScanTask)}
}

// Start kicks off an async scan+import of directory and returns its task
// immediately; the import itself runs in a background goroutine.
func (s *Scanner) Start(directory string) *ScanTask {
	task := &ScanTask{ID: uuid.New(), Directory: directory, Status: TaskPending}

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()

	go func() {
		s.mu.Lock()
		task.Status = TaskRunning
		s.mu.Unlock()

		res, err := s.imp.Import(context.Background(), directory)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			task.Status = TaskFailed
			task.Err = err.Error()
			return
		}
		task.Status = TaskDone
		task.Result = res
	}()

	return task
}

// Get returns a previously started task by ID.
func (s *Scanner) Get(id uuid.UUID) (*ScanTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}
