// Package importer records a directory of receipts and invoices in the local document store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/agent"
	"github.com/lox/receipt-matcher/internal/candidates"
	"github.com/lox/receipt-matcher/internal/db"
	"golang.org/x/sync/errgroup"
)

// Config controls one import run
type Config struct {
	Dir         string
	Concurrency int
	Progress    bool
	DryRun      bool
	Extract     bool
	Limit       int
}

// Store is the part of the document store the importer writes to
type Store interface {
	Has(ctx context.Context, id string) (bool, error)
	Store(ctx context.Context, doc db.Document) error
}

// Extractor pulls receipt metadata out of a document
type Extractor interface {
	ExtractReceipt(ctx context.Context, doc agent.Document) (*agent.Receipt, error)
}

// Result summarizes an import run
type Result struct {
	Imported         []db.Document
	Skipped          int
	ExtractionErrors int
}

type Importer struct {
	store     Store
	extractor Extractor
	logger    *log.Logger
}

// New creates an importer. extractor may be nil, in which case only file metadata and
// filename hints are recorded.
func New(store Store, extractor Extractor, logger *log.Logger) *Importer {
	return &Importer{
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
}

type file struct {
	path        string
	contentType string
	sidecar     string
}

// ImportDir records every document under config.Dir that isn't stored yet
func (im *Importer) ImportDir(ctx context.Context, config Config) (*Result, error) {
	startTime := time.Now()
	im.logger.Info("Starting document import", "dir", config.Dir)

	files, err := scanDir(config.Dir)
	if err != nil {
		return nil, err
	}
	if config.Limit > 0 && len(files) > config.Limit {
		files = files[:config.Limit]
	}
	im.logger.Debug("Scanned directory", "files", len(files), "duration", time.Since(startTime))

	var progress Progress = &NoopProgress{}
	if config.Progress {
		progress = NewBarProgress(len(files))
	}
	defer progress.Close()

	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu     sync.Mutex
		result Result
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, f := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			doc, skipped, extractErr, err := im.importFile(gCtx, f, config)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				im.logger.Error("Failed to import document", "path", f.path, "error", err)
				return fmt.Errorf("error importing %s: %w", f.path, err)
			}

			mu.Lock()
			switch {
			case skipped:
				result.Skipped++
			default:
				result.Imported = append(result.Imported, *doc)
			}
			if extractErr {
				result.ExtractionErrors++
			}
			mu.Unlock()

			return progress.Add(1)
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			im.logger.Info("Document import interrupted")
			return nil, err
		}
		return nil, err
	}

	sort.Slice(result.Imported, func(i, j int) bool {
		return result.Imported[i].SourcePath < result.Imported[j].SourcePath
	})

	im.logger.Info("Imported documents",
		"imported", len(result.Imported),
		"skipped", result.Skipped,
		"extraction_errors", result.ExtractionErrors,
		"total_duration", time.Since(startTime))

	return &result, nil
}

func (im *Importer) importFile(ctx context.Context, f file, config Config) (*db.Document, bool, bool, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, false, false, fmt.Errorf("failed to read file: %w", err)
	}

	id := db.DocumentID(content)
	exists, err := im.store.Has(ctx, id)
	if err != nil {
		return nil, false, false, err
	}
	if exists {
		im.logger.Debug("Document already imported", "path", f.path, "id", id)
		return nil, true, false, nil
	}

	doc := db.Document{SourcePath: f.path}
	doc.ID = id
	doc.Filename = filepath.Base(f.path)
	doc.ContentType = f.contentType
	doc.Size = int64(len(content))
	doc.Date = DateFromName(doc.Filename)

	if f.sidecar != "" {
		text, err := os.ReadFile(f.sidecar)
		if err != nil {
			return nil, false, false, fmt.Errorf("failed to read text sidecar: %w", err)
		}
		doc.Text = strings.TrimSpace(string(text))
	}

	var extractErr bool
	if config.Extract && im.extractor != nil {
		receipt, err := im.extractor.ExtractReceipt(ctx, agent.Document{
			Filename:    doc.Filename,
			ContentType: doc.ContentType,
			Text:        doc.Text,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, false, false, err
			}
			im.logger.Warn("Failed to extract receipt metadata", "path", f.path, "error", err)
			extractErr = true
		} else {
			applyReceipt(&doc, receipt)
		}
	}

	if !config.DryRun {
		if err := im.store.Store(ctx, doc); err != nil {
			return nil, false, extractErr, err
		}
	}
	return &doc, false, extractErr, nil
}

func applyReceipt(doc *db.Document, r *agent.Receipt) {
	doc.NotReceipt = !r.IsReceipt
	if r.Date != nil {
		doc.Date = r.Date
	}
	doc.Amount = r.Amount
	doc.Currency = r.Currency
	doc.Counterparty = r.Counterparty
	doc.TaxID = r.TaxID
	doc.Website = r.Website
}

// scanDir lists the importable documents under dir in path order. A plain-text file that
// shares its stem with a document ("scan.pdf" and "scan.txt") is kept as that document's text.
func scanDir(dir string) ([]file, error) {
	var (
		files []file
		texts = map[string]string{}
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		if strings.EqualFold(filepath.Ext(path), ".txt") {
			texts[stem(path)] = path
			return nil
		}

		contentType, err := DetectContentType(path)
		if err != nil {
			return err
		}
		if candidates.AcceptedContentType(contentType) {
			files = append(files, file{path: path, contentType: contentType})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	for i := range files {
		files[i].sidecar = texts[stem(files[i].path)]
	}
	return files, nil
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// DetectContentType uses the file extension and falls back to sniffing the content
func DetectContentType(path string) (string, error) {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		mediaType, _, err := mime.ParseMediaType(byExt)
		if err == nil {
			return mediaType, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		return "application/octet-stream", nil
	}
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil {
		return "application/octet-stream", nil
	}
	return mediaType, nil
}

var nameDate = regexp.MustCompile(`(?:^|[^0-9])(\d{4})[-_.]?(\d{2})[-_.]?(\d{2})(?:[^0-9]|$)`)

// DateFromName finds an ISO-ordered date such as 2024-03-10 or 20240310 in a filename
func DateFromName(name string) *time.Time {
	m := nameDate.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil || t.Year() < 1990 {
		return nil
	}
	return &t
}
