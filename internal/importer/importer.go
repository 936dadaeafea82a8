// Package importer bulk-loads transactions from files.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/accrual/internal/model"
	"github.com/cleared-dev/accrual/internal/transactions"
)

// Row is one transaction request read from a file.
type Row struct {
	Line    int
	Request transactions.Request
}

// Parser converts a file into transaction rows.
type Parser interface {
	Parse(r io.Reader) ([]Row, error)
	Format() string
}

// Submitter records a transaction request.
type Submitter interface {
	Submit(ctx context.Context, req transactions.Request) (model.Transaction, error)
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// ForFile picks a parser by file extension: .csv files use the ledger
// format and anything else the line format.
func (r *Registry) ForFile(name string) Parser {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return r.Get(FormatLedger)
	}
	return r.Get(FormatLines)
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&LedgerParser{})
	r.Register(&LineParser{})
	return r
}

// Failure is a row that could not be recorded.
type Failure struct {
	Line int
	Err  error
}

// Result summarizes an import run.
type Result struct {
	Recorded []model.Transaction
	Failures []Failure
}

// Import submits rows in file order. A rejected row is reported in the
// result and does not stop the rows after it.
func Import(ctx context.Context, sub Submitter, rows []Row, log zerolog.Logger) Result {
	var res Result
	for _, row := range rows {
		txn, err := sub.Submit(ctx, row.Request)
		if err != nil {
			log.Warn().Err(err).Int("line", row.Line).Str("account", row.Request.Account).Msg("import row rejected")
			res.Failures = append(res.Failures, Failure{Line: row.Line, Err: err})
			continue
		}
		res.Recorded = append(res.Recorded, txn)
	}
	log.Info().Int("recorded", len(res.Recorded)).Int("failed", len(res.Failures)).Msg("import finished")
	return res
}

// ImportFile parses path with p and submits its rows.
func ImportFile(ctx context.Context, sub Submitter, p Parser, path string, log zerolog.Logger) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := p.Parse(f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return Import(ctx, sub, rows, log.With().Str("file", filepath.Base(path)).Logger()), nil
}

// importDir is the subdirectory for import files.
const importDir = "import"

// processedDir is the subdirectory for processed files.
const processedDir = "import/processed"

// Scan returns importable files in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".csv" && ext != ".txt" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
