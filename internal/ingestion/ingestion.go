package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/logger"
	"github.com/guttosm/tradejournal/internal/normalize"
	"github.com/guttosm/tradejournal/internal/storage"
)

const (
	exportSuffix = ".csv"
	maxParallel  = 8
)

// repoCtor is an indirection for creating the repositories; tests can override this.
var repoCtor = func(db *sql.DB, cipher storage.FieldCipher) (storage.FillsRepository, storage.TradesRepository) {
	return storage.NewFillsRepository(db, cipher), storage.NewTradesRepository(db, cipher)
}

// DirectoryOptions configures ProcessDirectory.
type DirectoryOptions struct {
	UserID   string
	Mapping  normalize.ColumnMapping
	Parallel int // files processed at once; <= 0 means min(maxParallel, NumCPU)
}

// ProcessDirectory imports every CSV export found in dir for one user.
//
// Parameters:
//   - dir: directory containing *.csv exports (not recursive).
//   - db: open *sql.DB (PostgreSQL).
//   - cipher: field cipher used by the repositories.
//   - opts: user, column mapping and parallelism.
//
// Behavior:
//   - Files are parsed and imported concurrently, bounded by opts.Parallel.
//   - A file that cannot be read or whose header does not fit the mapping
//     fails the whole run and cancels the remaining files.
//   - Bad rows never fail a file; they are counted in the returned report.
//
// Returns:
//   - models.ImportReport: counts merged across files.
//   - error: first error encountered (if any).
func ProcessDirectory(ctx context.Context, dir string, db *sql.DB, cipher storage.FieldCipher, opts DirectoryOptions) (models.ImportReport, error) {
	var total models.ImportReport
	if strings.TrimSpace(opts.UserID) == "" {
		return total, fmt.Errorf("user id is required")
	}
	if err := ValidateMapping(opts.Mapping); err != nil {
		return total, err
	}

	files, err := listExports(dir)
	if err != nil {
		return total, err
	}
	if len(files) == 0 {
		return total, fmt.Errorf("no %s files in %s", exportSuffix, dir)
	}

	fills, trades := repoCtor(db, cipher)
	im := NewImporter(fills, trades, 0)
	log := logger.With("ingestion")

	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = min(maxParallel, runtime.NumCPU())
	}
	log.Info().Int("files", len(files)).Str("dir", dir).Int("max_parallel", parallel).Msg("directory import start")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, path := range files {
		g.Go(func() error {
			start := time.Now()
			base := filepath.Base(path)
			log.Info().Int("idx", i+1).Int("total", len(files)).Str("file", base).Msg("file start")

			records, err := parseExportFile(gctx, path, opts.Mapping)
			if err != nil {
				log.Error().Str("file", base).Err(err).Msg("file rejected")
				return fmt.Errorf("file %s: %w", path, err)
			}

			rep, err := im.Import(gctx, opts.UserID, records)
			mu.Lock()
			total.Merge(rep)
			mu.Unlock()
			if err != nil {
				log.Error().Str("file", base).Dur("elapsed", time.Since(start)).Err(err).Msg("file failed")
				return fmt.Errorf("file %s: %w", path, err)
			}

			log.Info().
				Int("idx", i+1).
				Int("total", len(files)).
				Str("file", base).
				Int("rows", len(records)).
				Int("failed", rep.Failed).
				Dur("elapsed", time.Since(start)).
				Msg("file done")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, nil
}

func listExports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), exportSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
