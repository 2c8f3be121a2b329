package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"library-circulation/config"
	"library-circulation/library"
)

// Columns expected in the catalog CSV, header row first.
var columns = []string{"title", "author", "isbn", "category", "copies"}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var csvPath, dbPath string
	cmd := &cobra.Command{
		Use:           "import_catalog",
		Short:         "Bulk-load books from a CSV catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), csvPath, dbPath)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "catalog.csv", "CSV file with title,author,isbn,category,copies")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite database (overrides LIBRARY_DB_PATH)")
	return cmd
}

func run(out io.Writer, csvPath, dbPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("reading catalog file: %w", err)
	}
	defer f.Close()

	db, err := library.OpenDatabase(cfg.SQLiteDriver, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	manager, err := library.NewManager(db, append(cfg.ManagerOptions(), library.WithLogger(logger))...)
	if err != nil {
		db.Close()
		return err
	}
	defer manager.Close()

	fmt.Fprintf(out, "Importing books from %s...\n", csvPath)
	res, err := importCatalog(manager, f, out)
	if err != nil {
		return err
	}
	logger.Info("catalog imported", zap.String("file", csvPath), zap.Int("imported", res.imported), zap.Int("failed", res.failed))

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", res.imported)
	fmt.Fprintf(out, "Errors: %d\n", res.failed)
	return nil
}

type result struct {
	imported int
	failed   int
}

// importCatalog adds one book per CSV row. Bad rows are reported to log and
// skipped; a malformed header aborts the import.
func importCatalog(mgr *library.LibraryManager, r io.Reader, log io.Writer) (result, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(columns)

	header, err := cr.Read()
	if err != nil {
		return result{}, fmt.Errorf("read header: %w", err)
	}
	for i, want := range columns {
		if strings.ToLower(strings.TrimSpace(header[i])) != want {
			return result{}, fmt.Errorf("column %d is %q, want %q", i+1, header[i], want)
		}
	}

	var res result
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(log, "line %d: ERROR - %v\n", line, err)
			res.failed++
			continue
		}

		copies, err := strconv.Atoi(strings.TrimSpace(rec[4]))
		if err != nil {
			fmt.Fprintf(log, "line %d: ERROR - copies %q is not a number\n", line, rec[4])
			res.failed++
			continue
		}
		book, err := mgr.AddBook(rec[0], rec[1], rec[2], rec[3], copies)
		if err != nil {
			fmt.Fprintf(log, "line %d: ERROR - %v\n", line, err)
			res.failed++
			continue
		}
		fmt.Fprintf(log, "Importing: %s by %s... SUCCESS (ID: %s)\n", book.Title, book.Author, book.ID)
		res.imported++
	}
	return res, nil
}
