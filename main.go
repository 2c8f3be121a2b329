package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"library-circulation/config"
	"library-circulation/library"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	mgr    *library.LibraryManager
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var dbPath string

	root := &cobra.Command{
		Use:           "library",
		Short:         "Lending library circulation: books, members and loans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			logger, err := cfg.NewLogger()
			if err != nil {
				return err
			}
			db, err := library.OpenDatabase(cfg.SQLiteDriver, cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			opts := append(cfg.ManagerOptions(), library.WithLogger(logger))
			mgr, err := library.NewManager(db, opts...)
			if err != nil {
				db.Close()
				return err
			}
			a.cfg, a.logger, a.mgr = cfg, logger, mgr
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
			if a.mgr != nil {
				return a.mgr.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (overrides LIBRARY_DB_PATH)")

	root.AddCommand(
		newBookCmd(a),
		newMemberCmd(a),
		newIssueCmd(a),
		newReturnCmd(a),
		newLoansCmd(a),
		newStatsCmd(a),
		newAuditCmd(a),
		newServeCmd(a),
		newShellCmd(a),
	)
	return root
}
