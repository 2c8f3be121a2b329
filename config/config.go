package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"library-circulation/library"
)

// Config holds every setting the CLI and HTTP API need.
type Config struct {
	DBPath         string
	SQLiteDriver   string
	LoanPeriodDays int
	FinePerDay     int
	HTTPAddr       string
	LogLevel       string
	Env            string
}

// Load reads .env (if present) into the process environment and builds a
// Config from it.
func Load() (*Config, error) {
	// A missing .env is normal when variables come from the environment directly.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups.
func FromEnv(getenv func(string) string) (*Config, error) {
	loanDays, err := intWithDefault(getenv, "LIBRARY_LOAN_PERIOD_DAYS", library.DefaultLoanPeriodDays)
	if err != nil {
		return nil, err
	}
	if loanDays <= 0 {
		return nil, fmt.Errorf("LIBRARY_LOAN_PERIOD_DAYS must be positive, got %d", loanDays)
	}
	fine, err := intWithDefault(getenv, "LIBRARY_FINE_PER_DAY", library.DefaultFinePerDay)
	if err != nil {
		return nil, err
	}
	if fine < 0 {
		return nil, fmt.Errorf("LIBRARY_FINE_PER_DAY must not be negative, got %d", fine)
	}

	driver := withDefault(getenv("LIBRARY_SQLITE_DRIVER"), library.DriverCGO)
	if driver != library.DriverCGO && driver != library.DriverPureGo {
		return nil, fmt.Errorf("LIBRARY_SQLITE_DRIVER must be %q or %q, got %q", library.DriverCGO, library.DriverPureGo, driver)
	}

	return &Config{
		DBPath:         withDefault(getenv("LIBRARY_DB_PATH"), "library.db"),
		SQLiteDriver:   driver,
		LoanPeriodDays: loanDays,
		FinePerDay:     fine,
		HTTPAddr:       withDefault(getenv("LIBRARY_HTTP_ADDR"), ":8080"),
		LogLevel:       strings.ToLower(withDefault(getenv("LIBRARY_LOG_LEVEL"), "info")),
		Env:            strings.ToLower(withDefault(getenv("LIBRARY_ENV"), "production")),
	}, nil
}

// ManagerOptions translates the circulation settings into manager options.
func (c *Config) ManagerOptions() []library.Option {
	return []library.Option{
		library.WithLoanPeriodDays(c.LoanPeriodDays),
		library.WithFinePerDay(c.FinePerDay),
	}
}

func withDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func intWithDefault(getenv func(string) string, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, raw)
	}
	return n, nil
}
