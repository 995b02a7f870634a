// Package pool manages the single shared SQLite database handle.
package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	pkgerrors "github.com/mekanixms/sqlite-mcp-server/pkg/errors"
)

// Config represents connection manager configuration.
type Config struct {
	// Path is the database file. It must exist; it is never created.
	Path string `json:"path"`
	// ConnectionTimeout bounds opening and validating the handle.
	ConnectionTimeout time.Duration `json:"connection_timeout"`
	// BusyTimeout is how long the engine waits on a locked database before
	// reporting it as busy. The manager itself never retries.
	BusyTimeout time.Duration `json:"busy_timeout"`
}

// ConnectionManager owns the lifetime of the database handle.
type ConnectionManager interface {
	// WithConnection runs fn with exclusive use of the handle.
	WithConnection(ctx context.Context, fn func(db *sql.DB) error) error
	// Path returns the configured database path.
	Path() string
	// HealthCheck verifies that the handle can serve queries.
	HealthCheck(ctx context.Context) error
	// Stats returns manager statistics.
	Stats() Stats
	// Close releases the handle.
	Close() error
}

// MetricsCollector interface for collecting connection metrics.
type MetricsCollector interface {
	RecordConnectionAcquisition(duration time.Duration)
	RecordConnectionFailure()
}

// Stats represents connection manager statistics.
type Stats struct {
	Path              string        `json:"path"`
	Driver            string        `json:"driver"`
	Open              bool          `json:"open"`
	Opens             int64         `json:"opens"`
	Acquisitions      int64         `json:"acquisitions"`
	Failures          int64         `json:"failures"`
	WaitDuration      time.Duration `json:"wait_duration"`
	LastHealthCheck   time.Time     `json:"last_health_check"`
	HealthCheckStatus string        `json:"health_check_status"`
}

// Manager is the ConnectionManager for one database file. The handle is
// opened lazily on first use and serialized with a mutex: only one caller
// uses it at a time.
type Manager struct {
	config Config
	logger zerolog.Logger

	// guard serializes every use of the handle.
	guard sync.Mutex

	// mu protects db.
	mu sync.Mutex
	db *sql.DB

	opens           atomic.Int64
	acquisitions    atomic.Int64
	failures        atomic.Int64
	waitDuration    atomic.Int64
	lastHealthCheck atomic.Int64
	healthStatus    atomic.Value // string

	metricsCollector MetricsCollector
}

// New creates a connection manager. No file is touched until first use.
func New(cfg Config, logger zerolog.Logger) (*Manager, error) {
	if cfg.Path == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConnectionFailed, "database path is not configured")
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = 30 * time.Second
	}
	if cfg.BusyTimeout < 0 {
		cfg.BusyTimeout = 0
	}

	logger.Info().
		Str("path", cfg.Path).
		Str("driver", driverType).
		Dur("connection_timeout", cfg.ConnectionTimeout).
		Dur("busy_timeout", cfg.BusyTimeout).
		Msg("Creating SQLite connection manager")

	m := &Manager{
		config: cfg,
		logger: logger,
	}
	m.healthStatus.Store("unknown")
	return m, nil
}

// SetMetricsCollector sets the metrics collector.
func (m *Manager) SetMetricsCollector(collector MetricsCollector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metricsCollector = collector
}

// DriverName returns the database/sql driver name compiled into the binary.
func DriverName() string {
	return driverName
}

// Path returns the configured database path.
func (m *Manager) Path() string {
	return m.config.Path
}

// Acquire opens the handle, or returns the one already open.
func (m *Manager) Acquire(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}

	db, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	m.db = db
	m.opens.Add(1)
	return db, nil
}

// Release closes the handle. It is safe to call more than once.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil

	m.logger.Debug().Str("path", m.config.Path).Msg("Database handle released")

	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeConnectionFailed, "failed to close database")
	}
	return nil
}

// WithConnection takes the guard, acquires the handle and runs fn. The guard
// is released on every exit path. A context timeout or cancellation inside fn
// is treated as a dropped connection and closes the handle.
func (m *Manager) WithConnection(ctx context.Context, fn func(db *sql.DB) error) error {
	start := time.Now()
	m.guard.Lock()
	defer m.guard.Unlock()

	wait := time.Since(start)
	m.waitDuration.Add(int64(wait))
	m.acquisitions.Add(1)

	db, err := m.Acquire(ctx)
	if err != nil {
		m.failures.Add(1)
		if mc := m.collector(); mc != nil {
			mc.RecordConnectionFailure()
		}
		return err
	}
	if mc := m.collector(); mc != nil {
		mc.RecordConnectionAcquisition(wait)
	}

	err = fn(db)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		m.logger.Warn().
			Err(err).
			Str("path", m.config.Path).
			Msg("Operation interrupted, dropping database handle")
		if closeErr := m.Release(); closeErr != nil {
			m.logger.Error().Err(closeErr).Msg("Failed to close interrupted handle")
		}
	}
	return err
}

// HealthCheck performs a health check on the handle.
func (m *Manager) HealthCheck(ctx context.Context) error {
	err := m.WithConnection(ctx, func(db *sql.DB) error {
		var one int
		if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CodeConnectionFailed, "health check query failed")
		}
		return nil
	})

	m.lastHealthCheck.Store(time.Now().Unix())
	if err != nil {
		m.healthStatus.Store("unhealthy")
		return err
	}
	m.healthStatus.Store("healthy")
	return nil
}

// Stats returns manager statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	open := m.db != nil
	m.mu.Unlock()

	status, _ := m.healthStatus.Load().(string)
	var last time.Time
	if ts := m.lastHealthCheck.Load(); ts > 0 {
		last = time.Unix(ts, 0)
	}

	return Stats{
		Path:              m.config.Path,
		Driver:            driverType,
		Open:              open,
		Opens:             m.opens.Load(),
		Acquisitions:      m.acquisitions.Load(),
		Failures:          m.failures.Load(),
		WaitDuration:      time.Duration(m.waitDuration.Load()),
		LastHealthCheck:   last,
		HealthCheckStatus: status,
	}
}

// Close waits for the current user of the handle, then releases it.
func (m *Manager) Close() error {
	m.guard.Lock()
	defer m.guard.Unlock()

	m.logger.Info().Str("path", m.config.Path).Msg("Closing SQLite connection manager")
	return m.Release()
}

func (m *Manager) collector() MetricsCollector {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metricsCollector
}

// open validates the path and opens a single-connection handle. Callers hold mu.
func (m *Manager) open(ctx context.Context) (*sql.DB, error) {
	path := m.config.Path

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, pkgerrors.Wrapf(err, pkgerrors.CodeConnectionFailed, "database file %s does not exist", path)
	case err != nil:
		return nil, pkgerrors.Wrapf(err, pkgerrors.CodeConnectionFailed, "cannot access database file %s", path)
	case info.IsDir():
		return nil, pkgerrors.Newf(pkgerrors.CodeConnectionFailed, "database path %s is a directory", path)
	}

	f, err := os.Open(path) //nolint:gosec // G304: path comes from process configuration
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.CodeConnectionFailed, "database file %s is not readable", path)
	}
	_ = f.Close()

	db, err := sql.Open(driverName, buildDSN(path, m.config.BusyTimeout))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeConnectionFailed, "failed to open database")
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	probeCtx, cancel := context.WithTimeout(ctx, m.config.ConnectionTimeout)
	defer cancel()

	// The engine only inspects the file header on first read.
	var n int
	if err := db.QueryRowContext(probeCtx, "SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeConnectionFailed, fmt.Sprintf("engine rejected database file %s", path))
	}

	m.logger.Debug().
		Str("path", path).
		Int("catalog_entries", n).
		Msg("Database handle opened")

	return db, nil
}
