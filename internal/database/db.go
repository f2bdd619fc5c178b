package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

// NewDB creates a new database connection with optimized pooling
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "crewmeter.db")

	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		// Employee master data, including the tenure dates feeding stability
		`CREATE TABLE IF NOT EXISTS employees (
			emp_no TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			department_name TEXT,
			position TEXT,
			birth_date TEXT,
			work_start_date TEXT,
			entry_date TEXT,
			certification_date TEXT,
			solo_driving_date TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Monthly performance appraisals, month as 'YYYY-MM'
		`CREATE TABLE IF NOT EXISTS performance_records (
			id TEXT PRIMARY KEY,
			emp_no TEXT NOT NULL,
			month TEXT NOT NULL,
			grade TEXT NOT NULL,
			raw_score REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE(emp_no, month),
			FOREIGN KEY (emp_no) REFERENCES employees(emp_no)
		)`,

		// Safety inspection outcomes with the free-text assessment
		`CREATE TABLE IF NOT EXISTS safety_inspection_records (
			id TEXT PRIMARY KEY,
			emp_no TEXT NOT NULL,
			month TEXT NOT NULL,
			assessment TEXT,
			inspected_at DATETIME,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (emp_no) REFERENCES employees(emp_no)
		)`,

		// Operational-check results feeding the training penalty model
		`CREATE TABLE IF NOT EXISTS training_records (
			id TEXT PRIMARY KEY,
			emp_no TEXT NOT NULL,
			month TEXT NOT NULL,
			score REAL NOT NULL DEFAULT 0,
			is_qualified BOOLEAN NOT NULL DEFAULT TRUE,
			is_disqualified BOOLEAN NOT NULL DEFAULT FALSE,
			trained_at TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (emp_no) REFERENCES employees(emp_no)
		)`,

		// Seeded algorithm presets, immutable reference data
		`CREATE TABLE IF NOT EXISTS algorithm_presets (
			preset_key TEXT PRIMARY KEY,
			preset_name TEXT NOT NULL,
			description TEXT,
			config_data TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Single-row active configuration
		`CREATE TABLE IF NOT EXISTS algorithm_active_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			config_data TEXT NOT NULL,
			based_on_preset TEXT,
			is_customized BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at DATETIME NOT NULL
		)`,

		// Append-only audit trail of configuration changes. old_config is NULL
		// only for the very first entry.
		`CREATE TABLE IF NOT EXISTS algorithm_config_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			based_on_preset TEXT,
			actor TEXT,
			reason TEXT,
			old_config TEXT,
			config_data TEXT NOT NULL,
			changed_at DATETIME NOT NULL
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_performance_emp_month ON performance_records(emp_no, month)`,
		`CREATE INDEX IF NOT EXISTS idx_safety_emp_month ON safety_inspection_records(emp_no, month)`,
		`CREATE INDEX IF NOT EXISTS idx_training_emp_month ON training_records(emp_no, month)`,
		`CREATE INDEX IF NOT EXISTS idx_config_logs_changed ON algorithm_config_logs(changed_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements initializes frequently used prepared statements
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"get_employee": `SELECT emp_no, name, department_name, position,
			birth_date, work_start_date, entry_date, certification_date, solo_driving_date
			FROM employees WHERE emp_no = ?`,

		"get_performance_window": `SELECT month, grade, raw_score
			FROM performance_records
			WHERE emp_no = ? AND month >= ? AND month <= ?
			ORDER BY month ASC`,

		"get_safety_window": `SELECT month, COALESCE(assessment, '')
			FROM safety_inspection_records
			WHERE emp_no = ? AND month >= ? AND month <= ?
			ORDER BY month ASC`,

		"get_training_window": `SELECT month, score, is_qualified, is_disqualified, COALESCE(trained_at, '')
			FROM training_records
			WHERE emp_no = ? AND month >= ? AND month <= ?
			ORDER BY month ASC`,

		"get_active_config": `SELECT config_data, based_on_preset, is_customized, updated_at
			FROM algorithm_active_config WHERE id = 1`,

		"get_presets": `SELECT preset_key, preset_name, description, config_data
			FROM algorithm_presets ORDER BY preset_key ASC`,

		"get_config_logs": `SELECT id, action, based_on_preset, actor, reason, old_config, config_data, changed_at
			FROM algorithm_config_logs ORDER BY changed_at DESC, id DESC LIMIT ? OFFSET ?`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}

	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
