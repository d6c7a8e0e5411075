// Package database manages the SQL connections backing benzl's
// db-open/db-query/db-exec/db-close builtins: a handle table keyed by
// a generated id, one *sql.DB per open connection, shared across every
// Environment in a run.
package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Manager owns every open connection for one interpreter run.
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// Conn is a single open handle, identified by Conn.ID wherever benzl
// code refers to it (the value returned from db-open).
type Conn struct {
	ID       string
	Driver   string
	DSN      string
	DB       *sql.DB
	Opened   time.Time
	LastUsed time.Time
}

func NewManager() *Manager {
	return &Manager{conns: make(map[string]*Conn)}
}

// driverName maps benzl's user-facing database type names onto the
// registered database/sql driver name, choosing the pure-Go sqlite
// driver for "sqlite" and the cgo one for "sqlite3" so both of the
// module's two sqlite dependencies stay exercised.
func driverName(kind string) (string, error) {
	switch kind {
	case "sqlite":
		return "sqlite", nil
	case "sqlite3":
		return "sqlite3", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlserver", "mssql":
		return "sqlserver", nil
	}
	return "", fmt.Errorf("unsupported database type %q", kind)
}

// Open establishes a new connection, assigns it a fresh id, and
// returns the id. The caller supplies the DSN in whatever format the
// chosen driver expects.
func (m *Manager) Open(kind, dsn string) (string, error) {
	driver, err := driverName(kind)
	if err != nil {
		return "", err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return "", fmt.Errorf("ping: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	id := uuid.NewString()
	now := time.Now()
	m.mu.Lock()
	m.conns[id] = &Conn{ID: id, Driver: driver, DSN: dsn, DB: db, Opened: now, LastUsed: now}
	m.mu.Unlock()
	return id, nil
}

func (m *Manager) get(id string) (*Conn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[id]
	if !ok {
		return nil, fmt.Errorf("no open connection %q", id)
	}
	return c, nil
}

// Query runs a row-producing statement, returning one map per row with
// column name keys; []byte columns decode to string.
func (m *Manager) Query(id, query string, args ...interface{}) ([]map[string]interface{}, error) {
	c, err := m.get(id)
	if err != nil {
		return nil, err
	}
	c.LastUsed = time.Now()

	rows, err := c.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]interface{}
	scanned := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range cols {
		ptrs[i] = &scanned[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if b, ok := scanned[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = scanned[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Exec runs a non-row-producing statement, returning affected rows.
func (m *Manager) Exec(id, query string, args ...interface{}) (int64, error) {
	c, err := m.get(id)
	if err != nil {
		return 0, err
	}
	c.LastUsed = time.Now()
	result, err := c.DB.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	return result.RowsAffected()
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return fmt.Errorf("no open connection %q", id)
	}
	delete(m.conns, id)
	return c.DB.Close()
}
