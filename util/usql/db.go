// Package usql wraps database/sql with per-query timing statistics.
package usql

import (
	"context"
	"database/sql"

	"github.com/ordishs/gocore"
)

var stat = gocore.NewStat("SQL")

// DB instruments every query with a gocore stat keyed by the query text, so
// slow statements show up in the stats endpoint without extra wiring.
type DB struct {
	*sql.DB
}

func Open(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// track records elapsed time against the query's stat when the returned
// func runs. Meant to be deferred at the top of each wrapper.
func track(query string) func() {
	start := gocore.CurrentTime()

	return func() {
		stat.NewStat(query).AddTime(start)
	}
}

func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	defer track(query)()

	return db.DB.Query(query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer track(query)()

	return db.DB.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	defer track(query)()

	return db.DB.QueryRow(query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer track(query)()

	return db.DB.QueryRowContext(ctx, query, args...)
}

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	defer track(query)()

	return db.DB.Exec(query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer track(query)()

	return db.DB.ExecContext(ctx, query, args...)
}
