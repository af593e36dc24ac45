// Package sqlrt backs the SQL domain-stack opcodes SPEC_FULL.md §3 adds
// (OP_DB_OPEN/QUERY/EXEC/CLOSE): a connection-handle table keyed the same
// way internal/vm's file-stream handles are, opened through database/sql
// with every SQL driver in the teacher's dependency pack wired in.
//
// Grounded on internal/vm/database_bindings.go's connection-manager
// shape (string-keyed connect/close/query, rows marshaled to maps), here
// restructured around an integer handle table so it can share a single
// "resource handle" convention with internal/vm's streams and
// internal/wsrt's sockets.
package sqlrt

import (
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Row is one result row, column name to raw driver value; internal/vm
// converts each Row into a CatLang *Map.
type Row = map[string]interface{}

// Runtime owns every open *sql.DB a running chunk has opened.
type Runtime struct {
	conns  map[int]*sql.DB
	nextID int
}

// New returns an empty Runtime; handle 0 is never issued so callers can
// use it as a sentinel "no connection" value.
func New() *Runtime {
	return &Runtime{conns: make(map[int]*sql.DB), nextID: 1}
}

// driverFor maps the English/concise driver name a CatLang program
// writes onto the database/sql driver name registered by an import
// above. "sqlite" (not "sqlite3") selects the pure-Go modernc.org driver,
// so both the cgo and non-cgo sqlite paths get exercised by distinct
// CatLang-visible names.
func driverFor(name string) string {
	switch name {
	case "postgres", "pq":
		return "postgres"
	case "mssql", "sqlserver":
		return "sqlserver"
	default:
		return name // "mysql", "sqlite3", "sqlite" already match their driver name
	}
}

// Open opens a new connection and returns its handle.
func (r *Runtime) Open(driverName, dsn string) (int, error) {
	db, err := sql.Open(driverFor(driverName), dsn)
	if err != nil {
		return 0, err
	}
	id := r.nextID
	r.nextID++
	r.conns[id] = db
	return id, nil
}

// Close closes and forgets handle.
func (r *Runtime) Close(handle int) error {
	db, ok := r.conns[handle]
	if !ok {
		return fmt.Errorf("sqlrt: unknown handle %d", handle)
	}
	delete(r.conns, handle)
	return db.Close()
}

// CloseAll closes every still-open connection, called from OP_HALT/
// OP_EXIT per spec.md §5's "streams are owned by the VM" rule, extended
// here to cover SQL connections too.
func (r *Runtime) CloseAll() {
	for id, db := range r.conns {
		db.Close()
		delete(r.conns, id)
	}
}

// Query runs a SELECT-shaped statement and returns its rows.
func (r *Runtime) Query(handle int, query string, args []interface{}) ([]Row, error) {
	db, ok := r.conns[handle]
	if !ok {
		return nil, fmt.Errorf("sqlrt: unknown handle %d", handle)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Exec runs a statement with no result set and returns rows affected.
func (r *Runtime) Exec(handle int, query string, args []interface{}) (int64, error) {
	db, ok := r.conns[handle]
	if !ok {
		return 0, fmt.Errorf("sqlrt: unknown handle %d", handle)
	}
	res, err := db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
