// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Driver names as registered with database/sql.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// sqliteTimeLayout is fixed width so text comparison orders timestamps.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQL is a Store backed by a PostgreSQL or SQLite database reached through
// database/sql. It plays the role of the hosted backend: it assigns ids and
// creation times and returns written rows.
type SQL struct {
	db     *sql.DB
	driver string
	now    func() time.Time
	newID  func() string
}

// OpenSQL connects to the database, applies driver settings and creates the
// schema. driver is DriverPostgres or DriverSQLite.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database type %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// In-memory databases are per connection, and SQLite has a single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return NewSQL(db, driver), nil
}

// NewSQL wraps an already prepared database. The schema must exist.
func NewSQL(db *sql.DB, driver string) *SQL {
	return &SQL{
		db:     db,
		driver: driver,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Close closes the database connection.
func (s *SQL) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) Select(ctx context.Context, q Select) Response {
	t, ok := catalog[q.Table]
	if !ok {
		return unknownTable(q.Table)
	}
	for _, name := range q.Embed {
		if _, ok := t.Relations[name]; !ok {
			return failure(http.StatusBadRequest, "PGRST200",
				"could not find a relationship between %q and %q", q.Table, name)
		}
	}

	var b sqlBuilder
	b.driver = s.driver
	b.WriteString("SELECT * FROM ")
	b.WriteString(quote(q.Table))
	if resp, ok := b.where(t, q.Table, q.Filters); !ok {
		return resp
	}
	if q.Order != nil {
		if _, ok := t.Columns[q.Order.Column]; !ok {
			return unknownColumn(q.Table, q.Order.Column)
		}
		dir := "DESC"
		if q.Order.Ascending {
			dir = "ASC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", quote(q.Order.Column), dir)
	}

	records, err := s.query(ctx, s.db, t, b.String(), b.args...)
	if err != nil {
		return s.fail(err)
	}

	for _, name := range q.Embed {
		if err := s.embed(ctx, t.Relations[name], name, records); err != nil {
			return s.fail(err)
		}
	}

	if q.Single {
		if len(records) != 1 {
			resp := failure(http.StatusNotAcceptable, CodeNoRows,
				"JSON object requested, multiple (or no) rows returned")
			resp.Error.Details = fmt.Sprintf("The result contains %d rows", len(records))
			return resp
		}
		return encode(http.StatusOK, records[0])
	}
	return encode(http.StatusOK, records)
}

func (s *SQL) Insert(ctx context.Context, tableName string, rows []Values) Response {
	t, ok := catalog[tableName]
	if !ok {
		return unknownTable(tableName)
	}
	if len(rows) == 0 {
		return encode(http.StatusCreated, []map[string]any{})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(err)
	}
	defer tx.Rollback()

	created := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		values := s.withDefaults(t, row)

		columns := make([]string, 0, len(values))
		for col := range values {
			if _, ok := t.Columns[col]; !ok {
				return unknownColumn(tableName, col)
			}
			columns = append(columns, col)
		}
		sort.Strings(columns)

		var b sqlBuilder
		b.driver = s.driver
		fmt.Fprintf(&b, "INSERT INTO %s (", quote(tableName))
		for i, col := range columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(col))
		}
		b.WriteString(") VALUES (")
		for i, col := range columns {
			if i > 0 {
				b.WriteString(", ")
			}
			v, err := s.bind(t.Columns[col], values[col])
			if err != nil {
				return failure(http.StatusBadRequest, "22007", "invalid value for %q: %v", col, err)
			}
			b.arg(v)
		}
		b.WriteString(") RETURNING *")

		records, err := s.query(ctx, tx, t, b.String(), b.args...)
		if err != nil {
			return s.fail(err)
		}
		created = append(created, records...)
	}

	if err := tx.Commit(); err != nil {
		return s.fail(err)
	}
	return encode(http.StatusCreated, created)
}

func (s *SQL) Update(ctx context.Context, tableName string, values Values, filters []Filter) Response {
	t, ok := catalog[tableName]
	if !ok {
		return unknownTable(tableName)
	}
	if len(filters) == 0 {
		return failure(http.StatusBadRequest, "21000", "UPDATE requires a WHERE clause")
	}
	if len(values) == 0 {
		return failure(http.StatusBadRequest, "PGRST100", "no values to update")
	}

	columns := make([]string, 0, len(values))
	for col := range values {
		if _, ok := t.Columns[col]; !ok {
			return unknownColumn(tableName, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	var b sqlBuilder
	b.driver = s.driver
	fmt.Fprintf(&b, "UPDATE %s SET ", quote(tableName))
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		v, err := s.bind(t.Columns[col], values[col])
		if err != nil {
			return failure(http.StatusBadRequest, "22007", "invalid value for %q: %v", col, err)
		}
		b.WriteString(quote(col))
		b.WriteString(" = ")
		b.arg(v)
	}
	if resp, ok := b.where(t, tableName, filters); !ok {
		return resp
	}
	b.WriteString(" RETURNING *")

	records, err := s.query(ctx, s.db, t, b.String(), b.args...)
	if err != nil {
		return s.fail(err)
	}
	return encode(http.StatusOK, records)
}

func (s *SQL) Delete(ctx context.Context, tableName string, filters []Filter) Response {
	t, ok := catalog[tableName]
	if !ok {
		return unknownTable(tableName)
	}
	if len(filters) == 0 {
		return failure(http.StatusBadRequest, "21000", "DELETE requires a WHERE clause")
	}

	var b sqlBuilder
	b.driver = s.driver
	fmt.Fprintf(&b, "DELETE FROM %s", quote(tableName))
	if resp, ok := b.where(t, tableName, filters); !ok {
		return resp
	}
	b.WriteString(" RETURNING *")

	records, err := s.query(ctx, s.db, t, b.String(), b.args...)
	if err != nil {
		return s.fail(err)
	}
	return encode(http.StatusOK, records)
}

// withDefaults fills the columns the hosted backend would assign.
func (s *SQL) withDefaults(t table, row Values) Values {
	values := make(Values, len(row)+2)
	for k, v := range row {
		values[k] = v
	}
	if _, ok := t.Columns["id"]; ok && isBlank(values["id"]) {
		values["id"] = s.newID()
	}
	if _, ok := t.Columns["createdAt"]; ok && isBlank(values["createdAt"]) {
		values["createdAt"] = s.now().UTC()
	}
	return values
}

// embed loads one relation for all parent records in a single query.
func (s *SQL) embed(ctx context.Context, rel relation, child string, parents []map[string]any) error {
	if len(parents) == 0 {
		return nil
	}
	ct := catalog[child]

	var b sqlBuilder
	b.driver = s.driver
	fmt.Fprintf(&b, "SELECT * FROM %s WHERE %s IN (", quote(child), quote(rel.ChildColumn))
	for i, p := range parents {
		if i > 0 {
			b.WriteString(", ")
		}
		b.arg(p[rel.ParentColumn])
	}
	b.WriteString(")")

	children, err := s.query(ctx, s.db, ct, b.String(), b.args...)
	if err != nil {
		return fmt.Errorf("embed %s: %w", child, err)
	}

	byParent := make(map[string][]map[string]any)
	for _, c := range children {
		key := fmt.Sprint(c[rel.ChildColumn])
		byParent[key] = append(byParent[key], c)
	}

	for _, p := range parents {
		matched := byParent[fmt.Sprint(p[rel.ParentColumn])]
		if rel.One {
			if len(matched) > 0 {
				p[child] = matched[0]
			} else {
				p[child] = nil
			}
			continue
		}
		if matched == nil {
			matched = []map[string]any{}
		}
		p[child] = matched
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQL) query(ctx context.Context, q querier, t table, query string, args ...any) ([]map[string]any, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = normalize(t.Columns[col], vals[i])
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

func (s *SQL) bind(kind columnKind, v any) (any, error) {
	return bindValue(s.driver, kind, v)
}

// bindValue converts a JSON-ish value into what the driver expects for the column.
func bindValue(driver string, kind columnKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case kindTime:
		var t time.Time
		switch tv := v.(type) {
		case time.Time:
			t = tv
		case string:
			parsed, err := parseTime(tv)
			if err != nil {
				return nil, err
			}
			t = parsed
		default:
			return nil, fmt.Errorf("expected timestamp, got %T", v)
		}
		t = t.UTC()
		if driver == DriverSQLite {
			return t.Format(sqliteTimeLayout), nil
		}
		return t, nil
	case kindBool:
		switch bv := v.(type) {
		case bool:
			return bv, nil
		case string:
			return strconv.ParseBool(bv)
		default:
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
	default:
		switch tv := v.(type) {
		case string:
			return tv, nil
		case json.Number:
			return tv.String(), nil
		default:
			return fmt.Sprint(tv), nil
		}
	}
}

// fail turns a driver error into a store error payload.
func (s *SQL) fail(err error) Response {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return failure(0, CodeTransport, "%v", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		status := http.StatusInternalServerError
		switch {
		case pqErr.Code == CodeForbidden:
			status = http.StatusForbidden
		case pqErr.Code.Class() == "23":
			status = http.StatusConflict
		case pqErr.Code.Class() == "22":
			status = http.StatusBadRequest
		}
		return Response{
			Status: status,
			Error: &Error{
				Code:    string(pqErr.Code),
				Message: pqErr.Message,
				Details: pqErr.Detail,
				Hint:    pqErr.Hint,
				Status:  status,
			},
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := liteErr.Error()
		switch {
		case liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, strings.Contains(msg, "FOREIGN KEY"):
			return failure(http.StatusConflict, CodeForeignKey, "%s", msg)
		case liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			strings.Contains(msg, "UNIQUE"):
			return failure(http.StatusConflict, CodeUnique, "%s", msg)
		}
		return failure(http.StatusConflict, "23000", "%s", msg)
	}

	return failure(http.StatusInternalServerError, "", "%v", err)
}

type sqlBuilder struct {
	strings.Builder
	driver string
	args   []any
}

func (b *sqlBuilder) arg(v any) {
	b.args = append(b.args, v)
	if b.driver == DriverPostgres {
		b.WriteString("$" + strconv.Itoa(len(b.args)))
		return
	}
	b.WriteString("?")
}

func (b *sqlBuilder) where(t table, tableName string, filters []Filter) (Response, bool) {
	for i, f := range filters {
		kind, ok := t.Columns[f.Column]
		if !ok {
			return unknownColumn(tableName, f.Column), false
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(quote(f.Column))
		if f.Value == nil {
			b.WriteString(" IS NULL")
			continue
		}
		v, err := bindValue(b.driver, kind, f.Value)
		if err != nil {
			return failure(http.StatusBadRequest, "22P02", "invalid filter on %q: %v", f.Column, err), false
		}
		b.WriteString(" = ")
		b.arg(v)
	}
	return Response{}, true
}

func normalize(kind columnKind, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch kind {
	case kindBool:
		switch bv := v.(type) {
		case int64:
			return bv != 0
		case string:
			parsed, err := strconv.ParseBool(bv)
			if err == nil {
				return parsed
			}
		}
	case kindTime:
		switch tv := v.(type) {
		case time.Time:
			return tv.UTC()
		case string:
			if parsed, err := parseTime(tv); err == nil {
				return parsed
			}
		}
	}
	return v
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func encode(status int, v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return failure(http.StatusInternalServerError, CodeDecode, "failed to encode rows: %v", err)
	}
	return Response{Data: data, Status: status}
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func unknownTable(name string) Response {
	return failure(http.StatusNotFound, CodeUnknownTable, "could not find the table %q", name)
}

func unknownColumn(tableName, col string) Response {
	return failure(http.StatusBadRequest, CodeUnknownColumn,
		"could not find the %q column of %q", col, tableName)
}
