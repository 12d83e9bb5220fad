package gateway

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Schema lists the columns each reachable table exposes
type Schema map[string][]string

// ShopSchema is the schema created by the migrations
var ShopSchema = Schema{
	"products": {"id", "name", "description", "price", "category", "icon_name", "image_url", "created_at"},
	"orders":   {"id", "order_id", "product_name", "price", "discord_username", "email", "status", "message", "created_at"},
}

func (s Schema) check(table string, columns ...string) error {
	known, ok := s[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	for _, c := range columns {
		found := false
		for _, k := range known {
			if k == c {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, c)
		}
	}
	return nil
}

// Postgres implements Tables and Prober over a database/sql pool
type Postgres struct {
	db     *sql.DB
	schema Schema
}

// NewPostgres creates a gateway restricted to the given schema
func NewPostgres(db *sql.DB, schema Schema) *Postgres {
	return &Postgres{db: db, schema: schema}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// where renders the filters starting at placeholder $start
func where(filters []Filter, start int) (string, []interface{}) {
	if len(filters) == 0 {
		return "", nil
	}
	clauses := make([]string, len(filters))
	args := make([]interface{}, len(filters))
	for i, f := range filters {
		clauses[i] = fmt.Sprintf("%s = $%d", ident(f.Column), start+i)
		args[i] = f.Value
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func filterColumns(filters []Filter) []string {
	cols := make([]string, len(filters))
	for i, f := range filters {
		cols[i] = f.Column
	}
	return cols
}

func sortedColumns(record Record) []string {
	cols := make([]string, 0, len(record))
	for c := range record {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Select returns every row matching all filters
func (p *Postgres) Select(ctx context.Context, table string, filters []Filter, order *Order) ([]Row, error) {
	cols := filterColumns(filters)
	if order != nil {
		cols = append(cols, order.Column)
	}
	if err := p.schema.check(table, cols...); err != nil {
		return nil, err
	}

	clause, args := where(filters, 1)
	query := "SELECT * FROM " + ident(table) + clause
	if order != nil {
		direction := "DESC"
		if order.Ascending {
			direction = "ASC"
		}
		query += " ORDER BY " + ident(order.Column) + " " + direction
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Sprintf("select from %s", table), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, classify(fmt.Sprintf("read columns of %s", table), err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, classify(fmt.Sprintf("scan %s", table), err)
		}

		row := make(Row, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Sprintf("iterate %s", table), err)
	}

	return result, nil
}

// Insert writes one record
func (p *Postgres) Insert(ctx context.Context, table string, record Record) error {
	cols := sortedColumns(record)
	if len(cols) == 0 {
		return fmt.Errorf("insert into %s: empty record", table)
	}
	if err := p.schema.check(table, cols...); err != nil {
		return err
	}

	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		names[i] = ident(c)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = record[c]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ident(table), strings.Join(names, ", "), strings.Join(placeholders, ", "))

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return classify(fmt.Sprintf("insert into %s", table), err)
	}
	return nil
}

// Update sets the record's columns on every row matching the filters
func (p *Postgres) Update(ctx context.Context, table string, record Record, filters []Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrUnfiltered
	}
	cols := sortedColumns(record)
	if len(cols) == 0 {
		return 0, fmt.Errorf("update %s: empty record", table)
	}
	if err := p.schema.check(table, append(cols, filterColumns(filters)...)...); err != nil {
		return 0, err
	}

	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+len(filters))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", ident(c), i+1)
		args = append(args, record[c])
	}
	clause, filterArgs := where(filters, len(cols)+1)
	args = append(args, filterArgs...)

	query := "UPDATE " + ident(table) + " SET " + strings.Join(sets, ", ") + clause

	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(fmt.Sprintf("update %s", table), err)
	}
	return rowsAffected(result)
}

// Delete removes every row matching the filters
func (p *Postgres) Delete(ctx context.Context, table string, filters []Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrUnfiltered
	}
	if err := p.schema.check(table, filterColumns(filters)...); err != nil {
		return 0, err
	}

	clause, args := where(filters, 1)
	result, err := p.db.ExecContext(ctx, "DELETE FROM "+ident(table)+clause, args...)
	if err != nil {
		return 0, classify(fmt.Sprintf("delete from %s", table), err)
	}
	return rowsAffected(result)
}

// Ping checks connectivity to the database
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// classify tags transport failures with ErrUnavailable and unique violations with ErrConflict
func classify(op string, err error) error {
	var (
		netErr     net.Error
		connectErr *pgconn.ConnectError
		pgErr      *pgconn.PgError
	)

	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &connectErr),
		errors.As(err, &netErr):
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
