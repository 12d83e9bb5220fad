// Package gateway is the remote data gateway the console talks to: table-scoped
// CRUD with equality filters, a file bucket with public URLs, and a connectivity probe.
package gateway

import (
	"context"
	"errors"
)

var (
	ErrUnavailable   = errors.New("data store unavailable")
	ErrConflict      = errors.New("record conflicts with an existing one")
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrUnfiltered    = errors.New("refusing to mutate without a filter")
	ErrObjectExists  = errors.New("object already exists")
	ErrInvalidPath   = errors.New("invalid object path")
	ErrObjectMissing = errors.New("object not found")
)

// Filter is an equality predicate on one column
type Filter struct {
	Column string
	Value  interface{}
}

// Eq builds an equality filter
func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts a selection by one column
type Order struct {
	Column    string
	Ascending bool
}

// Row is one selected record keyed by column name
type Row map[string]interface{}

// Record holds the column values written by an insert or update
type Record map[string]interface{}

// Tables is the table query and mutation capability
type Tables interface {
	Select(ctx context.Context, table string, filters []Filter, order *Order) ([]Row, error)
	Insert(ctx context.Context, table string, record Record) error
	// Update and Delete return the number of matched rows
	Update(ctx context.Context, table string, record Record, filters []Filter) (int64, error)
	Delete(ctx context.Context, table string, filters []Filter) (int64, error)
}

// UploadOptions controls how an object is stored
type UploadOptions struct {
	CacheControl string
	ContentType  string
	Upsert       bool
}

// Files is the file bucket capability
type Files interface {
	Upload(ctx context.Context, bucket, path string, data []byte, opts UploadOptions) error
	PublicURL(bucket, path string) string
}

// Prober checks that the gateway is reachable
type Prober interface {
	Ping(ctx context.Context) error
}
