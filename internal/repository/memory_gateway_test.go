package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ryven-shop/internal/gateway"

	"github.com/shopspring/decimal"
)

// memoryTables is an in-memory gateway.Tables that hands prices back as text
type memoryTables struct {
	mu     sync.Mutex
	rows   map[string][]gateway.Row
	nextID int64
	err    error
	calls  int
}

func newMemoryTables() *memoryTables {
	return &memoryTables{rows: make(map[string][]gateway.Row)}
}

func matches(row gateway.Row, filters []gateway.Filter) bool {
	for _, f := range filters {
		if fmt.Sprint(row[f.Column]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

func stored(v interface{}) interface{} {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	return v
}

func (m *memoryTables) Select(ctx context.Context, table string, filters []gateway.Filter, order *gateway.Order) ([]gateway.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	out := []gateway.Row{}
	for _, row := range m.rows[table] {
		if matches(row, filters) {
			copied := gateway.Row{}
			for k, v := range row {
				copied[k] = v
			}
			out = append(out, copied)
		}
	}
	if order != nil {
		sort.SliceStable(out, func(i, j int) bool {
			less := integer(out[i], order.Column) < integer(out[j], order.Column)
			if order.Ascending {
				return less
			}
			return !less
		})
	}
	return out, nil
}

func (m *memoryTables) Insert(ctx context.Context, table string, record gateway.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}

	m.nextID++
	row := gateway.Row{"id": m.nextID}
	for k, v := range record {
		row[k] = stored(v)
	}
	m.rows[table] = append(m.rows[table], row)
	return nil
}

func (m *memoryTables) Update(ctx context.Context, table string, record gateway.Record, filters []gateway.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}

	var n int64
	for _, row := range m.rows[table] {
		if matches(row, filters) {
			for k, v := range record {
				row[k] = stored(v)
			}
			n++
		}
	}
	return n, nil
}

func (m *memoryTables) Delete(ctx context.Context, table string, filters []gateway.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}

	kept := m.rows[table][:0]
	var n int64
	for _, row := range m.rows[table] {
		if matches(row, filters) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	m.rows[table] = kept
	return n, nil
}

type upload struct {
	bucket, path string
	data         []byte
	opts         gateway.UploadOptions
}

type memoryFiles struct {
	uploads []upload
	err     error
}

func (f *memoryFiles) Upload(ctx context.Context, bucket, path string, data []byte, opts gateway.UploadOptions) error {
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, upload{bucket: bucket, path: path, data: data, opts: opts})
	return nil
}

func (f *memoryFiles) PublicURL(bucket, path string) string {
	return "https://cdn.test/storage/v1/object/public/" + bucket + "/" + path
}
