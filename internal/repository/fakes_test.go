package repository

import (
	"context"
	"errors"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

// assign copies values into scan destinations, allocating for pointer
// destinations the way pgx does for nullable columns.
func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return errors.New("scan: column count mismatch")
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d).Elem()
		v := values[i]
		if v == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		vv := reflect.ValueOf(v)
		if dv.Kind() == reflect.Pointer && vv.Type() != dv.Type() {
			p := reflect.New(dv.Type().Elem())
			p.Elem().Set(vv.Convert(dv.Type().Elem()))
			dv.Set(p)
			continue
		}
		dv.Set(vv.Convert(dv.Type()))
	}
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *fakeRows) Close() { r.closed = true }

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *fakeRows) Values() ([]any, error) { return r.data[r.idx-1], nil }

func (r *fakeRows) RawValues() [][]byte { return nil }

func (r *fakeRows) Conn() *pgx.Conn { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.idx-1])
}

type fakeBatchResults struct {
	tags    []string
	rows    []fakeRow
	execErr error
	i       int
	closed  bool
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	if b.execErr != nil {
		return pgconn.CommandTag{}, b.execErr
	}
	tag := "UPDATE 1"
	if b.i < len(b.tags) {
		tag = b.tags[b.i]
	}
	b.i++
	return pgconn.NewCommandTag(tag), nil
}

func (b *fakeBatchResults) Query() (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBatchResults) QueryRow() pgx.Row {
	row := b.rows[b.i]
	b.i++
	return row
}

func (b *fakeBatchResults) Close() error {
	b.closed = true
	return nil
}

type fakePool struct {
	execSQL  []string
	execArgs [][]any
	execTag  string
	execErr  error

	batch   *pgx.Batch
	results *fakeBatchResults

	querySQL  string
	queryArgs []any
	rows      *fakeRows
	queryErr  error

	rowSQL  string
	rowArgs []any
	row     fakeRow
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execSQL = append(p.execSQL, sql)
	p.execArgs = append(p.execArgs, args)
	return pgconn.NewCommandTag(p.execTag), p.execErr
}

func (p *fakePool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	p.batch = b
	if p.results == nil {
		p.results = &fakeBatchResults{}
	}
	return p.results
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.querySQL = sql
	p.queryArgs = args
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	if p.rows == nil {
		p.rows = &fakeRows{}
	}
	return p.rows, nil
}

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	p.rowSQL = sql
	p.rowArgs = args
	return p.row
}
