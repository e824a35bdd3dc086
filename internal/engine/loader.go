package engine

import (
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/csv"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"go.uber.org/zap"
)

// TabularDataSource reads a definitions file into header/value columns.
type TabularDataSource interface {
	Read(ctx context.Context, path string) (Dataset, error)
}

// CSVSource reads comma separated definitions files through the arrow CSV
// reader, treating every column as text. Typing happens in Build.
type CSVSource struct {
	mem   memory.Allocator
	comma rune
	chunk int
}

type CSVOption func(*CSVSource)

func WithAllocator(mem memory.Allocator) CSVOption {
	return func(s *CSVSource) { s.mem = mem }
}

func WithComma(r rune) CSVOption {
	return func(s *CSVSource) { s.comma = r }
}

// WithChunk sets how many rows the reader decodes per arrow record.
func WithChunk(rows int) CSVOption {
	return func(s *CSVSource) { s.chunk = rows }
}

func NewCSVSource(opts ...CSVOption) *CSVSource {
	s := &CSVSource{mem: memory.DefaultAllocator, comma: ',', chunk: 256}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (s *CSVSource) Read(ctx context.Context, path string) (Dataset, error) {
	// A. Read File
	content, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read definitions %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	// B. Header row decides the column count; every column is read as text.
	headers, err := s.readHeader(content)
	if errors.Is(err, io.EOF) {
		return Dataset{}, nil
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("read header of %s: %w", path, err)
	}

	fields := make([]arrow.Field, len(headers))
	for i, h := range headers {
		fields[i] = arrow.Field{Name: h, Type: arrow.BinaryTypes.String}
	}
	r := csv.NewReader(bytes.NewReader(content), arrow.NewSchema(fields, nil),
		csv.WithHeader(true),
		csv.WithComma(s.comma),
		csv.WithChunk(s.chunk),
		csv.WithAllocator(s.mem),
	)
	defer r.Release()

	// C. Drain records into per-column slices
	values := make([][]string, len(headers))
	rows := 0
	for r.Next() {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		rec := r.Record()
		for i := range values {
			col, ok := rec.Column(i).(*array.String)
			if !ok {
				return Dataset{}, fmt.Errorf("column %q decoded as %s", headers[i], rec.Column(i).DataType())
			}
			for j := 0; j < col.Len(); j++ {
				// record buffers are reused by the next call to Next
				values[i] = append(values[i], strings.Clone(col.Value(j)))
			}
		}
		rows += int(rec.NumRows())
	}
	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return Dataset{}, fmt.Errorf("parse definitions %s: %w", path, err)
	}

	ds := Dataset{Columns: make([]Column, len(headers)), Rows: rows}
	for i, h := range headers {
		vals := values[i]
		if vals == nil {
			vals = []string{}
		}
		ds.Columns[i] = Column{Header: h, Values: vals}
	}
	return ds, nil
}

// readHeader parses only the first record; quoted headers may span lines.
func (s *CSVSource) readHeader(content []byte) ([]string, error) {
	hr := stdcsv.NewReader(bytes.NewReader(content))
	hr.Comma = s.comma
	hr.FieldsPerRecord = -1
	return hr.Read()
}

// Load reads path through src and builds the Definitions. Any failure is final.
func Load(ctx context.Context, src TabularDataSource, path string, logger *zap.Logger) (*Definitions, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	logger.Info("loading functional group definitions", zap.String("path", path))

	ds, err := src.Read(ctx, path)
	if err != nil {
		logger.Error("read definitions failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	defs, err := Build(ds)
	if err != nil {
		logger.Error("build definitions failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("build definitions from %s: %w", path, err)
	}

	logger.Info("load complete",
		zap.Int("groups", defs.EntityCount()),
		zap.Int("traits", len(defs.traits.values)),
		zap.Int("properties", len(defs.properties.values)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return defs, nil
}

// Load runs the one-shot load through the lifecycle, publishing the result.
func (l *Lifecycle) Load(ctx context.Context, src TabularDataSource, path string, logger *zap.Logger) (*Definitions, error) {
	if err := l.Begin(); err != nil {
		return nil, err
	}
	defs, err := Load(ctx, src, path, logger)
	if err != nil {
		_ = l.Fail(err)
		return nil, err
	}
	if err := l.Complete(defs); err != nil {
		return nil, err
	}
	return defs, nil
}
