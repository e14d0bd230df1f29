package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/pkg/logger"
	"github.com/burns-20/bwrank/pkg/metrics"
)

// Column names of the history file, in write order.
var Columns = []string{"date", "server", "position", "name", "race", "points"}

const (
	sniffBytes      = 2048
	writeDelimiter  = ';'
	utf8BOM         = "\ufeff"
	historyFileMode = 0o644
)

// CSVStore keeps the history in a delimited text file. It is the canonical
// backend: one row per observation, appended and never rewritten.
type CSVStore struct {
	path string
	opts options
	mu   sync.Mutex
}

var _ Store = (*CSVStore)(nil)

// NewCSVStore returns a store backed by the file at path. The file is
// created on the first Append.
func NewCSVStore(path string, opts ...Option) *CSVStore {
	return &CSVStore{path: path, opts: newOptions(opts)}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// LoadAll reads the whole file.
func (s *CSVStore) LoadAll(ctx context.Context) ([]model.Observation, error) {
	start := time.Now()
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrHistoryNotFound, s.path)
		}
		metrics.RecordHistoryLoadFailure(BackendCSV, "open")
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	obs, err := s.decode(f)
	if err != nil {
		reason := "read"
		if errors.Is(err, ErrMalformedRecord) {
			reason = "malformed"
		} else if errors.Is(err, ErrMissingColumn) {
			reason = "missing_column"
		}
		metrics.RecordHistoryLoadFailure(BackendCSV, reason)
		s.opts.logger.Error(ctx, "history load failed", logger.String("path", s.path), logger.Error(err))
		return nil, err
	}

	metrics.RecordHistoryLoadDuration(float64(time.Since(start).Milliseconds()))
	s.opts.logger.Debug(ctx, "history loaded",
		logger.String("path", s.path),
		logger.Int("observations", len(obs)),
	)
	return obs, nil
}

// Decode parses a history document from r, detecting the delimiter and
// mapping columns by header name.
func Decode(r io.Reader, opts ...Option) ([]model.Observation, error) {
	s := &CSVStore{opts: newOptions(opts)}
	return s.decode(r)
}

func (s *CSVStore) decode(r io.Reader) ([]model.Observation, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	sample, err := br.Peek(sniffBytes)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read history: %w", err)
	}

	delim := DetectDelimiter(sample)
	if bytes.HasPrefix(sample, []byte(utf8BOM)) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.Observation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	tr := s.opts.translator
	out := make([]model.Observation, 0)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		if blank(rec) {
			continue
		}
		field := func(name string) string {
			i := idx[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		number := func(name string) (int, error) {
			v := field(name)
			n, err := strconv.Atoi(v)
			if err != nil {
				line, _ := cr.FieldPos(min(idx[name], len(rec)-1))
				return 0, &MalformedRecordError{Line: line, Field: name, Value: v, Err: err}
			}
			return n, nil
		}

		pos, err := number("position")
		if err != nil {
			return nil, err
		}
		pts, err := number("points")
		if err != nil {
			return nil, err
		}
		server := field("server")
		out = append(out, model.Observation{
			Date:       field("date"),
			Server:     server,
			ServerName: tr.Server(server),
			Position:   pos,
			Name:       field("name"),
			Race:       tr.Race(field("race")),
			Points:     pts,
		})
	}
	return out, nil
}

// DetectDelimiter picks ';' when it is strictly more frequent than ',' in
// sample, ',' otherwise.
func DetectDelimiter(sample []byte) rune {
	if len(sample) > sniffBytes {
		sample = sample[:sniffBytes]
	}
	if bytes.Count(sample, []byte{';'}) > bytes.Count(sample, []byte{','}) {
		return ';'
	}
	return ','
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Append writes obs at the end of the file, one fully quoted row each. Rows
// follow the delimiter and column order of an existing file; a new or empty
// file gets a ';' header first.
func (s *CSVStore) Append(ctx context.Context, obs ...model.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_RDWR, historyFileMode)
	if err != nil {
		metrics.RecordHistoryAppendFailure(BackendCSV)
		return fmt.Errorf("open history for append: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		metrics.RecordHistoryAppendFailure(BackendCSV)
		return fmt.Errorf("stat history: %w", err)
	}

	var buf bytes.Buffer
	layout := newFileLayout()
	if info.Size() == 0 {
		writeRow(&buf, layout.delim, Columns)
	} else {
		layout, err = readLayout(f, info.Size())
		if err != nil {
			metrics.RecordHistoryAppendFailure(BackendCSV)
			return err
		}
		if !layout.endsWithNewline {
			buf.WriteString("\r\n")
		}
		if layout.needsHeader {
			writeRow(&buf, layout.delim, layout.header)
		}
	}
	for _, o := range obs {
		writeRow(&buf, layout.delim, layout.row(map[string]string{
			"date":     o.Date,
			"server":   o.Server,
			"position": strconv.Itoa(o.Position),
			"name":     o.Name,
			"race":     o.Race,
			"points":   strconv.Itoa(o.Points),
		}))
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		metrics.RecordHistoryAppendFailure(BackendCSV)
		s.opts.logger.Error(ctx, "history append failed", logger.String("path", s.path), logger.Error(err))
		return fmt.Errorf("append history: %w", err)
	}
	metrics.RecordHistoryAppend(BackendCSV, len(obs))
	return nil
}

// fileLayout is how an existing history file is written.
type fileLayout struct {
	delim           rune
	header          []string
	endsWithNewline bool
	needsHeader     bool
}

func newFileLayout() fileLayout {
	return fileLayout{delim: writeDelimiter, header: Columns, endsWithNewline: true}
}

// readLayout sniffs the delimiter and header of a non-empty file the same way
// decode does.
func readLayout(f *os.File, size int64) (fileLayout, error) {
	sample := make([]byte, min(size, sniffBytes))
	if _, err := f.ReadAt(sample, 0); err != nil && !errors.Is(err, io.EOF) {
		return fileLayout{}, fmt.Errorf("read history header: %w", err)
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil && !errors.Is(err, io.EOF) {
		return fileLayout{}, fmt.Errorf("read history tail: %w", err)
	}

	l := fileLayout{delim: DetectDelimiter(sample), header: Columns, endsWithNewline: last[0] == '\n'}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(sample, []byte(utf8BOM))))
	cr.Comma = l.delim
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		l.needsHeader = true
		return l, nil
	}
	if err != nil {
		return fileLayout{}, fmt.Errorf("read history header: %w", err)
	}
	if _, err := columnIndex(header); err != nil {
		return fileLayout{}, err
	}
	l.header = header
	return l, nil
}

// row orders values by the file header; unknown columns stay empty.
func (l fileLayout) row(values map[string]string) []string {
	out := make([]string, len(l.header))
	for i, h := range l.header {
		out[i] = values[strings.ToLower(strings.TrimSpace(h))]
	}
	return out
}

// writeRow quotes every field, doubling embedded quotes.
func writeRow(buf *bytes.Buffer, delim rune, fields []string) {
	for i, v := range fields {
		if i > 0 {
			buf.WriteRune(delim)
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(v, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}
