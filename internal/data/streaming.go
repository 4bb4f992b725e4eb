package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// DataBatch holds consecutive rows of a CSV file. Rows[i] is the zero-based data
// row X[i] was read from; Offset counts the rows emitted by earlier batches.
type DataBatch struct {
	X      [][]decimal.Decimal
	Labels []string
	Rows   []int
	Offset int
	Size   int
}

// StreamingReader reads a CSV file in fixed size batches. With labelCol < 0 every
// column is treated as a feature, which is what prediction input looks like.
//
// Empty feature cells read as zero unless SkipIncomplete is set, in which case
// the whole row is dropped.
type StreamingReader struct {
	SkipIncomplete bool

	file      *os.File
	reader    *csv.Reader
	headers   []string
	labelCol  int
	batchSize int
	line      int
	row       int
	offset    int
}

type ReaderOption func(*StreamingReader)

// SkipIncompleteRows drops rows that have an empty cell.
func SkipIncompleteRows() ReaderOption {
	return func(sr *StreamingReader) {
		sr.SkipIncomplete = true
	}
}

func NewStreamingReader(filename string, labelCol int, batchSize int) (*StreamingReader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	if labelCol >= len(headers) {
		labelCol = len(headers) - 1
	}

	return &StreamingReader{
		file:      file,
		reader:    reader,
		headers:   headers,
		labelCol:  labelCol,
		batchSize: batchSize,
		line:      1,
	}, nil
}

// ReadBatch returns io.EOF once the file is exhausted.
func (sr *StreamingReader) ReadBatch() (*DataBatch, error) {
	batch := &DataBatch{
		X:      make([][]decimal.Decimal, 0, sr.batchSize),
		Labels: make([]string, 0, sr.batchSize),
		Rows:   make([]int, 0, sr.batchSize),
		Offset: sr.offset,
	}

	for len(batch.X) < sr.batchSize {
		record, err := sr.reader.Read()
		if errors.Is(err, io.EOF) {
			if len(batch.X) == 0 {
				return nil, io.EOF
			}
			break
		}
		sr.line++
		if err != nil {
			return nil, fmt.Errorf("error reading record: %w", err)
		}

		row := sr.row
		sr.row++
		if sr.SkipIncomplete && hasEmptyCell(record) {
			continue
		}

		features := make([]decimal.Decimal, 0, len(record))
		label := ""
		for j, val := range record {
			val = strings.TrimSpace(val)
			if j == sr.labelCol {
				label = val
				continue
			}
			if val == "" {
				features = append(features, decimal.Zero)
				continue
			}
			decVal, err := decimal.NewFromString(val)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %d: invalid number %q", sr.line, j+1, val)
			}
			features = append(features, decVal)
		}

		batch.X = append(batch.X, features)
		batch.Labels = append(batch.Labels, label)
		batch.Rows = append(batch.Rows, row)
	}

	batch.Size = len(batch.X)
	sr.offset += batch.Size
	return batch, nil
}

func hasEmptyCell(record []string) bool {
	for _, val := range record {
		if strings.TrimSpace(val) == "" {
			return true
		}
	}
	return false
}

func (sr *StreamingReader) GetHeaders() []string {
	return sr.headers
}

func (sr *StreamingReader) HasLabels() bool {
	return sr.labelCol >= 0
}

func (sr *StreamingReader) Close() error {
	return sr.file.Close()
}

func ProcessFile(filename string, labelCol, batchSize int, processor func(*DataBatch) error, opts ...ReaderOption) error {
	reader, err := NewStreamingReader(filename, labelCol, batchSize)
	if err != nil {
		return err
	}
	defer reader.Close()
	for _, opt := range opts {
		opt(reader)
	}

	batchNum := 0
	for {
		batch, err := reader.ReadBatch()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading batch %d: %w", batchNum, err)
		}

		if err := processor(batch); err != nil {
			return fmt.Errorf("error processing batch %d: %w", batchNum, err)
		}

		batchNum++
	}

	return nil
}
