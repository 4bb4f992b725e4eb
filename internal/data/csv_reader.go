package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Dataset is a labelled feature matrix loaded from CSV. The last column is the label.
type Dataset struct {
	X        [][]decimal.Decimal
	Labels   []string
	Features []string
	Source   string
}

func (ds *Dataset) Len() int {
	return len(ds.X)
}

// IntLabels returns the labels as ints when every label is a canonical integer
// literal. "01" or "+1" would collide with "1" once parsed, so they keep the
// labels on the string path.
func (ds *Dataset) IntLabels() ([]int, bool) {
	y := make([]int, len(ds.Labels))
	for i, label := range ds.Labels {
		label = strings.TrimSpace(label)
		v, err := strconv.Atoi(label)
		if err != nil || strconv.Itoa(v) != label {
			return nil, false
		}
		y[i] = v
	}
	return y, true
}

type CSVReader struct {
	filename string
}

func NewCSVReader(filename string) (*CSVReader, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("dataset %s is a directory", filename)
	}
	return &CSVReader{filename: filename}, nil
}

func (cr *CSVReader) LoadDataset() (*Dataset, error) {
	file, err := os.Open(cr.filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cr.filename, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("insufficient data in file %s", cr.filename)
	}
	if len(records[0]) < 2 {
		return nil, fmt.Errorf("%s: need at least one feature column and a label column", cr.filename)
	}

	headers := records[0][:len(records[0])-1]
	rows := records[1:]

	ds := &Dataset{
		X:        make([][]decimal.Decimal, len(rows)),
		Labels:   make([]string, len(rows)),
		Features: headers,
		Source:   cr.filename,
	}

	for i, record := range rows {
		features, err := parseFeatures(record[:len(record)-1], i+2)
		if err != nil {
			return nil, err
		}
		ds.X[i] = features
		ds.Labels[i] = strings.TrimSpace(record[len(record)-1])
	}

	return ds, nil
}

func parseFeatures(cells []string, line int) ([]decimal.Decimal, error) {
	features := make([]decimal.Decimal, len(cells))
	for j, cell := range cells {
		val, err := decimal.NewFromString(strings.TrimSpace(cell))
		if err != nil {
			return nil, fmt.Errorf("line %d, column %d: invalid number %q", line, j+1, cell)
		}
		features[j] = val
	}
	return features, nil
}
