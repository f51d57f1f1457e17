package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantframe/walkeval/pkg/types"
)

// CSVProvider implements PanelProvider for CSV files.
type CSVProvider struct {
	format PanelFormat
}

// NewCSVProvider creates a CSV panel provider with the default format.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultPanelFormat}
}

// NewCSVProviderWithFormat creates a CSV panel provider with a custom
// column mapping.
func NewCSVProviderWithFormat(format PanelFormat) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the name of the provider.
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadPanel loads the feature/label panel from a CSV file. Malformed rows
// are skipped with a warning rather than aborting the load; empty, "NA" or
// "NaN" cells become NaN values.
func (p *CSVProvider) LoadPanel(source string) (*types.Panel, error) {
	rows, _, err := p.readRows(source)
	if err != nil {
		return nil, err
	}
	return types.NewPanel(rows), nil
}

// LoadPrices loads the close-price column as a date-by-entity table for the
// backtest accumulator.
func (p *CSVProvider) LoadPrices(source string) (*types.ScoreTable, error) {
	if p.format.PriceCol < 0 {
		return nil, fmt.Errorf("format carries no price column")
	}
	rows, prices, err := p.readRows(source)
	if err != nil {
		return nil, err
	}
	table := types.NewScoreTable()
	for i, r := range rows {
		if !math.IsNaN(prices[i]) {
			table.Set(r.Date, r.Entity, prices[i])
		}
	}
	return table, nil
}

// readRows parses the file into panel rows plus a parallel price slice.
func (p *CSVProvider) readRows(filename string) ([]types.Row, []float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open panel file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, nil, fmt.Errorf("could not read header: %w", err)
	}

	var (
		rows   []types.Row
		prices []float64
	)
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < p.format.MinColumns {
			log.Warn().Int("line", lineNum).Int("columns", len(record)).
				Msg("insufficient columns, skipping row")
			continue
		}

		date, err := time.Parse(p.format.DateFormat, record[p.format.DateCol])
		if err != nil {
			log.Warn().Int("line", lineNum).Str("value", record[p.format.DateCol]).
				Msg("invalid date, skipping row")
			continue
		}

		entity := strings.TrimSpace(record[p.format.EntityCol])
		if entity == "" {
			log.Warn().Int("line", lineNum).Msg("empty entity, skipping row")
			continue
		}

		features := make([]float64, 0, len(record))
		for _, col := range p.featureColumns(len(record)) {
			features = append(features, parseCell(record[col]))
		}

		label := math.NaN()
		if col := p.labelColumn(len(record)); col >= 0 {
			label = parseCell(record[col])
		}

		price := math.NaN()
		if p.format.PriceCol >= 0 && p.format.PriceCol < len(record) {
			price = parseCell(record[p.format.PriceCol])
		}

		rows = append(rows, types.Row{Date: date.UTC(), Entity: entity, Features: features, Label: label})
		prices = append(prices, price)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("panel file %s contains no parseable rows", filename)
	}
	return rows, prices, nil
}

// featureColumns resolves the feature column set for a record width.
func (p *CSVProvider) featureColumns(width int) []int {
	if p.format.FeatureCols != nil {
		return p.format.FeatureCols
	}
	claimed := map[int]bool{
		p.format.DateCol:   true,
		p.format.EntityCol: true,
	}
	if p.format.PriceCol >= 0 {
		claimed[p.format.PriceCol] = true
	}
	if lc := p.labelColumn(width); lc >= 0 {
		claimed[lc] = true
	}
	var cols []int
	for c := 0; c < width; c++ {
		if !claimed[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// labelColumn resolves the label column, where -1 in the format means "the
// last column".
func (p *CSVProvider) labelColumn(width int) int {
	if p.format.LabelCol == -1 {
		return width - 1
	}
	return p.format.LabelCol
}

// parseCell parses a numeric cell, mapping empty and NA markers to NaN.
func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
