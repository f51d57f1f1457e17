// Package data loads price/feature panels from local sources. The engine
// itself never does I/O; everything it consumes is loaded up front here.
package data

import "github.com/quantframe/walkeval/pkg/types"

// PanelProvider loads a feature/label panel and the matching close-price
// table from a data source. Sources must already be deduplicated per
// (date, entity); the engine's boundary validator rejects violations, it
// does not repair them.
type PanelProvider interface {
	// LoadPanel loads the full feature/label panel from the source.
	LoadPanel(source string) (*types.Panel, error)

	// LoadPrices loads the close-price table used by the backtest
	// accumulator downstream of the engine.
	LoadPrices(source string) (*types.ScoreTable, error)

	// GetName returns the name of the provider.
	GetName() string
}

// PanelFormat defines the column positions for panel CSV files. PriceCol
// and LabelCol may be -1 when the source carries no such column; a nil
// FeatureCols takes every column not otherwise claimed.
type PanelFormat struct {
	DateCol     int
	EntityCol   int
	PriceCol    int
	LabelCol    int
	FeatureCols []int
	MinColumns  int
	DateFormat  string
}

// DefaultPanelFormat matches the layout
// date,entity,close,feature...,label.
var DefaultPanelFormat = PanelFormat{
	DateCol:    0,
	EntityCol:  1,
	PriceCol:   2,
	LabelCol:   -1, // last column
	MinColumns: 4,
	DateFormat: "2006-01-02",
}
