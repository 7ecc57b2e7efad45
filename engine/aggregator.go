package engine

import (
	"context"
	"fmt"
)

const (
	defaultPageHeight    = 5
	dimensionColumn      = 0
	measureColumn        = 1
	projectedColumnCount = 2
)

// Hypercube is a fully assembled paged result, projected to the fixed
// one-dimension/one-measure shape the embedded UI consumes.
type Hypercube struct {
	Dimension []string `json:"returnedDimension"`
	Measure   []string `json:"returnedMeasure"`
}

// Aggregator drives the remote paged-query protocol to completion and merges
// all pages into one ordered result. Pages are fetched strictly in increasing
// offset order; there is no cross-page parallelism because every follow-up
// page depends on the totals reported by the first.
type Aggregator struct {
	pageHeight int
}

type AggregatorOption func(*Aggregator)

func WithPageHeight(height int) AggregatorOption {
	return func(a *Aggregator) {
		if height > 0 {
			a.pageHeight = height
		}
	}
}

func NewAggregator(options ...AggregatorOption) *Aggregator {
	a := &Aggregator{pageHeight: defaultPageHeight}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// FetchHypercube builds the cube on conn, pages it to completion and projects
// the merged rows. Any page failure aborts the whole fetch; no partial result
// is ever returned.
func (a *Aggregator) FetchHypercube(ctx context.Context, conn AppConn, def CubeDef) (*Hypercube, error) {
	// The initial fetch window must match the page height, otherwise the
	// follow-up pages would re-read rows the first window already covered.
	def.InitialHeight = a.pageHeight
	def.InitialWidth = projectedColumnCount

	model, err := conn.CreateCube(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("[Aggregator.FetchHypercube] create cube: %w", err)
	}

	layout, err := model.Layout(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Aggregator.FetchHypercube] layout: %w", err)
	}

	rows, err := a.collectRows(ctx, model, layout)
	if err != nil {
		return nil, err
	}

	return project(rows), nil
}

// collectRows appends pages 2..N to the first page reported by the layout.
// The engine truncates the final page, so the append never assumes a fixed
// page size.
func (a *Aggregator) collectRows(ctx context.Context, model CubeModel, layout CubeLayout) ([]Row, error) {
	rows := layout.Rows
	if len(rows) > a.pageHeight {
		rows = rows[:a.pageHeight]
	}

	numberOfPages := (layout.TotalRows + a.pageHeight - 1) / a.pageHeight
	for i := 1; i < numberOfPages; i++ {
		page := Page{
			Top:    a.pageHeight * i,
			Left:   0,
			Width:  layout.TotalCols,
			Height: a.pageHeight,
		}
		pageRows, err := model.Page(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("[Aggregator.collectRows] page at offset %d: %w: %w", page.Top, ErrPartialData, err)
		}
		rows = append(rows, pageRows...)
	}

	return rows, nil
}

// project extracts the display text of the dimension and measure columns into
// two parallel sequences, preserving row order.
func project(rows []Row) *Hypercube {
	cube := &Hypercube{
		Dimension: make([]string, 0, len(rows)),
		Measure:   make([]string, 0, len(rows)),
	}
	for _, row := range rows {
		var dimension, measure string
		if len(row.Cells) > dimensionColumn {
			dimension = row.Cells[dimensionColumn].Text
		}
		if len(row.Cells) > measureColumn {
			measure = row.Cells[measureColumn].Text
		}
		cube.Dimension = append(cube.Dimension, dimension)
		cube.Measure = append(cube.Measure, measure)
	}
	return cube
}
