package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jrsteele09/go-embed-gateway/engine"
	"github.com/jrsteele09/go-embed-gateway/engine/enginefakes"
	"github.com/stretchr/testify/require"
)

func makeRows(n int) []engine.Row {
	rows := make([]engine.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, engine.Row{Cells: []engine.Cell{
			{Text: fmt.Sprintf("dim-%d", i)},
			{Text: fmt.Sprintf("42.%d", i), Num: 42 + float64(i)/10},
		}})
	}
	return rows
}

func TestFetchHypercubeEmptyResult(t *testing.T) {
	model := enginefakes.NewFakeCubeModel(nil, 2)
	conn := enginefakes.NewFakeAppConn(model)

	cube, err := engine.NewAggregator().FetchHypercube(context.Background(), conn, engine.CubeDef{})
	require.NoError(t, err)
	require.Empty(t, cube.Dimension)
	require.Empty(t, cube.Measure)
	require.Empty(t, model.PageRequests(), "no additional pages for an empty cube")
}

func TestFetchHypercubeSinglePage(t *testing.T) {
	model := enginefakes.NewFakeCubeModel(makeRows(5), 2)
	conn := enginefakes.NewFakeAppConn(model)

	cube, err := engine.NewAggregator().FetchHypercube(context.Background(), conn, engine.CubeDef{})
	require.NoError(t, err)
	require.Len(t, cube.Dimension, 5)
	require.Empty(t, model.PageRequests(), "a cube that fits one page needs no extra fetches")
}

func TestFetchHypercubePagination(t *testing.T) {
	model := enginefakes.NewFakeCubeModel(makeRows(23), 2)
	conn := enginefakes.NewFakeAppConn(model)

	cube, err := engine.NewAggregator().FetchHypercube(context.Background(), conn, engine.CubeDef{})
	require.NoError(t, err)

	pages := model.PageRequests()
	require.Len(t, pages, 4)
	for i, page := range pages {
		require.Equal(t, 5*(i+1), page.Top)
		require.Equal(t, 0, page.Left)
		require.Equal(t, 2, page.Width)
		require.Equal(t, 5, page.Height)
	}

	require.Len(t, cube.Dimension, 23)
	require.Len(t, cube.Measure, 23)
	for i := 0; i < 23; i++ {
		require.Equal(t, fmt.Sprintf("dim-%d", i), cube.Dimension[i], "rows must stay in original order")
	}
}

func TestFetchHypercubeShortFinalPage(t *testing.T) {
	model := enginefakes.NewFakeCubeModel(makeRows(7), 2)
	conn := enginefakes.NewFakeAppConn(model)

	cube, err := engine.NewAggregator().FetchHypercube(context.Background(), conn, engine.CubeDef{})
	require.NoError(t, err)

	pages := model.PageRequests()
	require.Len(t, pages, 1)
	require.Equal(t, 5, pages[0].Top)
	require.Len(t, cube.Dimension, 7)
}

func TestFetchHypercubePageFailureAbortsAll(t *testing.T) {
	model := enginefakes.NewFakeCubeModel(makeRows(23), 2)
	model.FailAtPage = 15
	conn := enginefakes.NewFakeAppConn(model)

	cube, err := engine.NewAggregator().FetchHypercube(context.Background(), conn, engine.CubeDef{})
	require.ErrorIs(t, err, engine.ErrPartialData)
	require.Nil(t, cube, "no partial result may escape")
}

func TestFetchHypercubeCustomPageHeight(t *testing.T) {
	model := enginefakes.NewFakeCubeModel(makeRows(10), 2)
	conn := enginefakes.NewFakeAppConn(model)

	aggregator := engine.NewAggregator(engine.WithPageHeight(10))
	cube, err := aggregator.FetchHypercube(context.Background(), conn, engine.CubeDef{})
	require.NoError(t, err)
	require.Len(t, cube.Dimension, 10)
	require.Empty(t, model.PageRequests())
}

func TestFetchHypercubeRaggedRows(t *testing.T) {
	rows := []engine.Row{
		{Cells: []engine.Cell{{Text: "only-dimension"}}},
		{Cells: nil},
	}
	model := enginefakes.NewFakeCubeModel(rows, 2)
	conn := enginefakes.NewFakeAppConn(model)

	cube, err := engine.NewAggregator().FetchHypercube(context.Background(), conn, engine.CubeDef{})
	require.NoError(t, err)
	require.Equal(t, []string{"only-dimension", ""}, cube.Dimension)
	require.Equal(t, []string{"", ""}, cube.Measure)
}
