// Package engine defines the gateway-side view of the remote analytics
// engine: how an app session is opened, how a hypercube is built and paged,
// and how the paged result is assembled into one client-friendly shape.
package engine

import "context"

// Dialer opens an app session on the remote engine on behalf of one user.
// Sessions are opened per request and must be closed by the caller; they are
// never pooled or reused.
type Dialer interface {
	Open(ctx context.Context, appID, accessToken string) (AppConn, error)
}

// AppConn is one open app session.
type AppConn interface {
	SheetList(ctx context.Context) ([]Sheet, error)
	CreateCube(ctx context.Context, def CubeDef) (CubeModel, error)
	Close(ctx context.Context) error
}

// CubeModel is a hypercube object created on an open app session.
type CubeModel interface {
	Layout(ctx context.Context) (CubeLayout, error)
	Page(ctx context.Context, page Page) ([]Row, error)
}

// Sheet describes one sheet of the remote app.
type Sheet struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// CubeDef declares the hypercube to build: one dimension and one measure.
// Generalizing to N columns is a future extension, not a current guarantee.
type CubeDef struct {
	Dimension     string
	Measure       string
	InitialHeight int
	InitialWidth  int
}

// Cell is one typed value of a hypercube row. Only the display text is
// carried through to clients.
type Cell struct {
	Text string
	Num  float64
}

// Row is an ordered sequence of cells.
type Row struct {
	Cells []Cell
}

// CubeLayout is the engine's answer to the initial fetch: the first page of
// rows plus the full cube dimensions.
type CubeLayout struct {
	Rows      []Row
	TotalRows int
	TotalCols int
}

// Page addresses one rectangular window of the cube.
type Page struct {
	Top    int
	Left   int
	Width  int
	Height int
}
