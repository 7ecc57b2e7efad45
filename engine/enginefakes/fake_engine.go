package enginefakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-embed-gateway/engine"
)

var (
	_ engine.Dialer    = (*FakeDialer)(nil)
	_ engine.AppConn   = (*FakeAppConn)(nil)
	_ engine.CubeModel = (*FakeCubeModel)(nil)
)

// FakeDialer hands out a prepared FakeAppConn and records open calls.
type FakeDialer struct {
	lock    sync.Mutex
	Conn    *FakeAppConn
	OpenErr error

	openCalls int
	lastAppID string
	lastToken string
}

func NewFakeDialer(conn *FakeAppConn) *FakeDialer {
	return &FakeDialer{Conn: conn}
}

func (d *FakeDialer) Open(_ context.Context, appID, accessToken string) (engine.AppConn, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.openCalls++
	d.lastAppID = appID
	d.lastToken = accessToken
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	return d.Conn, nil
}

func (d *FakeDialer) OpenCalls() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.openCalls
}

func (d *FakeDialer) LastOpen() (appID, token string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.lastAppID, d.lastToken
}

// FakeAppConn is an in-memory app session.
type FakeAppConn struct {
	lock sync.Mutex

	Sheets    []engine.Sheet
	SheetsErr error

	Model     *FakeCubeModel
	CreateErr error

	closed  bool
	lastDef engine.CubeDef
}

func NewFakeAppConn(model *FakeCubeModel) *FakeAppConn {
	return &FakeAppConn{Model: model}
}

func (c *FakeAppConn) SheetList(_ context.Context) ([]engine.Sheet, error) {
	if c.SheetsErr != nil {
		return nil, c.SheetsErr
	}
	return c.Sheets, nil
}

func (c *FakeAppConn) CreateCube(_ context.Context, def engine.CubeDef) (engine.CubeModel, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.lastDef = def
	if c.CreateErr != nil {
		return nil, c.CreateErr
	}
	if c.Model != nil {
		c.Model.setInitialHeight(def.InitialHeight)
	}
	return c.Model, nil
}

func (c *FakeAppConn) Close(_ context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed = true
	return nil
}

func (c *FakeAppConn) Closed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}

func (c *FakeAppConn) LastCubeDef() engine.CubeDef {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lastDef
}

// FakeCubeModel serves pages out of a preloaded row set.
type FakeCubeModel struct {
	lock sync.Mutex

	AllRows   []engine.Row
	TotalCols int

	LayoutErr error
	// FailAtPage aborts the fetch whose Top equals this offset (0 disables).
	FailAtPage int

	initialHeight int
	pageRequests  []engine.Page
}

func NewFakeCubeModel(rows []engine.Row, totalCols int) *FakeCubeModel {
	return &FakeCubeModel{AllRows: rows, TotalCols: totalCols, initialHeight: 5}
}

func (m *FakeCubeModel) setInitialHeight(height int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if height > 0 {
		m.initialHeight = height
	}
}

func (m *FakeCubeModel) Layout(_ context.Context) (engine.CubeLayout, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.LayoutErr != nil {
		return engine.CubeLayout{}, m.LayoutErr
	}

	first := m.AllRows
	if len(first) > m.initialHeight {
		first = first[:m.initialHeight]
	}
	return engine.CubeLayout{
		Rows:      first,
		TotalRows: len(m.AllRows),
		TotalCols: m.TotalCols,
	}, nil
}

func (m *FakeCubeModel) Page(_ context.Context, page engine.Page) ([]engine.Row, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.pageRequests = append(m.pageRequests, page)
	if m.FailAtPage != 0 && page.Top == m.FailAtPage {
		return nil, fmt.Errorf("engine dropped the session")
	}

	if page.Top >= len(m.AllRows) {
		return nil, nil
	}
	end := page.Top + page.Height
	if end > len(m.AllRows) {
		end = len(m.AllRows)
	}
	return m.AllRows[page.Top:end], nil
}

func (m *FakeCubeModel) PageRequests() []engine.Page {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]engine.Page(nil), m.pageRequests...)
}
