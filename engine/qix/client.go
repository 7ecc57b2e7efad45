// Package qix implements the engine interfaces over the analytics engine's
// JSON-RPC WebSocket protocol.
package qix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/jrsteele09/go-embed-gateway/engine"
)

const (
	globalHandle  = -1
	sheetListType = "SheetList"
	cubeType      = "my-straight-hypercube"
)

// Dialer opens engine app sessions over WebSocket. One Dialer serves the
// whole process; each Open produces an independent connection that the caller
// must Close.
type Dialer struct {
	tenantURI  string
	httpClient *http.Client
	timeout    time.Duration
}

var _ engine.Dialer = (*Dialer)(nil)

type DialerOption func(*Dialer)

func WithHTTPClient(httpClient *http.Client) DialerOption {
	return func(d *Dialer) {
		d.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) DialerOption {
	return func(d *Dialer) {
		d.timeout = timeout
	}
}

func NewDialer(tenantURI string, options ...DialerOption) *Dialer {
	d := &Dialer{
		tenantURI: strings.TrimSuffix(tenantURI, "/"),
		timeout:   30 * time.Second,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Open dials the engine for appID, authenticating with accessToken, and opens
// the app document. The returned AppConn owns the WebSocket connection.
func (d *Dialer) Open(ctx context.Context, appID, accessToken string) (engine.AppConn, error) {
	wsURL, err := d.appSocketURL(appID)
	if err != nil {
		return nil, fmt.Errorf("[Dialer.Open] %w: %w", engine.ErrOpenFailed, err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		HTTPClient: d.httpClient,
		HTTPHeader: http.Header{"Authorization": {"Bearer " + accessToken}},
	})
	if err != nil {
		return nil, fmt.Errorf("[Dialer.Open] %w: %w", engine.ErrOpenFailed, err)
	}

	c := &appConn{
		conn:    conn,
		timeout: d.timeout,
	}

	var result struct {
		Return struct {
			Handle int `json:"qHandle"`
		} `json:"qReturn"`
	}
	if err := c.call(ctx, "OpenDoc", globalHandle, map[string]any{"qDocName": appID}, &result); err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("[Dialer.Open] open doc: %w: %w", engine.ErrOpenFailed, err)
	}
	c.docHandle = result.Return.Handle

	return c, nil
}

func (d *Dialer) appSocketURL(appID string) (string, error) {
	parsed, err := url.Parse(d.tenantURI)
	if err != nil {
		return "", fmt.Errorf("parse tenant URI: %w", err)
	}
	switch parsed.Scheme {
	case "https", "wss":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}
	parsed.Path = "/app/" + appID
	return parsed.String(), nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Handle  int    `json:"handle"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Parameter string `json:"parameter"`
}

type rpcResponse struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// appConn is one open app session. Calls are strictly sequential: one request
// in flight at a time, which matches the request chain this gateway issues.
type appConn struct {
	conn      *websocket.Conn
	timeout   time.Duration
	docHandle int

	mu     sync.Mutex
	nextID int
}

var _ engine.AppConn = (*appConn)(nil)

// call issues one JSON-RPC request and waits for its response, skipping any
// notifications the engine interleaves (session announcements, change lists).
func (c *appConn) call(ctx context.Context, method string, handle int, params any, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.nextID++
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID,
		Method:  method,
		Handle:  handle,
		Params:  params,
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}

	if err := wsjson.Write(ctx, c.conn, req); err != nil {
		return fmt.Errorf("%s: write: %w", method, err)
	}

	for {
		var resp rpcResponse
		if err := wsjson.Read(ctx, c.conn, &resp); err != nil {
			return fmt.Errorf("%s: read: %w", method, err)
		}
		if resp.ID == nil || *resp.ID != req.ID {
			continue
		}
		if resp.Error != nil {
			return fmt.Errorf("%s: engine error %d: %s", method, resp.Error.Code, resp.Error.Message)
		}
		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("%s: decode result: %w", method, err)
			}
		}
		return nil
	}
}

func (c *appConn) createSessionObject(ctx context.Context, properties map[string]any) (int, error) {
	var result struct {
		Return struct {
			Handle int `json:"qHandle"`
		} `json:"qReturn"`
	}
	err := c.call(ctx, "CreateSessionObject", c.docHandle, map[string]any{"qProp": properties}, &result)
	if err != nil {
		return 0, err
	}
	return result.Return.Handle, nil
}

func (c *appConn) SheetList(ctx context.Context) ([]engine.Sheet, error) {
	handle, err := c.createSessionObject(ctx, map[string]any{
		"qInfo": map[string]any{"qType": sheetListType},
		"qAppObjectListDef": map[string]any{
			"qType": "sheet",
			"qData": map[string]any{
				"title":       "/qMetaDef/title",
				"description": "/qMetaDef/description",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[appConn.SheetList] %w", err)
	}

	var layout struct {
		Layout struct {
			AppObjectList struct {
				Items []struct {
					Info struct {
						ID string `json:"qId"`
					} `json:"qInfo"`
					Data struct {
						Title       string `json:"title"`
						Description string `json:"description"`
					} `json:"qData"`
				} `json:"qItems"`
			} `json:"qAppObjectList"`
		} `json:"qLayout"`
	}
	if err := c.call(ctx, "GetLayout", handle, nil, &layout); err != nil {
		return nil, fmt.Errorf("[appConn.SheetList] %w", err)
	}

	sheets := make([]engine.Sheet, 0, len(layout.Layout.AppObjectList.Items))
	for _, item := range layout.Layout.AppObjectList.Items {
		sheets = append(sheets, engine.Sheet{
			ID:          item.Info.ID,
			Title:       item.Data.Title,
			Description: item.Data.Description,
		})
	}
	return sheets, nil
}

func (c *appConn) CreateCube(ctx context.Context, def engine.CubeDef) (engine.CubeModel, error) {
	handle, err := c.createSessionObject(ctx, map[string]any{
		"qInfo": map[string]any{"qType": cubeType},
		"qHyperCubeDef": map[string]any{
			"qDimensions": []any{
				map[string]any{"qDef": map[string]any{"qFieldDefs": []string{def.Dimension}}},
			},
			"qMeasures": []any{
				map[string]any{"qDef": map[string]any{"qDef": def.Measure}},
			},
			"qInitialDataFetch": []any{
				map[string]any{"qHeight": def.InitialHeight, "qWidth": def.InitialWidth},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[appConn.CreateCube] %w", err)
	}

	return &cubeModel{conn: c, handle: handle}, nil
}

func (c *appConn) Close(_ context.Context) error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

type cubeModel struct {
	conn   *appConn
	handle int
}

var _ engine.CubeModel = (*cubeModel)(nil)

// matrixCell mirrors the engine's cell encoding. qNum arrives as a JSON
// number for real values and as the string "NaN" for nulls, hence the raw
// decode.
type matrixCell struct {
	Text string          `json:"qText"`
	Num  json.RawMessage `json:"qNum"`
}

func (mc matrixCell) toCell() engine.Cell {
	cell := engine.Cell{Text: mc.Text}
	if num, err := strconv.ParseFloat(string(mc.Num), 64); err == nil {
		cell.Num = num
	}
	return cell
}

type dataPage struct {
	Matrix [][]matrixCell `json:"qMatrix"`
}

func rowsFromMatrix(matrix [][]matrixCell) []engine.Row {
	rows := make([]engine.Row, 0, len(matrix))
	for _, matrixRow := range matrix {
		cells := make([]engine.Cell, 0, len(matrixRow))
		for _, mc := range matrixRow {
			cells = append(cells, mc.toCell())
		}
		rows = append(rows, engine.Row{Cells: cells})
	}
	return rows
}

func (m *cubeModel) Layout(ctx context.Context) (engine.CubeLayout, error) {
	var layout struct {
		Layout struct {
			HyperCube struct {
				Size struct {
					Cols int `json:"qcx"`
					Rows int `json:"qcy"`
				} `json:"qSize"`
				DataPages []dataPage `json:"qDataPages"`
			} `json:"qHyperCube"`
		} `json:"qLayout"`
	}
	if err := m.conn.call(ctx, "GetLayout", m.handle, nil, &layout); err != nil {
		return engine.CubeLayout{}, fmt.Errorf("[cubeModel.Layout] %w", err)
	}

	cube := layout.Layout.HyperCube
	result := engine.CubeLayout{
		TotalRows: cube.Size.Rows,
		TotalCols: cube.Size.Cols,
	}
	if len(cube.DataPages) > 0 {
		result.Rows = rowsFromMatrix(cube.DataPages[0].Matrix)
	}
	return result, nil
}

func (m *cubeModel) Page(ctx context.Context, page engine.Page) ([]engine.Row, error) {
	params := map[string]any{
		"qPath": "/qHyperCubeDef",
		"qPages": []any{
			map[string]any{
				"qTop":    page.Top,
				"qLeft":   page.Left,
				"qWidth":  page.Width,
				"qHeight": page.Height,
			},
		},
	}

	var result struct {
		DataPages []dataPage `json:"qDataPages"`
	}
	if err := m.conn.call(ctx, "GetHyperCubeData", m.handle, params, &result); err != nil {
		return nil, fmt.Errorf("[cubeModel.Page] %w", err)
	}
	if len(result.DataPages) == 0 {
		return nil, nil
	}
	return rowsFromMatrix(result.DataPages[0].Matrix), nil
}
