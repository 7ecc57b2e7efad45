package qix_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jrsteele09/go-embed-gateway/engine"
	"github.com/jrsteele09/go-embed-gateway/engine/qix"
	"github.com/stretchr/testify/require"
)

type fakeRequest struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Handle int             `json:"handle"`
	Params json.RawMessage `json:"params"`
}

const (
	docHandle       = 1
	sheetListHandle = 2
	cubeHandle      = 3
)

// fakeEngine is a minimal JSON-RPC engine: one app, one sheet, a 7-row cube.
func fakeEngine(t *testing.T) *httptest.Server {
	t.Helper()

	matrixRow := func(i int) []map[string]any {
		return []map[string]any{
			{"qText": dimAt(i), "qNum": "NaN"},
			{"qText": measureAt(i), "qNum": float64(100 + i)},
		}
	}

	handler := func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()

		// The engine announces the session before serving requests.
		_ = wsjson.Write(ctx, conn, map[string]any{
			"jsonrpc": "2.0",
			"method":  "OnConnected",
			"params":  map[string]any{"qSessionState": "SESSION_CREATED"},
		})

		for {
			var req fakeRequest
			if err := wsjson.Read(ctx, conn, &req); err != nil {
				return
			}

			var result map[string]any
			switch req.Method {
			case "OpenDoc":
				result = map[string]any{"qReturn": map[string]any{"qHandle": docHandle}}
			case "CreateSessionObject":
				var params struct {
					Prop struct {
						Info struct {
							Type string `json:"qType"`
						} `json:"qInfo"`
					} `json:"qProp"`
				}
				require.NoError(t, json.Unmarshal(req.Params, &params))
				handle := cubeHandle
				if params.Prop.Info.Type == "SheetList" {
					handle = sheetListHandle
				}
				result = map[string]any{"qReturn": map[string]any{"qHandle": handle}}
			case "GetLayout":
				if req.Handle == sheetListHandle {
					result = map[string]any{"qLayout": map[string]any{
						"qAppObjectList": map[string]any{
							"qItems": []any{map[string]any{
								"qInfo": map[string]any{"qId": "sheet-1"},
								"qData": map[string]any{"title": "Overview", "description": "Landing sheet"},
							}},
						},
					}}
					break
				}
				first := make([]any, 0, 5)
				for i := 0; i < 5; i++ {
					first = append(first, matrixRow(i))
				}
				result = map[string]any{"qLayout": map[string]any{
					"qHyperCube": map[string]any{
						"qSize":      map[string]any{"qcx": 2, "qcy": 7},
						"qDataPages": []any{map[string]any{"qMatrix": first}},
					},
				}}
			case "GetHyperCubeData":
				var params struct {
					Pages []struct {
						Top    int `json:"qTop"`
						Height int `json:"qHeight"`
					} `json:"qPages"`
				}
				require.NoError(t, json.Unmarshal(req.Params, &params))
				require.Len(t, params.Pages, 1)
				rows := make([]any, 0)
				for i := params.Pages[0].Top; i < 7 && i < params.Pages[0].Top+params.Pages[0].Height; i++ {
					rows = append(rows, matrixRow(i))
				}
				result = map[string]any{"qDataPages": []any{map[string]any{"qMatrix": rows}}}
			default:
				_ = wsjson.Write(ctx, conn, map[string]any{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"error":   map[string]any{"code": 6, "message": "unknown method"},
				})
				continue
			}

			if err := wsjson.Write(ctx, conn, map[string]any{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  result,
			}); err != nil {
				return
			}
		}
	}

	ts := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(ts.Close)
	return ts
}

func dimAt(i int) string {
	return string(rune('A' + i))
}

func measureAt(i int) string {
	return string(rune('a' + i))
}

func TestDialerOpensAndAggregates(t *testing.T) {
	ts := fakeEngine(t)

	dialer := qix.NewDialer(ts.URL)
	ctx := context.Background()

	conn, err := dialer.Open(ctx, "app-1", "user-token")
	require.NoError(t, err)
	defer conn.Close(ctx)

	cube, err := engine.NewAggregator().FetchHypercube(ctx, conn, engine.CubeDef{
		Dimension: "Region",
		Measure:   "Sum(Sales)",
	})
	require.NoError(t, err)

	require.Len(t, cube.Dimension, 7)
	require.Len(t, cube.Measure, 7)
	for i := 0; i < 7; i++ {
		require.Equal(t, dimAt(i), cube.Dimension[i])
		require.Equal(t, measureAt(i), cube.Measure[i])
	}
}

func TestDialerSheetList(t *testing.T) {
	ts := fakeEngine(t)

	dialer := qix.NewDialer(ts.URL)
	ctx := context.Background()

	conn, err := dialer.Open(ctx, "app-1", "user-token")
	require.NoError(t, err)
	defer conn.Close(ctx)

	sheets, err := conn.SheetList(ctx)
	require.NoError(t, err)
	require.Equal(t, []engine.Sheet{{ID: "sheet-1", Title: "Overview", Description: "Landing sheet"}}, sheets)
}

func TestDialerRefusedUpgrade(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket here", http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)

	dialer := qix.NewDialer(ts.URL)
	_, err := dialer.Open(context.Background(), "app-1", "bad-token")
	require.ErrorIs(t, err, engine.ErrOpenFailed)
}
