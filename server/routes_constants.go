package server

const (
	RouteIndex       = "/{$}"
	RouteLogin       = "/login"
	RouteLogout      = "/logout"
	RouteCSRFToken   = "/csrf-token"
	RouteAccessToken = "/access-token"
	RouteConfig      = "/config"
	RouteAppSheets   = "/app-sheets"
	RouteHypercube   = "/hypercube"
	RouteHealthz     = "/healthz"
)
