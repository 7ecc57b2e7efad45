package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.PageMiddleware()...))

	// LOGIN / LOGOUT
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.PageMiddleware(s.RequireAntiForgery())...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.PageMiddleware()...))

	// Anti-forgery token hand-off
	s.RegisterRouteHandler("GET "+RouteCSRFToken, ChainMiddleware(s.CSRFTokenHandler(), s.APIMiddleware()...))

	// State-changing API routes need the anti-forgery token on top of an
	// authorized session.
	s.RegisterRouteHandler("POST "+RouteAccessToken,
		ChainMiddleware(s.AccessTokenHandler(), s.APIMiddleware(s.RequireAuthorized(), s.RequireAntiForgery())...))
	s.RegisterRouteHandler("POST "+RouteConfig,
		ChainMiddleware(s.ConfigHandler(), s.APIMiddleware(s.RequireAuthorized(), s.RequireAntiForgery())...))

	// Read-only data routes cannot mutate state, so they skip anti-forgery
	// validation but still require an authorized session.
	s.RegisterRouteHandler("GET "+RouteAppSheets,
		ChainMiddleware(s.AppSheetsHandler(), s.APIMiddleware(s.RequireAuthorized())...))
	s.RegisterRouteHandler("GET "+RouteHypercube,
		ChainMiddleware(s.HypercubeHandler(), s.APIMiddleware(s.RequireAuthorized())...))

	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.HealthzHandler(), s.APIMiddleware()...))
}
