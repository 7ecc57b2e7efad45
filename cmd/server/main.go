package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-embed-gateway/broker"
	"github.com/jrsteele09/go-embed-gateway/directory"
	"github.com/jrsteele09/go-embed-gateway/engine"
	"github.com/jrsteele09/go-embed-gateway/engine/qix"
	"github.com/jrsteele09/go-embed-gateway/identity"
	"github.com/jrsteele09/go-embed-gateway/internal/config"
	"github.com/jrsteele09/go-embed-gateway/server"
	"github.com/jrsteele09/go-embed-gateway/sessions"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	srv, err := buildServer(c)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildServer(c config.Config) (*server.Server, error) {
	dir := directory.NewClient(
		c.GetTenantURI(),
		c.GetBackendClientID(),
		c.GetBackendClientSecret(),
		directory.WithTimeout(c.GetRemoteCallTimeout()),
	)

	deps := server.Deps{
		Sessions: sessionRepo(c),
		Resolver: identity.NewResolver(dir, c.GetUserPrefix()),
		// The impersonation exchange authenticates with the confidential
		// backend secret but requests tokens for the public frontend
		// client id; minted tokens never exceed user_default scope.
		Broker:     broker.New(c.GetTenantURI(), c.GetFrontendClientID(), c.GetBackendClientSecret()),
		Engine:     qix.NewDialer(c.GetTenantURI(), qix.WithTimeout(c.GetRemoteCallTimeout())),
		Aggregator: engine.NewAggregator(),
	}

	return server.New(c, deps)
}

func sessionRepo(c config.Config) sessions.Repo {
	if addr := c.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: c.GetRedisPassword(),
		})
		log.Info().Str("addr", addr).Msg("using redis session store")
		return sessions.NewRedisRepo(client)
	}
	return sessions.NewInMemoryRepo()
}

func setupLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
