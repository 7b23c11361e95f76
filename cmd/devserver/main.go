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
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-shop-client/devserver"
	"github.com/jrsteele09/go-shop-client/internal/config"
	"github.com/jrsteele09/go-shop-client/internal/logging"
)

func main() {
	c := config.New()
	logger := logging.New(c.GetLogLevel(), c.GetEnv(), os.Stdout)

	for {
		if err := run(c, logger); err != nil {
			logger.Error().Err(err).Msg("dev server failed, restarting")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	logger.Info().Msg("dev server stopped")
}

func run(c config.Config, logger zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName() + " dev")

	handler, err := devserver.New(devserver.OptionsFromConfig(c, logging.Component(logger, "devserver")))
	if err != nil {
		return err
	}
	server := &http.Server{Addr: c.GetPort(), Handler: handler}

	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(server, logger) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("dev server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
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
