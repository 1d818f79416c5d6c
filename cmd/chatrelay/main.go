// Package main runs chatrelay: an HTTP endpoint that relays prompts to a
// logged-in chat web UI through a persistent browser session and returns the
// assistant's reply.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/entrhq/chatrelay/pkg/bridge"
	"github.com/entrhq/chatrelay/pkg/browser"
	appconfig "github.com/entrhq/chatrelay/pkg/config"
	"github.com/entrhq/chatrelay/pkg/logging"
	"github.com/entrhq/chatrelay/pkg/server"
)

const (
	version = "0.1.0"

	loginPollInterval = 2 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config holds the command line flags.
type Config struct {
	ConfigPath  string
	Overrides   appconfig.Overrides
	WaitLogin   bool
	WriteConfig bool
	Verbose     bool
	ShowVersion bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("chatrelay v%s\n", version)
		return
	}

	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config); err != nil {
		stop()
		log.Fatalf("chatrelay: %v", err)
	}
}

func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.Overrides.ProfileDir, "profile", "", "Persistent browser profile directory (default "+browser.DefaultProfileDir+")")
	flag.IntVar(&config.Overrides.Port, "port", 0, fmt.Sprintf("HTTP port (default %d)", appconfig.DefaultPort))
	flag.StringVar(&config.Overrides.TargetURL, "url", "", "Chat page URL (default "+browser.DefaultTargetURL+")")
	flag.StringVar(&config.Overrides.Driver, "driver", "", "Browser automation driver: playwright or rod (default playwright)")
	flag.StringVar(&config.ConfigPath, "config", "", "Config file, .json or .yaml (default ~/.chatrelay/config.json)")
	flag.BoolVar(&config.WaitLogin, "wait-login", true, "Wait for the chat input to appear before serving")
	flag.BoolVar(&config.WriteConfig, "write-config", false, "Write the loaded configuration back to the config file and exit")
	flag.BoolVar(&config.Verbose, "verbose", false, "Mirror the log to stderr")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "chatrelay - relay HTTP prompts to a chat web UI\n\n")
		fmt.Fprintf(os.Stderr, "Usage: chatrelay [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from .env):\n")
		fmt.Fprintf(os.Stderr, "  %-22s profile directory\n", appconfig.EnvProfile)
		fmt.Fprintf(os.Stderr, "  %-22s HTTP port\n", appconfig.EnvPort)
		fmt.Fprintf(os.Stderr, "  %-22s chat page URL\n", appconfig.EnvTargetURL)
		fmt.Fprintf(os.Stderr, "  %-22s automation driver\n", appconfig.EnvDriver)
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  chatrelay -profile ~/.chatrelay/profile -port 5001\n")
		fmt.Fprintf(os.Stderr, "  curl 'http://localhost:5001/chat?q=2%%2B2%%3F'\n")
	}

	flag.Parse()
	return config
}

func run(ctx context.Context, config *Config) error {
	fileLogger, err := logging.NewLogger("chatrelay")
	if err != nil {
		fileLogger.Warnf("File logging unavailable: %v", err)
	}
	defer fileLogger.Close()

	logger := fileLogger
	if config.Verbose && fileLogger.LogPath() != "" {
		logger = logging.New("chatrelay", io.MultiWriter(fileLogger.Writer(), os.Stderr))
	}

	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	if config.WriteConfig {
		if err := appconfig.Global().SaveAll(); err != nil {
			return fmt.Errorf("failed to write configuration: %w", err)
		}
		fmt.Printf("Configuration written to %s\n", configPathOf(appconfig.Global()))
		return nil
	}

	settings, err := appconfig.Resolve(appconfig.Global(), config.Overrides, os.Getenv)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	driver := newDriver(settings.Browser)
	logger.Infof("chatrelay v%s starting (driver=%s, log=%s)", version, driver.Name(), fileLogger.LogPath())

	session, err := browser.Open(driver, browser.Options{
		ProfileDir: settings.Browser.ProfileDir,
		TargetURL:  settings.Browser.TargetURL,
		Headless:   settings.Browser.Headless,
		Selectors:  settings.Selectors,
		Logger:     logger.With("browser"),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warnf("Closing session: %v", err)
		}
	}()

	if config.WaitLogin && !session.IsReady() {
		fmt.Println(loginBanner(settings.Browser.TargetURL, settings.Browser.ProfileDir))
		if err := session.WaitReady(ctx, loginPollInterval); err != nil {
			return fmt.Errorf("waiting for login: %w", err)
		}
	}

	relay := bridge.New(session,
		bridge.WithTimeout(settings.ResponseTimeout),
		bridge.WithPollInterval(settings.PollInterval),
		bridge.WithLogger(logger.With("bridge")),
	)
	srv := server.New(relay, relay, logger.With("http"))

	httpServer := &http.Server{
		Addr:         settings.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: relay.Timeout() + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", httpServer.Addr)
		fmt.Println(readyBanner(httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println("\nShutting down gracefully...")
	logger.Infof("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func configPathOf(m *appconfig.Manager) string {
	if fs, ok := m.Store().(*appconfig.FileStore); ok {
		return fs.Path()
	}
	return "config store"
}
