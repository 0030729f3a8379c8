package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/OCAP2/pointmap/internal/app"
	"github.com/OCAP2/pointmap/internal/config"
	"github.com/OCAP2/pointmap/internal/logging"
	intOtel "github.com/OCAP2/pointmap/internal/otel"
	"github.com/OCAP2/pointmap/internal/surface"

	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	AppName string = "pointmap"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	SessionStartTime time.Time = time.Now()
)

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	script := flag.String("script", "", "read commands from this file instead of stdin")
	flag.Parse()

	if *script == "" {
		os.Exit(run(*configDir, os.Stdin, os.Stdout))
	}

	f, err := os.Open(*script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open script: %v\n", err)
		os.Exit(1)
	}
	code := run(*configDir, f, os.Stdout)
	f.Close()
	os.Exit(code)
}

// run wires the application and drives the console until in is exhausted.
func run(configDir string, in io.Reader, out io.Writer) int {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	logFile, logPath, err := logging.OpenLogFile(viper.GetString("logsDir"), AppName, SessionStartTime)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err)
		return 1
	}
	defer logFile.Close()

	otelProvider, err := intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), logFile))
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		otelProvider, _ = intOtel.New(intOtel.Config{})
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(ctx); err != nil {
			Logger.Error("Failed to shut down OTel provider", "error", err)
		}
	}()

	var application *app.App
	SlogManager.SetContextProvider(func() []slog.Attr {
		if application == nil {
			return nil
		}
		return application.ContextAttrs()
	})

	var otelLogProvider *sdklog.LoggerProvider
	if otelProvider.Enabled() {
		otelLogProvider = otelProvider.LoggerProvider()
	}
	SlogManager.Setup(logFile, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logPath, "version", CurrentVersion, "build", BuildDate)

	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, logFile)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return 1
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return 1
	}

	application, err = app.New(app.Dependencies{
		Backend:    backend,
		Surface:    surface.NewHeadless(surface.ViewportFromConfig(config.GetMapConfig())),
		Points:     config.GetPointsConfig(),
		LogManager: SlogManager,
	})
	if err != nil {
		Logger.Error("Failed to start", "error", err)
		backend.Close()
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			Logger.Error("Failed to close storage", "error", err)
		}
	}()

	if err := runConsole(in, out, application.Dispatcher); err != nil {
		Logger.Error("Console stopped", "error", err)
		return 1
	}

	if err := SlogManager.Flush(context.Background()); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	return 0
}
