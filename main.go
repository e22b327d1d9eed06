package main

import (
	"log/slog"
	"os"

	"github.com/serisow/humanizer/bootstrap"
	"github.com/serisow/humanizer/config"
	"github.com/serisow/humanizer/logging"
	"github.com/serisow/humanizer/server"
)

func main() {
	cfg := config.Load()

	logger, closeLog := initLogger(cfg)
	slog.SetDefault(logger)

	services := bootstrap.Init(cfg, logger)
	n := server.NewHandler(services, logger)

	var err error
	if cfg.Environment == "production" {
		err = server.ServeProduction(n, cfg, logger)
	} else {
		err = server.ServeDevelopment(n, cfg, logger)
	}
	logger.Error("Server stopped", slog.String("error", err.Error()))
	closeLog()
	os.Exit(1)
}

// initLogger logs to a daily file under LOG_DIR and to stdout. When the log
// directory cannot be created it falls back to stdout alone.
func initLogger(cfg config.Config) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)}

	handler, err := logging.NewDailyFileHandler(cfg.LogDir, opts)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
		logger.Warn("Failed to create file logger, using stdout", slog.String("error", err.Error()))
		return logger, func() {}
	}
	return slog.New(handler), func() { handler.Close() }
}
