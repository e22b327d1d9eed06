// Package main serves the humanizer API from AWS Lambda behind an API Gateway
// HTTP API. Routes, middleware and base-path handling are the same as the
// standalone server; logs go to stdout for CloudWatch.
package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/serisow/humanizer/bootstrap"
	"github.com/serisow/humanizer/config"
	"github.com/serisow/humanizer/logging"
	"github.com/serisow/humanizer/server"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// Credentials are read once per cold start.
	services := bootstrap.Init(cfg, logger)

	adapter := httpadapter.NewV2(server.NewHandler(services, logger))
	lambda.Start(adapter.ProxyWithContext)
}
