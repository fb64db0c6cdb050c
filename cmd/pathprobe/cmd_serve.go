// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/pathprobe/pkg/telemetry"
	"github.com/AleutianAI/pathprobe/services/analyzer"
)

var flagPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Pathprobe analyzer API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&flagPort, "port", "p", 8080, "Port to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	if flagDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdown, err := telemetry.Init(cmd.Context(), telemetry.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()

	svc := analyzer.NewService(analyzer.DefaultServiceConfig())
	handlers := analyzer.NewHandlers(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("pathprobe"))
	if flagDebug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	analyzer.RegisterRoutes(v1, handlers)

	if metricsHandler := telemetry.MetricsHandler(); metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("Shutting down Pathprobe server")
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", flagPort)
	slog.Info("Starting Pathprobe analyzer server",
		slog.String("address", addr),
		slog.String("version", analyzer.ServiceVersion))
	if err := router.Run(addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
