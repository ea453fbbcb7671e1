// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/reelcraft/training-video-generator/internal/core/model"
	"github.com/reelcraft/training-video-generator/internal/telemetry"
)

//go:embed openapi.json
var openAPIDocument []byte

//go:embed docs.html
var docsPage []byte

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("failed to shut down telemetry", "error", err)
		}
	}()
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Add OpenTelemetry middleware
	r.Use(otelgin.Middleware(config.Application.Name))

	// Allow all origins, methods, and headers; the service sits behind an
	// authenticating proxy in every non-local deployment.
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", docsPage)
	})

	// Serve assembled videos so the local video_url in generation
	// responses resolves.
	outputDir := config.Pipeline.OutputDir
	if outputDir == "" {
		outputDir = "video"
	}
	r.Static("/video", outputDir)

	api := r.Group("/api")
	{
		api.GET("/openapi.json", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", openAPIDocument)
		})
		api.POST("/generate_video", GenerateVideo)
		api.POST("/caption_generator", GenerateCaptions)
	}

	port := config.Application.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	// Start the server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", port)

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// GenerateVideo handles POST /api/generate_video: one synchronous
// generation run per request. Generation takes minutes; callers are
// expected to hold the connection open.
func GenerateVideo(c *gin.Context) {
	var request model.GenerationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := state.videoWorkflow.Run(c.Request.Context(), &request)
	if err != nil {
		writePipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GenerateCaptions handles POST /api/caption_generator: caption rendering
// for an already-stored video.
func GenerateCaptions(c *gin.Context) {
	var request model.CaptionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := state.captionWorkflow.Run(c.Request.Context(), &request)
	if err != nil {
		writePipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// writePipelineError maps a failed run to a response. An upstream stage
// failure is a bad gateway naming the stage; anything else is internal.
func writePipelineError(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "pipeline run failed", "error", err)

	var stageErr *model.StageError
	if errors.As(err, &stageErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"stage":  stageErr.Stage,
			"detail": stageErr.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
