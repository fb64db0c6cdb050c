// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers contains the HTTP handlers for the analyzer service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleAnalyze handles POST /v1/analyzer/analyze.
//
// Description:
//
//	Runs symbolic path analysis on the submitted source text and
//	returns the ordered path notes.
//
// Request Body:
//
//	AnalyzeRequest
//
// Response:
//
//	200 OK: AnalyzeResponse
//	400 Bad Request: Malformed body, option bounds, or precheck failure
//	422 Unprocessable Entity: Undeclared identifier or unsupported type
//	500 Internal Server Error: Solver or internal failure
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("request options out of bounds", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request options: " + err.Error()})
		return
	}

	resp, err := h.svc.Analyze(c.Request.Context(), &req)
	if err != nil {
		var analysisErr *AnalysisError
		if !errors.As(err, &analysisErr) {
			analysisErr = classify(err)
		}
		logger.Error("analysis failed",
			slog.String("category", string(analysisErr.Category)),
			slog.String("error", analysisErr.Error()))
		c.JSON(analysisErr.HTTPStatus(), ErrorResponse{
			Error:       analysisErr.Error(),
			Category:    string(analysisErr.Category),
			Diagnostics: analysisErr.Diagnostics,
		})
		return
	}

	logger.Info("analysis complete",
		slog.Int("paths", resp.PathsAnalyzed),
		slog.Int("notes", len(resp.Notes)),
		slog.Int64("solve_time_ms", resp.SolveTimeMs))
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/analyzer/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/analyzer/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, ReadyResponse{Ready: true})
}

// getOrCreateRequestID returns the X-Request-ID header, minting one
// when the caller did not supply it.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
