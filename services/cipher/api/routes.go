// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// ServiceName labels the otelgin server spans.
	ServiceName string

	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler

	// TracerProvider overrides the global provider for server spans.
	TracerProvider trace.TracerProvider
}

// NewRouter builds the gin engine with tracing, recovery and every route.
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "monosub"
	}
	router := gin.New()
	router.Use(gin.Recovery())
	var otelOpts []otelgin.Option
	if cfg.TracerProvider != nil {
		otelOpts = append(otelOpts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	router.Use(otelgin.Middleware(cfg.ServiceName, otelOpts...))
	SetupRoutes(router, h, cfg.Metrics)
	return router
}

// SetupRoutes registers the handlers on router.
func SetupRoutes(router *gin.Engine, h *Handlers, metrics http.Handler) {
	router.GET("/health", h.HandleHealth)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/v1")
	{
		search := v1.Group("/search")
		{
			search.POST("", h.HandleStartSearch)
			search.GET("/:id", h.HandleSearchStatus)
			search.GET("/:id/result", h.HandleSearchResult)
			search.GET("/:id/stream", h.HandleStream)
			search.DELETE("/:id", h.HandleStopSearch)
		}

		v1.POST("/advise", h.HandleAdvise)
		v1.POST("/analyze", h.HandleAnalyze)

		v1.GET("/history", h.HandleListHistory)
		v1.GET("/history/:id", h.HandleGetHistory)
	}
}
