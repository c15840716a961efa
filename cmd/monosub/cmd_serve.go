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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/monosub/pkg/ux"
	"github.com/AleutianAI/monosub/services/cipher/api"
	"github.com/AleutianAI/monosub/services/cipher/dictionary"
	"github.com/AleutianAI/monosub/services/cipher/session"
	"github.com/AleutianAI/monosub/services/cipher/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var addr, dictPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search session over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.runServe(cmd.Context(), dictPath)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&dictPath, "dictionary", "", "Word list file (default: config or built-in)")
	return cmd
}

func (a *app) runServe(parent context.Context, dictPath string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, a.cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			a.logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}()
	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		return err
	}

	dict, path, err := a.dictionary(dictPath)
	if err != nil {
		return err
	}
	store, closeHistory, err := a.openHistory()
	if err != nil {
		return err
	}
	defer closeHistory()

	opts := []session.Option{session.WithLogger(a.logger), session.WithMetrics(metrics)}
	var hist api.HistoryStore
	if store != nil {
		opts = append(opts, session.WithResultSink(store))
		hist = store
	}
	ctrl, err := session.NewController(a.cfg.Search, dict, opts...)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandlers(ctrl, hist, a.logger), api.RouterConfig{
		ServiceName: a.cfg.Telemetry.ServiceName,
		Metrics:     telemetry.MetricsHandler(),
	})
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Listening", "addr", srv.Addr, "dictionary_words", dict.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	if a.cfg.Dictionary.Watch && path != "" {
		watcher, err := dictionary.NewWatcher(path, ctrl.SetDictionary, a.logger)
		if err != nil {
			return err
		}
		defer watcher.Stop()
		g.Go(func() error {
			return watcher.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := ctrl.Close(); err != nil {
			a.logger.Warn("Stopping active search failed", "error", err)
		}
		return srv.Shutdown(sctx)
	})

	ux.Success("monosub listening on http://" + a.cfg.Server.Addr)
	return g.Wait()
}
