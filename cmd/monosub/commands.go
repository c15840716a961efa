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
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/monosub/cmd/monosub/config"
	"github.com/AleutianAI/monosub/pkg/logging"
	"github.com/AleutianAI/monosub/pkg/ux"
)

// app carries state resolved by the root command's PersistentPreRunE.
type app struct {
	configPath  string
	logLevel    string
	logJSON     bool
	personality string

	cfg    config.MonosubConfig
	log    *logging.Logger
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "monosub",
		Short: "Monoalphabetic substitution cipher toolkit",
		Long: `monosub encrypts and decrypts text under a substitution key and recovers
unknown keys from ciphertext alone with simulated annealing.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default ~/.monosub/monosub.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flags.BoolVar(&a.logJSON, "log-json", false, "Write logs to stderr as JSON")
	flags.StringVar(&a.personality, "personality", "", "Output style: full, minimal or machine")

	root.AddCommand(
		newEncryptCmd(a),
		newDecryptCmd(a),
		newKeygenCmd(a),
		newInvertCmd(a),
		newCrackCmd(a),
		newAdviseCmd(a),
		newAnalyzeCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) setup() error {
	if a.personality != "" {
		ux.SetPersonalityLevel(ux.ParsePersonalityLevel(a.personality))
	} else {
		ux.InitPersonality()
	}

	cfg, created, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	levelName := cfg.Logging.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	a.log = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "monosub",
		JSON:    a.logJSON || cfg.Logging.JSON,
	})
	a.logger = a.log.Slog()
	slog.SetDefault(a.logger)

	if created {
		a.logger.Info("First run detected, created default config")
	}
	return nil
}

func (a *app) teardown() error {
	if a.log == nil {
		return nil
	}
	return a.log.Close()
}
