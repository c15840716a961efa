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
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/monosub/cmd/monosub/config"
	"github.com/AleutianAI/monosub/services/cipher/dictionary"
	"github.com/AleutianAI/monosub/services/cipher/history"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/keyfile"
	"github.com/AleutianAI/monosub/services/cipher/score"
	"github.com/AleutianAI/monosub/services/cipher/storage/badger"
)

const (
	minIterations = 1000
	maxIterations = 1000000
)

var (
	errNoKey    = errors.New("a key is required: use --key or --pairs")
	errTwoKeys  = errors.New("--key and --pairs are mutually exclusive")
	errNoInput  = errors.New("no input text")
	errBadRange = fmt.Errorf("iterations must be between %d and %d", minIterations, maxIterations)
)

// keyFlags are shared by commands that take a key.
type keyFlags struct {
	path  string
	pairs string
}

func (f *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "key", "k", "", "Key file (JSON object of plain->cipher letters)")
	cmd.Flags().StringVar(&f.pairs, "pairs", "", `Key as 26 pairs, e.g. "a-q, b-w, ..."`)
}

func (f *keyFlags) load() (key.Key, error) {
	switch {
	case f.path != "" && f.pairs != "":
		return key.Key{}, errTwoKeys
	case f.path != "":
		return keyfile.Load(f.path)
	case f.pairs != "":
		return key.ParseKey(f.pairs)
	default:
		return key.Key{}, errNoKey
	}
}

// readText returns args joined by spaces, the contents of inPath, or stdin,
// in that order of preference.
func readText(cmd *cobra.Command, args []string, inPath string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	var data []byte
	var err error
	if inPath != "" && inPath != "-" {
		data, err = os.ReadFile(inPath)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	text := strings.TrimRight(string(data), "\r\n")
	if text == "" {
		return "", errNoInput
	}
	return text, nil
}

// parseIterations validates an iteration budget typed by the user.
func parseIterations(s string) (int, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if n < minIterations || n > maxIterations {
		return 0, errBadRange
	}
	return n, nil
}

// dictionary loads override, the configured path, or the built-in list.
func (a *app) dictionary(override string) (*score.Dictionary, string, error) {
	path := override
	if path == "" {
		path = config.ExpandHome(a.cfg.Dictionary.Path)
	}
	d, err := dictionary.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	return d, path, nil
}

// openHistory opens the history database, or returns nil when disabled.
func (a *app) openHistory() (*history.Store, func(), error) {
	if !a.cfg.History.Enabled {
		return nil, func() {}, nil
	}
	bcfg := badger.DefaultConfig(config.ExpandHome(a.cfg.History.Path))
	bcfg.GCInterval = a.cfg.History.GCInterval
	bcfg.Logger = a.logger
	db, err := badger.Open(bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("Closing history failed", "error", err)
		}
	}
	return history.NewStore(db), closeFn, nil
}
