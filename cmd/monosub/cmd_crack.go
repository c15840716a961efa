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
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/monosub/pkg/ux"
	"github.com/AleutianAI/monosub/services/cipher/anneal"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/keyfile"
	"github.com/AleutianAI/monosub/services/cipher/session"
	"github.com/AleutianAI/monosub/services/cipher/tui"
)

type crackOptions struct {
	in         string
	fixed      string
	scorer     string
	dictionary string
	out        string
	iterations int
	seed       uint64
	noTUI      bool
}

func newCrackCmd(a *app) *cobra.Command {
	var opts crackOptions
	cmd := &cobra.Command{
		Use:   "crack [ciphertext...]",
		Short: "Recover the key of a ciphertext by simulated annealing",
		Long: `Searches for the key whose decryption scores best against the dictionary.
Interrupting (Ctrl+C) stops the search and reports the best key found so far.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCrack(cmd, args, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.in, "in", "i", "", "Read ciphertext from file (- for stdin)")
	f.StringVar(&opts.fixed, "fixed", "", `Known plain->cipher pairs to pin, e.g. "e-x, t-q"`)
	f.StringVar(&opts.scorer, "scorer", "", "Fitness function: dictionary or frequency")
	f.StringVar(&opts.dictionary, "dictionary", "", "Word list file (default: config or built-in)")
	f.StringVarP(&opts.out, "out", "o", "", "Save the best key to this file")
	f.IntVarP(&opts.iterations, "iterations", "n", 0, "Iteration budget (1000-1000000; prompts when interactive)")
	f.Uint64Var(&opts.seed, "seed", 0, "Random seed (0 picks one)")
	f.BoolVar(&opts.noTUI, "no-tui", false, "Print progress lines instead of the live view")
	return cmd
}

func (a *app) runCrack(cmd *cobra.Command, args []string, opts crackOptions) error {
	ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	ciphertext, err := readText(cmd, args, opts.in)
	if err != nil {
		return err
	}
	fixed, err := key.ParseFixed(opts.fixed)
	if err != nil {
		return err
	}
	budget, err := a.resolveBudget(opts.iterations)
	if err != nil {
		return err
	}
	dict, _, err := a.dictionary(opts.dictionary)
	if err != nil {
		return err
	}

	store, closeHistory, err := a.openHistory()
	if err != nil {
		return err
	}
	defer closeHistory()

	sessionOpts := []session.Option{session.WithLogger(a.logger)}
	if store != nil {
		sessionOpts = append(sessionOpts, session.WithResultSink(store))
	}
	ctrl, err := session.NewController(a.cfg.Search, dict, sessionOpts...)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	handle, err := ctrl.Start(ctx, session.StartRequest{
		Ciphertext:    ciphertext,
		Fixed:         fixed,
		MaxIterations: budget,
		Scorer:        opts.scorer,
		Seed:          opts.seed,
	})
	if err != nil {
		return err
	}

	snaps, unsubscribe, err := ctrl.Subscribe(handle)
	if err != nil {
		return err
	}
	defer unsubscribe()

	stop := func() {
		if err := ctrl.Stop(handle); err != nil && !errors.Is(err, session.ErrNoActiveSearch) {
			if errors.Is(err, session.ErrStopTimeout) {
				ux.Warning("Search is still finishing its current iteration")
				return
			}
			a.logger.Warn("Stopping search failed", "error", err)
		}
	}

	if ux.IsInteractive() && !opts.noTUI {
		err = runProgressView(ctx, ciphertext, budget, snaps, stop)
	} else {
		err = printProgress(ctx, budget, snaps, stop)
	}
	if err != nil {
		return err
	}

	res, err := ctrl.Wait(context.WithoutCancel(ctx), handle)
	if err != nil {
		return err
	}
	return a.reportCrack(cmd, ctrl, ciphertext, res, opts.out)
}

// resolveBudget returns the flag value, a prompted value, or the configured
// budget, in that order.
func (a *app) resolveBudget(flagValue int) (int, error) {
	if flagValue != 0 {
		if flagValue < minIterations || flagValue > maxIterations {
			return 0, errBadRange
		}
		return flagValue, nil
	}
	if !ux.IsInteractive() {
		return a.cfg.Search.Anneal.MaxIterations, nil
	}
	return promptIterations(min(max(a.cfg.Search.Anneal.MaxIterations, minIterations), maxIterations))
}

func promptIterations(def int) (int, error) {
	value := strconv.Itoa(def)
	err := huh.NewInput().
		Title("Iteration budget").
		Description(fmt.Sprintf("Between %d and %d", minIterations, maxIterations)).
		Value(&value).
		Validate(func(s string) error {
			_, err := parseIterations(s)
			return err
		}).
		Run()
	if err != nil {
		return 0, fmt.Errorf("iteration prompt: %w", err)
	}
	return parseIterations(value)
}

func runProgressView(ctx context.Context, ciphertext string, budget int, snaps <-chan anneal.Snapshot, stop func()) error {
	model := tui.NewProgressModel(ciphertext, budget, snaps, stop)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr))

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		stop()
		return nil
	}
	return err
}

func printProgress(ctx context.Context, budget int, snaps <-chan anneal.Snapshot, stop func()) error {
	interrupted := ctx.Done()
	for {
		select {
		case <-interrupted:
			interrupted = nil
			ux.Warning("Interrupted, stopping search")
			stop()
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if snap.State.IsTerminal() {
				return nil
			}
			ux.Info(fmt.Sprintf("%s  best=%d current=%d temp=%.3f",
				ux.ProgressBar(snap.Iterations, budget, 30), snap.BestScore, snap.CurrentScore, snap.Temperature))
		}
	}
}

func (a *app) reportCrack(cmd *cobra.Command, ctrl *session.Controller, ciphertext string, res *anneal.Result, out string) error {
	w := cmd.OutOrStdout()
	fmt.Fprint(w, ux.ResultReport(*res, res.BestKey.Decrypt(ciphertext)))

	if notes := ctrl.Advise(ciphertext, res.BestKey); len(notes) > 0 {
		ux.Title("Suggestions")
		fmt.Fprint(w, ux.AdviceReport(notes))
	}

	if out != "" {
		if err := keyfile.Save(out, res.BestKey); err != nil {
			return err
		}
		ux.Success("Best key written to " + out)
	} else {
		ux.Tip("save the key with --out and refine it with advise")
	}
	return nil
}
