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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/monosub/pkg/ux"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished searches, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeHistory, err := a.openHistory()
			if err != nil {
				return err
			}
			defer closeHistory()
			if store == nil {
				ux.Warning("History is disabled in the config")
				return nil
			}

			records, err := store.List(limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.FinishedAt.Local().Format(time.DateTime),
					r.ID,
					r.Reason,
					strconv.Itoa(r.BestScore),
					strconv.Itoa(r.Iterations),
					r.Scorer,
					r.CiphertextDigest[:min(12, len(r.CiphertextDigest))],
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), ux.Table(
				[]string{"finished", "id", "reason", "score", "iterations", "scorer", "ciphertext"}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of searches to show")
	return cmd
}
