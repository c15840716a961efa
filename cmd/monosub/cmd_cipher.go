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
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/monosub/pkg/ux"
	"github.com/AleutianAI/monosub/services/cipher/advisor"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/keyfile"
	"github.com/AleutianAI/monosub/services/cipher/score"
)

func newEncryptCmd(_ *app) *cobra.Command {
	var keys keyFlags
	var in string
	cmd := &cobra.Command{
		Use:   "encrypt [text...]",
		Short: "Encrypt text under a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := keys.load()
			if err != nil {
				return err
			}
			text, err := readText(cmd, args, in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), k.Encrypt(text))
			return err
		},
	}
	keys.register(cmd)
	cmd.Flags().StringVarP(&in, "in", "i", "", "Read text from file (- for stdin)")
	return cmd
}

func newDecryptCmd(_ *app) *cobra.Command {
	var keys keyFlags
	var in string
	cmd := &cobra.Command{
		Use:   "decrypt [text...]",
		Short: "Decrypt text under a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := keys.load()
			if err != nil {
				return err
			}
			text, err := readText(cmd, args, in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), k.Decrypt(text))
			return err
		},
	}
	keys.register(cmd)
	cmd.Flags().StringVarP(&in, "in", "i", "", "Read text from file (- for stdin)")
	return cmd
}

func newKeygenCmd(a *app) *cobra.Command {
	var fixedText, out string
	var seed uint64
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random key, optionally pinning some pairs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fixed, err := key.ParseFixed(fixedText)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = rand.Uint64()
			}
			k, err := key.BuildRandomKey(fixed, rand.New(rand.NewPCG(seed, seed)))
			if err != nil {
				return err
			}
			a.logger.Debug("Generated key", "seed", seed, "fixed_pairs", len(fixed))
			return writeKey(cmd, k, out)
		},
	}
	cmd.Flags().StringVar(&fixedText, "fixed", "", `Pairs to pin, e.g. "e-x, t-q"`)
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the key to this file instead of stdout")
	return cmd
}

func newInvertCmd(_ *app) *cobra.Command {
	var keys keyFlags
	var out string
	cmd := &cobra.Command{
		Use:   "invert",
		Short: "Write the inverse of a key",
		Long:  "Swaps plaintext and ciphertext letters, turning an encryption key into its decryption key.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := keys.load()
			if err != nil {
				return err
			}
			return writeKey(cmd, k.Inverse(), out)
		},
	}
	keys.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the key to this file instead of stdout")
	return cmd
}

func newAdviseCmd(_ *app) *cobra.Command {
	var keys keyFlags
	var in string
	cmd := &cobra.Command{
		Use:   "advise [ciphertext...]",
		Short: "Suggest key corrections for a partial decryption",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := keys.load()
			if err != nil {
				return err
			}
			text, err := readText(cmd, args, in)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			ux.Title("Decryption")
			fmt.Fprintln(w, k.Decrypt(text))
			ux.Title("Suggestions")
			fmt.Fprint(w, ux.AdviceReport(advisor.ForKey(text, k, false)))
			return nil
		},
	}
	keys.register(cmd)
	cmd.Flags().StringVarP(&in, "in", "i", "", "Read ciphertext from file (- for stdin)")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var keys keyFlags
	var in, dictPath string
	var top, letters int
	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Report letter frequencies and dictionary matches",
		Long: `Prints the letter frequency table of the text. With a key, the text is
decrypted first and the dictionary report covers the decryption.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args, in)
			if err != nil {
				return err
			}
			dict, _, err := a.dictionary(dictPath)
			if err != nil {
				return err
			}
			plain := text
			if keys.path != "" || keys.pairs != "" {
				k, err := keys.load()
				if err != nil {
					return err
				}
				plain = k.Decrypt(text)
			}

			w := cmd.OutOrStdout()
			ux.Title("Letter frequencies")
			fmt.Fprint(w, ux.FrequencyReport(score.CountLetters(text), letters))
			ux.Title("Dictionary matches")
			fmt.Fprint(w, ux.MatchReport(score.Match(plain, dict), top))
			return nil
		},
	}
	keys.register(cmd)
	cmd.Flags().StringVarP(&in, "in", "i", "", "Read text from file (- for stdin)")
	cmd.Flags().StringVar(&dictPath, "dictionary", "", "Word list file (default: config or built-in)")
	cmd.Flags().IntVar(&top, "top", 10, "Number of matched words to list (0 for all)")
	cmd.Flags().IntVar(&letters, "letters", 10, "Show the N most and N least frequent letters (0 for all)")
	return cmd
}

// writeKey saves k to out, or prints it as JSON when out is empty.
func writeKey(cmd *cobra.Command, k key.Key, out string) error {
	if out == "" {
		return keyfile.Encode(cmd.OutOrStdout(), k)
	}
	if err := keyfile.Save(out, k); err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), ux.KeyReport(k))
	ux.Success("Key written to " + out)
	return nil
}
