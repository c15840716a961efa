// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/AleutianAI/monosub/services/cipher/anneal"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/score"
)

const barWidth = 20

// FrequencyReport renders letter frequencies with the English letter whose
// typical share is closest. With n > 0 it shows the n most and n least
// frequent letters; otherwise every occurring letter, most frequent first.
func FrequencyReport(stats score.LetterStats, n int) string {
	ranked := stats.Ranked()
	if GetPersonality().Level == PersonalityMachine {
		var b strings.Builder
		if n <= 0 {
			writeFrequencyLines(&b, "", ranked)
			return b.String()
		}
		writeFrequencyLines(&b, "most\t", stats.MostFrequent(n))
		writeFrequencyLines(&b, "least\t", stats.LeastFrequent(n))
		return b.String()
	}

	var top float64
	if len(ranked) > 0 {
		top = ranked[0].Percent
	}
	footer := Styles.Muted.Render(fmt.Sprintf("%d letters", stats.Total))
	if n <= 0 {
		return fmt.Sprintf("%s\n%s\n", frequencyTable(ranked, top), footer)
	}
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n",
		Styles.Subtitle.Render(fmt.Sprintf("Most frequent %d", n)),
		frequencyTable(stats.MostFrequent(n), top),
		Styles.Subtitle.Render(fmt.Sprintf("Least frequent %d", n)),
		frequencyTable(stats.LeastFrequent(n), top),
		footer,
	)
}

func writeFrequencyLines(b *strings.Builder, prefix string, letters []score.LetterCount) {
	for _, lc := range letters {
		fmt.Fprintf(b, "%s%c\t%d\t%.2f\t%c\n", prefix, lc.Letter, lc.Count, lc.Percent, score.ClosestEnglishLetter(lc.Percent))
	}
}

func frequencyTable(letters []score.LetterCount, top float64) string {
	rows := make([][]string, 0, len(letters))
	for _, lc := range letters {
		filled := 0
		if top > 0 {
			filled = int(lc.Percent / top * barWidth)
		}
		rows = append(rows, []string{
			Styles.Cipher.Render(string(lc.Letter)),
			strconv.Itoa(lc.Count),
			fmt.Sprintf("%5.2f%%", lc.Percent),
			Styles.Success.Render(strings.Repeat("█", filled)),
			Styles.Plain.Render(string(score.ClosestEnglishLetter(lc.Percent))),
		})
	}
	return newTable("letter", "count", "share", "", "english").Rows(rows...).String()
}

// MatchReport renders up to limit dictionary hits. limit <= 0 shows all.
func MatchReport(rep score.MatchReport, limit int) string {
	matches := rep.Matches
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	summary := fmt.Sprintf("%d of %d words in dictionary (%.0f%%)", rep.Matched, rep.Total, rep.Ratio()*100)

	if GetPersonality().Level == PersonalityMachine {
		var b strings.Builder
		for _, wc := range matches {
			fmt.Fprintf(&b, "%s\t%d\n", wc.Word, wc.Count)
		}
		fmt.Fprintf(&b, "matched\t%d\t%d\n", rep.Matched, rep.Total)
		return b.String()
	}

	if len(matches) == 0 {
		return Styles.Muted.Render(summary) + "\n"
	}
	rows := make([][]string, 0, len(matches))
	for _, wc := range matches {
		rows = append(rows, []string{wc.Word, strconv.Itoa(wc.Count)})
	}
	t := newTable("word", "count").Rows(rows...)
	return fmt.Sprintf("%s\n%s\n", t.String(), Styles.Muted.Render(summary))
}

// AdviceReport renders advisor notes as a bulleted list.
func AdviceReport(notes []string) string {
	var b strings.Builder
	if len(notes) == 0 {
		if GetPersonality().Level != PersonalityMachine {
			b.WriteString(Styles.Muted.Render("no suggestions") + "\n")
		}
		return b.String()
	}
	for _, n := range notes {
		if GetPersonality().Level == PersonalityMachine {
			fmt.Fprintf(&b, "%s\n", n)
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", Styles.Highlight.Render(string(IconBullet)), n)
	}
	return b.String()
}

// KeyReport renders k as two aligned rows: plaintext letters over the cipher
// letters they map to.
func KeyReport(k key.Key) string {
	var cipher strings.Builder
	for i := 0; i < key.Size; i++ {
		cipher.WriteByte(k.Map(key.Alphabet[i]))
	}
	if GetPersonality().Level == PersonalityMachine {
		return fmt.Sprintf("plain\t%s\ncipher\t%s\n", key.Alphabet, cipher.String())
	}
	return fmt.Sprintf("%s %s\n%s %s\n",
		Styles.Muted.Render("plain "), Styles.Plain.Render(spaced(key.Alphabet)),
		Styles.Muted.Render("cipher"), Styles.Cipher.Render(spaced(cipher.String())),
	)
}

// ResultReport renders a finished search and its decryption.
func ResultReport(res anneal.Result, plaintext string) string {
	if GetPersonality().Level == PersonalityMachine {
		return fmt.Sprintf("reason\t%s\nscore\t%d\niterations\t%d\naccepted\t%d\nseed\t%d\nkey\t%s\n%s\n",
			res.Reason, res.BestScore, res.Iterations, res.Accepted, res.Seed, res.BestKey, plaintext)
	}

	status := Styles.Success.Render(res.Reason.String())
	if res.Reason != anneal.StateConverged {
		status = Styles.Warning.Render(res.Reason.String())
	}
	header := fmt.Sprintf("%s %s  %s %d  %s %d  %s %s",
		Styles.Muted.Render("stopped:"), status,
		Styles.Muted.Render("score:"), res.BestScore,
		Styles.Muted.Render("iterations:"), res.Iterations,
		Styles.Muted.Render("elapsed:"), res.Duration.Round(time.Millisecond),
	)
	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		KeyReport(res.BestKey),
		Styles.Bold.Render(plaintext),
	)
	return Styles.Box.Render(body) + "\n"
}

// Table renders rows under headers. Machine mode prints tab-separated rows
// without the header.
func Table(headers []string, rows [][]string) string {
	if GetPersonality().Level == PersonalityMachine {
		var b strings.Builder
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t") + "\n")
		}
		return b.String()
	}
	return newTable(headers...).Rows(rows...).String() + "\n"
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorTealDeep)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return Styles.Subtitle.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func spaced(s string) string {
	return strings.Join(strings.Split(s, ""), " ")
}
