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
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/monosub/services/cipher/anneal"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/score"
)

func withPersonality(t *testing.T, level PersonalityLevel) {
	t.Helper()
	orig := GetPersonality()
	t.Cleanup(func() { SetPersonality(orig) })
	SetPersonality(Personality{Level: level, ShowTips: true})
}

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	restore := SetOutput(&out, &errOut)
	t.Cleanup(restore)
	return &out, &errOut
}

func TestParsePersonalityLevel(t *testing.T) {
	assert.Equal(t, PersonalityMinimal, ParsePersonalityLevel("MIN"))
	assert.Equal(t, PersonalityMachine, ParsePersonalityLevel("quiet"))
	assert.Equal(t, PersonalityFull, ParsePersonalityLevel("full"))
	assert.Equal(t, PersonalityFull, ParsePersonalityLevel("whatever"))
}

func TestInitPersonality_Env(t *testing.T) {
	orig := GetPersonality()
	t.Cleanup(func() { SetPersonality(orig) })

	t.Setenv("MONOSUB_PERSONALITY", "machine")
	InitPersonality()
	assert.Equal(t, PersonalityMachine, GetPersonality().Level)
	assert.False(t, IsInteractive())
}

func TestIsTerminal_Nil(t *testing.T) {
	assert.False(t, IsTerminal(nil))
}

func TestPrinters_Machine(t *testing.T) {
	withPersonality(t, PersonalityMachine)
	out, errOut := capture(t)

	Title("hidden")
	Success("saved")
	Warning("careful")
	Error("broken")
	Info("plain")
	Tip("hidden tip")
	Box("Key", "a-b")

	assert.Equal(t, "OK: saved\nplain\nKey: a-b\n", out.String())
	assert.Equal(t, "WARN: careful\nERROR: broken\n", errOut.String())
}

func TestPrinters_Full(t *testing.T) {
	withPersonality(t, PersonalityFull)
	out, errOut := capture(t)

	Title("Frequency analysis")
	Success("saved")
	Tip("pin pairs with --fixed")
	Error("broken")

	assert.Contains(t, out.String(), "Frequency analysis")
	assert.Contains(t, out.String(), string(IconSuccess))
	assert.Contains(t, out.String(), "tip: pin pairs with --fixed")
	assert.Contains(t, errOut.String(), string(IconError))
}

func TestProgressBar(t *testing.T) {
	withPersonality(t, PersonalityMachine)
	assert.Equal(t, "5/10", ProgressBar(5, 10, 10))

	withPersonality(t, PersonalityFull)
	bar := ProgressBar(5, 10, 10)
	assert.Equal(t, 5, strings.Count(bar, "█"))
	assert.Equal(t, 5, strings.Count(bar, "░"))
	assert.Contains(t, bar, "50%")

	assert.Contains(t, ProgressBar(20, 10, 4), "100%")
	assert.Contains(t, ProgressBar(1, 0, 4), "100%")
}

func TestFrequencyReport(t *testing.T) {
	stats := score.CountLetters("eeet")

	withPersonality(t, PersonalityMachine)
	assert.Equal(t, "e\t3\t75.00\te\nt\t1\t25.00\te\n", FrequencyReport(stats, 0))

	withPersonality(t, PersonalityFull)
	rep := FrequencyReport(stats, 0)
	assert.Contains(t, rep, "letter")
	assert.Contains(t, rep, "75.00%")
	assert.Contains(t, rep, "4 letters")
	assert.NotContains(t, rep, "Most frequent")
}

func TestFrequencyReport_TopAndBottom(t *testing.T) {
	stats := score.CountLetters("eeeetttaan")

	withPersonality(t, PersonalityMachine)
	assert.Equal(t,
		"most\te\t4\t40.00\te\n"+
			"most\tt\t3\t30.00\te\n"+
			"least\tn\t1\t10.00\tt\n"+
			"least\ta\t2\t20.00\te\n",
		FrequencyReport(stats, 2))

	withPersonality(t, PersonalityFull)
	rep := FrequencyReport(stats, 2)
	assert.Contains(t, rep, "Most frequent 2")
	assert.Contains(t, rep, "Least frequent 2")
	assert.Contains(t, rep, "10.00%")
	assert.Contains(t, rep, "10 letters")
}

func TestMatchReport(t *testing.T) {
	dict := score.NewDictionary([]string{"the", "cat"})
	rep := score.Match("the cat the dog", dict)

	withPersonality(t, PersonalityMachine)
	assert.Equal(t, "the\t2\nmatched\t3\t4\n", MatchReport(rep, 1))

	withPersonality(t, PersonalityFull)
	full := MatchReport(rep, 0)
	assert.Contains(t, full, "cat")
	assert.Contains(t, full, "3 of 4 words in dictionary (75%)")

	empty := MatchReport(score.Match("xyz", dict), 0)
	assert.Contains(t, empty, "0 of 1 words")
}

func TestAdviceReport(t *testing.T) {
	withPersonality(t, PersonalityMachine)
	assert.Empty(t, AdviceReport(nil))
	assert.Equal(t, "one\ntwo\n", AdviceReport([]string{"one", "two"}))

	withPersonality(t, PersonalityFull)
	assert.Contains(t, AdviceReport(nil), "no suggestions")
	assert.Contains(t, AdviceReport([]string{"one"}), string(IconBullet)+" one")
}

func TestKeyAndResultReport(t *testing.T) {
	withPersonality(t, PersonalityMachine)
	k := key.Identity()
	assert.Equal(t, "plain\t"+key.Alphabet+"\ncipher\t"+key.Alphabet+"\n", KeyReport(k))

	res := anneal.Result{
		BestKey:    k,
		BestScore:  7,
		Iterations: 6905,
		Reason:     anneal.StateExhausted,
		Duration:   1500 * time.Millisecond,
		Seed:       42,
	}
	out := ResultReport(res, "attack at dawn")
	assert.Contains(t, out, "reason\texhausted\n")
	assert.Contains(t, out, "score\t7\n")
	assert.Contains(t, out, "seed\t42\n")
	assert.True(t, strings.HasSuffix(out, "attack at dawn\n"))

	withPersonality(t, PersonalityFull)
	full := ResultReport(res, "attack at dawn")
	require.Contains(t, full, "attack at dawn")
	assert.Contains(t, full, "exhausted")
	assert.Contains(t, full, "a b c")
	assert.Contains(t, full, "1.5s")
}

func TestTable(t *testing.T) {
	rows := [][]string{{"a", "1"}, {"b", "2"}}

	withPersonality(t, PersonalityMachine)
	assert.Equal(t, "a\t1\nb\t2\n", Table([]string{"name", "n"}, rows))

	withPersonality(t, PersonalityFull)
	out := Table([]string{"name", "n"}, rows)
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "b")
}
