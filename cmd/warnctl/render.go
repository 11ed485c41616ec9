package main

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
	"github.com/couchcryptid/weather-warning-service/internal/translation"
)

const timeLayout = "Mon 02.01. 15:04"

var (
	headingColor = color.New(color.Bold, color.Underline)
	detailColor  = color.New(color.Faint)

	scoreColors = map[int]*color.Color{
		domain.ScoreNone:     color.New(color.FgGreen),
		domain.ScoreMinor:    color.New(color.FgYellow),
		domain.ScoreModerate: color.New(color.FgHiYellow, color.Bold),
		domain.ScoreSevere:   color.New(color.FgRed, color.Bold),
		domain.ScoreExtreme:  color.New(color.FgMagenta, color.Bold),
	}
)

func printBoard(w io.Writer, b domain.Board) {
	if b.Len() == 0 {
		fmt.Fprintln(w, "no active warnings")
		return
	}
	if !b.Separate {
		printSection(w, b.Current)
		return
	}
	headingColor.Fprintln(w, "Current")
	printSection(w, b.Current)
	if len(b.Advance) > 0 {
		fmt.Fprintln(w)
		headingColor.Fprintln(w, "Advance")
		printSection(w, b.Advance)
	}
}

func printSection(w io.Writer, section []domain.Display) {
	for _, d := range section {
		c, ok := scoreColors[d.Score]
		if !ok {
			c = color.New(color.Reset)
		}
		c.Fprintf(w, "[%d] %s\n", d.Score, d.Headline)
		detailColor.Fprintf(w, "    %s | %s\n", d.SenderLabel, validity(d.Start, d.End))
		if d.Instruction != "" {
			fmt.Fprintf(w, "    %s\n", d.Instruction)
		}
	}
}

func validity(start, end time.Time) string {
	switch {
	case start.IsZero() && end.IsZero():
		return "no validity period"
	case end.IsZero():
		return "from " + start.Local().Format(timeLayout)
	case start.IsZero():
		return "until " + end.Local().Format(timeLayout)
	default:
		return start.Local().Format(timeLayout) + " - " + end.Local().Format(timeLayout)
	}
}

// printCache lists cached translations per language, oldest first.
func printCache(w io.Writer, c *translation.Cache, now time.Time) {
	langs := c.Languages()
	if len(langs) == 0 {
		fmt.Fprintln(w, "translation cache is empty")
		return
	}
	for _, lang := range langs {
		entries := c.Entries(lang)
		headingColor.Fprintf(w, "%s (%d)\n", lang, len(entries))

		keys := slices.SortedFunc(maps.Keys(entries), func(a, b string) int {
			return cmp.Or(cmp.Compare(entries[a].Timestamp, entries[b].Timestamp), strings.Compare(a, b))
		})
		for _, k := range keys {
			e := entries[k]
			age := now.Sub(time.UnixMilli(e.Timestamp)).Truncate(time.Minute)
			fmt.Fprintf(w, "  %s ", e.Headline)
			detailColor.Fprintf(w, "(%s old)\n", age)
		}
	}
}
