package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ai8future/textprep/internal/chunker"
	"github.com/ai8future/textprep/internal/prep"
	"github.com/ai8future/textprep/internal/sentence"
	"github.com/ai8future/textprep/internal/textspan"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func FormatSpan(s textspan.Span) string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}

func FormatStatus(ok bool) string {
	if ok {
		return green("✓")
	}
	return red("✗")
}

// TruncateString flattens newlines and cuts s to maxLen runes.
func TruncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func PrintText(w io.Writer, text string) {
	fmt.Fprintln(w, text)
}

func PrintSpans(w io.Writer, spans []textspan.TextSpan) {
	if len(spans) == 0 {
		fmt.Fprintln(w, "No matches")
		return
	}
	for _, s := range spans {
		fmt.Fprintf(w, "%-14s %s\n", cyan(FormatSpan(s.Span)), s.Text)
	}
}

func PrintSentences(w io.Writer, sentences []sentence.Sentence) {
	for i, s := range sentences {
		fmt.Fprintf(w, "%s %-14s %s\n", yellow(fmt.Sprintf("%3d", i+1)), cyan(FormatSpan(s.Span)), s.Text)
	}
}

func PrintChunks(w io.Writer, chunks []chunker.Chunk) {
	if len(chunks) == 0 {
		fmt.Fprintln(w, "No chunks")
		return
	}
	for i, c := range chunks {
		fmt.Fprintf(w, "%s %s %d sentences, %d words, %d characters\n",
			bold(fmt.Sprintf("Chunk %d", i+1)),
			cyan(FormatSpan(c.Span())),
			c.Len(), c.Words(), c.Characters())
		fmt.Fprintf(w, "%s\n\n", c.Text())
	}
}

func PrintAbbreviations(w io.Writer, r abbreviationResult) {
	fmt.Fprintf(w, "%s\n", bold("Known:"))
	PrintSpans(w, r.Known)
	fmt.Fprintf(w, "%s\n", bold("Unknown:"))
	PrintSpans(w, r.Unknown)
}

func PrintStopwords(w io.Writer, r stopwordResult) {
	fmt.Fprintf(w, "%s %s\n", bold("Language:"), r.Language)
	PrintSpans(w, r.Spans)
}

func PrintPrepareResults(w io.Writer, results []*prep.Result) {
	fmt.Fprintf(w, "%-24s  %-36s  %9s  %6s  %-5s  %s\n",
		"SOURCE", "DOCUMENT", "SENTENCES", "CHUNKS", "CACHE", "STORED")
	fmt.Fprintln(w, strings.Repeat("-", 98))

	for _, r := range results {
		fmt.Fprintf(w, "%-24s  %-36s  %9d  %6d  %-5s  %s\n",
			TruncateString(r.Source, 24),
			r.DocumentID,
			len(r.Sentences),
			len(r.Chunks),
			FormatStatus(r.CacheHit),
			FormatStatus(r.Persisted))
	}
}
