package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/ai8future/textprep/internal/textspan"
)

// sentenceFinalAbbreviations may also close a sentence; they only count as
// abbreviations when no capitalised word follows.
var sentenceFinalAbbreviations = map[string]bool{
	"et al.": true,
	"etc.":   true,
}

const notFollowedByCapital = `(?!\s+[A-Z])`

// unknownAbbreviationPattern matches acronym-like tokens: a capital letter at the
// start of a line or after a space, any letters or periods, and a closing capital
// letter. A trailing period is kept only when nothing, a lower-case word, or more
// punctuation follows it.
var unknownAbbreviationPattern = unknownPattern(`$`)

// segmentUnknownAbbreviationPattern only treats the end of the text as "nothing
// follows", so a period before a line break still ends the sentence.
var segmentUnknownAbbreviationPattern = unknownPattern(`\z`)

func unknownPattern(end string) string {
	return fmt.Sprintf(
		`(?:(?<=^)|(?<= ))[A-Z]\.?[a-zA-Z.]*[A-Z](?:(?=\.?%[2]s)|(?=\.? )|(?=\.%[1]s))\.?(?:(?=%[2]s)|(?= +[a-z])|(?=%[1]s))`,
		punctClass, end,
	)
}

// dottedInitialsPattern matches runs such as "U.N." or "a.m." unless a capitalised
// word follows, in which case the final period is left to end the sentence.
const dottedInitialsPattern = `(?:[a-zA-Z]\.){2,}` + notFollowedByCapital

var (
	unknownAbbreviationRe = sync.OnceValue(func() *regexp2.Regexp {
		return mustCompile(unknownAbbreviationPattern, regexp2.Multiline)
	})
	segmentUnknownAbbreviationRe = sync.OnceValue(func() *regexp2.Regexp {
		return mustCompile(segmentUnknownAbbreviationPattern, regexp2.Multiline)
	})
	dottedInitialsRe = sync.OnceValue(func() *regexp2.Regexp {
		return mustCompile(dottedInitialsPattern, regexp2.None)
	})
)

// knownPatterns are the dictionary alternations, built once per Detector.
type knownPatterns struct {
	general     *regexp2.Regexp
	segment     *regexp2.Regexp
	fingerprint string
}

// HeuristicFingerprint identifies a Detector whose dictionary could not be loaded.
const HeuristicFingerprint = "heuristic"

func (d *Detector) compileKnownPatterns() (*knownPatterns, error) {
	abbreviations, err := d.lex.Abbreviations()
	if err != nil {
		return nil, fmt.Errorf("failed to load abbreviations: %w", err)
	}
	if len(abbreviations) == 0 {
		return nil, fmt.Errorf("abbreviation dictionary is empty")
	}

	entries := sortedByLength(abbreviations)
	general := make([]string, len(entries))
	segment := make([]string, len(entries))
	h := sha256.New()
	for i, entry := range entries {
		fmt.Fprintf(h, "%s\x00%s\n", entry, abbreviations[entry])
		escaped := regexp2.Escape(entry)
		// Optional periods let "PhD" and "Ph.D" match "Ph.D.".
		general[i] = strings.ReplaceAll(escaped, `\.`, `\.?`)
		segment[i] = escaped
		if sentenceFinalAbbreviations[entry] {
			segment[i] += notFollowedByCapital
		}
	}

	return &knownPatterns{
		general:     mustCompile(`\b(?:`+strings.Join(general, "|")+`)(?!\w)`, regexp2.None),
		segment:     mustCompile(`\b(?:`+strings.Join(segment, "|")+`)`, regexp2.None),
		fingerprint: hex.EncodeToString(h.Sum(nil))[:16],
	}, nil
}

// known returns the dictionary patterns, or nil when the dictionary cannot be
// loaded. Detection then degrades to the heuristic patterns only.
func (d *Detector) known() *knownPatterns {
	p, err := d.patterns.Get()
	if err != nil {
		d.warnOnce.Do(func() {
			slog.Error("abbreviation dictionary unavailable, using heuristics only", "error", err)
		})
		return nil
	}
	return p
}

// Fingerprint identifies the abbreviation dictionary behind d. Detectors over
// the same entries share a fingerprint.
func (d *Detector) Fingerprint() string {
	if p := d.known(); p != nil {
		return p.fingerprint
	}
	return HeuristicFingerprint
}

// Abbreviations finds dictionary abbreviations (periods optional) and unknown
// acronym-like abbreviations. Unknown excludes anything also found as known.
func (d *Detector) Abbreviations(text string) (known, unknown []textspan.TextSpan) {
	if p := d.known(); p != nil {
		known = FindAll(p.general, text)
	}
	unknown = subtract(FindAll(unknownAbbreviationRe(), text), known)
	return known, unknown
}

// SegmentationAbbreviations is the variant used to protect periods during
// sentence segmentation. Dictionary entries must match verbatim, "et al." and
// "etc." only count when no capitalised word follows, and dotted initials join
// the unknown set.
func (d *Detector) SegmentationAbbreviations(text string) (known, unknown []textspan.TextSpan) {
	if p := d.known(); p != nil {
		known = FindAll(p.segment, text)
	}
	candidates := FindAll(segmentUnknownAbbreviationRe(), text)
	candidates = append(candidates, FindAll(dottedInitialsRe(), text)...)
	unknown = subtract(candidates, known)
	return known, unknown
}

// Abbreviations runs Default().Abbreviations.
func Abbreviations(text string) (known, unknown []textspan.TextSpan) {
	return Default().Abbreviations(text)
}

// SegmentationAbbreviations runs Default().SegmentationAbbreviations.
func SegmentationAbbreviations(text string) (known, unknown []textspan.TextSpan) {
	return Default().SegmentationAbbreviations(text)
}
