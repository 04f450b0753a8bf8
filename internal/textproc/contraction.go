package textproc

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/ai8future/textprep/internal/lexicon"
)

// ExpandContractions replaces contractions such as "don't" with their expansion.
// A contraction must start a line or follow a space, and end the line or precede a
// space or period. With a nil dictionary the default lexicon is used. A leading
// capital in the text is carried over to the expansion.
func ExpandContractions(text string, contractions map[string]string, ignoreCase bool) (string, error) {
	if contractions == nil {
		var err error
		contractions, err = lexicon.Default().Contractions()
		if err != nil {
			return "", fmt.Errorf("failed to load contractions: %w", err)
		}
	}
	if len(contractions) == 0 || text == "" {
		return text, nil
	}

	lookup := contractions
	opts := regexp2.RegexOptions(regexp2.Multiline)
	if ignoreCase {
		opts |= regexp2.IgnoreCase
		lookup = make(map[string]string, len(contractions))
		for k, v := range contractions {
			lookup[strings.ToLower(k)] = v
		}
	}

	keys := make([]string, 0, len(contractions))
	for k := range contractions {
		keys = append(keys, regexp2.Escape(k))
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	re, err := regexp2.Compile(`(?:(?<=^)|(?<= ))(?:`+strings.Join(keys, "|")+`)(?:(?=$)|(?= )|(?=\.))`, opts)
	if err != nil {
		return "", fmt.Errorf("failed to compile contraction pattern: %w", err)
	}
	re.MatchTimeout = 2 * time.Second

	out, err := re.ReplaceFunc(text, func(m regexp2.Match) string {
		found := m.String()
		key := found
		if ignoreCase {
			key = strings.ToLower(found)
		}
		expansion, ok := lookup[key]
		if !ok {
			return found
		}
		if first, _ := utf8.DecodeRuneInString(found); unicode.IsUpper(first) {
			return capitalize(expansion)
		}
		return expansion
	}, -1, -1)
	if err != nil {
		return "", fmt.Errorf("failed to expand contractions: %w", err)
	}
	return out, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
