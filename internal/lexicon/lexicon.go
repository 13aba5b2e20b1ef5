// Package lexicon answers word-membership queries for claim and snatch
// validation. It is backed by a newline-delimited word list; when the
// configured file is unavailable a small embedded list keeps sessions
// functional in degraded mode.
package lexicon

import (
	"bufio"
	_ "embed"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed fallback_words.txt
var fallbackWords string

// MinWordLength is the shortest playable word. Shorter tokens are
// filtered at load and rejected by IsValid regardless of the list.
const MinWordLength = 3

type Lexicon struct {
	words map[string]struct{}
}

// New builds a lexicon from raw tokens, normalizing each (trim,
// uppercase) and dropping tokens shorter than MinWordLength.
func New(words []string) *Lexicon {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		norm := strings.ToUpper(strings.TrimSpace(w))
		if len(norm) < MinWordLength {
			continue
		}
		set[norm] = struct{}{}
	}
	return &Lexicon{words: set}
}

// Load reads a newline-delimited dictionary file. A missing or
// unreadable file falls back to the embedded list so the server can
// still run.
func Load(path string) *Lexicon {
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("dictionary unavailable, using fallback word list")
		return Fallback()
	}
	defer f.Close()

	lex, err := read(f)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("dictionary unreadable, using fallback word list")
		return Fallback()
	}
	log.Info().Int("words", lex.Size()).Str("path", path).Msg("dictionary loaded")
	return lex
}

// Fallback returns the embedded degraded-mode lexicon.
func Fallback() *Lexicon {
	return New(strings.Split(fallbackWords, "\n"))
}

func read(r io.Reader) (*Lexicon, error) {
	set := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		norm := strings.ToUpper(strings.TrimSpace(sc.Text()))
		if len(norm) < MinWordLength {
			continue
		}
		set[norm] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return &Lexicon{words: set}, nil
}

// IsValid reports whether the token is a playable word. Matching is
// case-insensitive; surrounding whitespace is ignored.
func (l *Lexicon) IsValid(token string) bool {
	_, ok := l.words[strings.ToUpper(strings.TrimSpace(token))]
	return ok
}

// Size returns the number of loaded words.
func (l *Lexicon) Size() int {
	return len(l.words)
}
