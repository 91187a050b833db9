package moderation

import (
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// leet folds common character substitutions before matching.
var leet = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e',
	'1': 'i', '!': 'i',
	'0': 'o',
	'5': 's', '$': 's',
	'7': 't',
}

// Censor masks configured words in room messages, ignoring case, leetspeak
// and punctuation inserted between letters.
type Censor struct {
	machine *goahocorasick.Machine
	mask    rune
}

// NewCensor builds the automaton. With no words every text passes unchanged.
func NewCensor(words []string, mask rune) (*Censor, error) {
	patterns := lo.FilterMap(words, func(w string, _ int) ([]rune, bool) {
		folded, _ := fold(strings.TrimSpace(w))
		return folded, len(folded) > 0
	})
	if mask == 0 {
		mask = '*'
	}
	if len(patterns) == 0 {
		return &Censor{mask: mask}, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{machine: machine, mask: mask}, nil
}

func (c *Censor) Censor(text string) string {
	if c.machine == nil {
		return text
	}
	folded, positions := fold(text)
	if len(folded) == 0 {
		return text
	}
	hits := c.machine.MultiPatternSearch(folded, false)
	if len(hits) == 0 {
		return text
	}

	out := []rune(text)
	for _, hit := range hits {
		last := hit.Pos + len(hit.Word) - 1
		if hit.Pos < 0 || last >= len(positions) {
			continue
		}
		for i := positions[hit.Pos]; i <= positions[last]; i++ {
			if !unicode.IsSpace(out[i]) {
				out[i] = c.mask
			}
		}
	}
	return string(out)
}

// fold lowercases text, undoes leetspeak and drops punctuation. positions
// maps every folded rune back to its index in the original text.
func fold(text string) (folded []rune, positions []int) {
	for i, r := range []rune(text) {
		if sub, ok := leet[r]; ok {
			r = sub
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		positions = append(positions, i)
	}
	return folded, positions
}
