package normalize

import (
	"regexp"
	"strings"

	"github.com/saikuru0/oshatori/domain"
)

// ExpandAssets lifts inline asset triggers (emote codes, sticker patterns)
// out of text, producing a fragment sequence where each match becomes an
// AssetRef and the surrounding text is preserved. Assets with empty or
// invalid patterns are skipped.
func ExpandAssets(text string, assets []domain.Asset) []domain.Fragment {
	type matcher struct {
		re *regexp.Regexp
		id string
	}

	var matchers []matcher
	for _, a := range assets {
		if a.Pattern == "" || a.ID == "" {
			continue
		}
		re, err := regexp.Compile(`^(?:` + a.Pattern + `)`)
		if err != nil {
			continue
		}
		matchers = append(matchers, matcher{re: re, id: a.ID})
	}

	var frags []domain.Fragment
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			frags = append(frags, domain.TextFragment{Text: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(text) {
		matched := false
		for _, m := range matchers {
			loc := m.re.FindStringIndex(text[i:])
			if loc == nil || loc[1] == 0 {
				continue
			}
			flush()
			frags = append(frags, domain.AssetRefFragment{AssetID: m.id})
			i += loc[1]
			matched = true
			break
		}
		if !matched {
			plain.WriteByte(text[i])
			i++
		}
	}
	flush()
	return mergeText(frags)
}

// mergeText joins adjacent text fragments.
func mergeText(frags []domain.Fragment) []domain.Fragment {
	var out []domain.Fragment
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			out = append(out, domain.TextFragment{Text: plain.String()})
			plain.Reset()
		}
	}

	for _, f := range frags {
		if t, ok := f.(domain.TextFragment); ok {
			plain.WriteString(t.Text)
			continue
		}
		flush()
		out = append(out, f)
	}
	flush()
	return out
}
