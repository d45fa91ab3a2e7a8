package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikuru0/oshatori/domain"
)

func TestExpandAssets(t *testing.T) {
	assets := []domain.Asset{
		{Kind: domain.AssetEmote, ID: "smile", Pattern: `:\)`},
		{Kind: domain.AssetSticker, ID: "wave", Pattern: `:wave:`},
	}

	frags := ExpandAssets("hi :wave: all :)", assets)
	require.Len(t, frags, 4)
	assert.Equal(t, domain.TextFragment{Text: "hi "}, frags[0])
	assert.Equal(t, domain.AssetRefFragment{AssetID: "wave"}, frags[1])
	assert.Equal(t, domain.TextFragment{Text: " all "}, frags[2])
	assert.Equal(t, domain.AssetRefFragment{AssetID: "smile"}, frags[3])
}

func TestExpandAssets_NoMatches(t *testing.T) {
	frags := ExpandAssets("nothing here", []domain.Asset{
		{Kind: domain.AssetEmote, ID: "smile", Pattern: `:\)`},
	})
	require.Len(t, frags, 1)
	assert.Equal(t, domain.TextFragment{Text: "nothing here"}, frags[0])
}

func TestExpandAssets_SkipsBrokenPatterns(t *testing.T) {
	assets := []domain.Asset{
		{Kind: domain.AssetEmote, ID: "broken", Pattern: `([`},
		{Kind: domain.AssetEmote, ID: "", Pattern: `:x:`},
		{Kind: domain.AssetEmote, ID: "ok", Pattern: `:y:`},
	}

	frags := ExpandAssets("a :x: b :y: c", assets)
	require.Len(t, frags, 3)
	assert.Equal(t, domain.TextFragment{Text: "a :x: b "}, frags[0])
	assert.Equal(t, domain.AssetRefFragment{AssetID: "ok"}, frags[1])
	assert.Equal(t, domain.TextFragment{Text: " c"}, frags[2])
}

func TestMergeText(t *testing.T) {
	frags := mergeText([]domain.Fragment{
		domain.TextFragment{Text: "a"},
		domain.TextFragment{Text: "b"},
		domain.AssetRefFragment{AssetID: "x"},
		domain.TextFragment{Text: "c"},
	})
	require.Len(t, frags, 3)
	assert.Equal(t, domain.TextFragment{Text: "ab"}, frags[0])
}
