package feed

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "plain text", StripMarkup("plain text"))
	assert.Equal(t, "Bold and italic.", StripMarkup("<p><b>Bold</b> and <i>italic</i>.</p>"))
	assert.Equal(t, "Fish & Chips", StripMarkup("Fish &amp; Chips<!-- note -->"))
	assert.Equal(t, "ab", StripMarkup("a<br/>b"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", TruncateRunes("abc", 0))
	assert.Equal(t, "", TruncateRunes("abc", -4))
	assert.Equal(t, "ab", TruncateRunes("abc", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 3))
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Equal(t, "héll", TruncateRunes("héllo", 4))
}

func TestComposeWithSuffix_SuffixNeverTruncated(t *testing.T) {
	text := strings.Repeat("x", 20000)
	suffix := " Sizes in stock: 6,7,8,9,10"

	got := ComposeWithSuffix(text, suffix, 10000)

	require.Equal(t, 10000, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, suffix))
	assert.Equal(t, 10000-len(suffix), strings.Count(got, "x"))
}

func TestComposeWithSuffix_ShortTextKept(t *testing.T) {
	assert.Equal(t, "Nice shoe. Sizes in stock: 8", ComposeWithSuffix("Nice shoe.", " Sizes in stock: 8", 10000))
}
