package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokensKeepTeluguMarks(t *testing.T) {
	// The vowel signs in చంపేస్తా are combining marks and must not split the word.
	assert.Equal(t, []string{"నేను", "చంపేస్తా"}, Tokens("నేను చంపేస్తా!!"))
}

func TestTokensLowerAndSplitPunctuation(t *testing.T) {
	assert.Equal(t, []string{"great", "speech", "very", "inspiring"}, Tokens("Great speech, very inspiring!"))
}

func TestNormalizePadsAndCollapses(t *testing.T) {
	assert.Equal(t, " black magic here ", Normalize("Black   MAGIC... here"))
	assert.Equal(t, " ", Normalize("!!!"))
}

func TestCleanRepairsInvalidUTF8(t *testing.T) {
	assert.Equal(t, "ab", Clean("a\xffb"))
}

func TestTeluguShare(t *testing.T) {
	assert.Equal(t, 0.0, TeluguShare(""))
	assert.Equal(t, 0.0, TeluguShare("hello"))
	assert.Equal(t, 1.0, TeluguShare("చాలా బాగుంది"))
	assert.InDelta(t, 0.5, TeluguShare("ab చా"), 1e-9)
}

func TestContainsTelugu(t *testing.T) {
	assert.True(t, ContainsTelugu("ok చాలా"))
	assert.False(t, ContainsTelugu("thank you"))
}
