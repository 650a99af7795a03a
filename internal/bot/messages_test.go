package bot

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"gena-go/internal/entitlement"
	"gena-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessageShortTextIsUntouched(t *testing.T) {
	chunks := SplitMessage("hello")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello", chunks[0])
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	// 两段文本，换行落在上限之前
	first := strings.Repeat("a", 4000)
	second := strings.Repeat("b", 2000)
	chunks := SplitMessage(first + "\n" + second)

	require.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	assert.Equal(t, second, chunks[1])
}

func TestSplitMessageFallsBackToSpaces(t *testing.T) {
	first := strings.Repeat("a", 4000)
	second := strings.Repeat("b", 2000)
	chunks := SplitMessage(first + " " + second)

	require.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	assert.Equal(t, second, chunks[1])
}

func TestSplitMessageHardCutsUnbreakableText(t *testing.T) {
	text := strings.Repeat("x", 9000)
	chunks := SplitMessage(text)

	require.Len(t, chunks, 3)
	var total int
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), maxMessageLen)
		total += len(c)
	}
	assert.Equal(t, 9000, total)
}

func TestSplitMessageCutsMultiByteTextOnRuneBoundaries(t *testing.T) {
	// 2000 个汉字共 6000 字节，没有任何换行或空格可用
	text := strings.Repeat("好", 2000)
	chunks := SplitMessage(text)

	require.Len(t, chunks, 2)
	var rebuilt strings.Builder
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, len(c), maxMessageLen)
		rebuilt.WriteString(c)
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitMessageLeadingNewlineYieldsNoEmptyChunk(t *testing.T) {
	text := "\n" + strings.Repeat("x", 5000)
	chunks := SplitMessage(text)

	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
	}
}

func TestRateLimitTextRoundsUp(t *testing.T) {
	assert.Contains(t, rateLimitText(9500*time.Millisecond), "10 seconds")
	assert.Contains(t, rateLimitText(0), "1 seconds")
}

func TestPlanTextShowsLimitsAndExpiration(t *testing.T) {
	exp := time.Date(2026, 9, 29, 12, 0, 0, 0, time.UTC)
	text := planText(&model.Plan{Tier: entitlement.TierBasic, Expiration: &exp})

	assert.Contains(t, text, "Basic")
	assert.Contains(t, text, "10 messages/minute")
	assert.Contains(t, text, "5 images/day")
	assert.Contains(t, text, "3 turns of memory")
	assert.Contains(t, text, "2026-09-29")
	assert.Contains(t, text, "Upgrade")
}

func TestPlanTextForVIPOmitsUpgradeHint(t *testing.T) {
	text := planText(&model.Plan{Tier: entitlement.TierVIP})
	assert.NotContains(t, text, "Upgrade with")
}
