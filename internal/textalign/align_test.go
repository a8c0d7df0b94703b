package textalign

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign_Identity(t *testing.T) {
	tokens := Normalize("The quick brown fox jumps over the lazy dog")

	_, metrics, errs := Align(tokens, tokens)

	assert.Equal(t, 9, metrics.TotalWords)
	assert.Equal(t, 9, metrics.CorrectWords)
	assert.Equal(t, 0, metrics.WrongWords)
	assert.Equal(t, 0, metrics.MissingWords)
	assert.Equal(t, 0, metrics.ExtraWords)
	assert.Equal(t, 100.0, metrics.AccuracyPercent)
	assert.Empty(t, errs.WrongWords)
	assert.Empty(t, errs.MissingWords)
	assert.Empty(t, errs.ExtraWords)
	assert.False(t, errs.HasErrors())
}

func TestAlign_SkippedWords(t *testing.T) {
	_, metrics, errs := CompareText(
		"She walked slowly to the store and bought some groceries",
		"She walked to store and bought groceries",
	)

	assert.Equal(t, 10, metrics.TotalWords)
	assert.Equal(t, 7, metrics.CorrectWords)
	assert.Equal(t, 0, metrics.WrongWords)
	assert.Equal(t, 3, metrics.MissingWords)
	assert.Equal(t, 0, metrics.ExtraWords)
	assert.Equal(t, 70.0, metrics.AccuracyPercent)
	assert.Equal(t, []string{"slowly", "the", "some"}, errs.MissingWords)
	assert.True(t, errs.HasErrors())
}

func TestAlign_ReplacedWords(t *testing.T) {
	_, metrics, errs := CompareText(
		"the boy is playing in the park",
		"the toy is playing in the dark",
	)

	assert.Equal(t, 7, metrics.TotalWords)
	assert.Equal(t, 5, metrics.CorrectWords)
	assert.Equal(t, 2, metrics.WrongWords)
	assert.Equal(t, 0, metrics.MissingWords)
	assert.Equal(t, 0, metrics.ExtraWords)
	require.Len(t, errs.WrongWords, 2)
	assert.Equal(t, WordPair{Spoken: "toy", Correct: "boy"}, errs.WrongWords[0])
	assert.Equal(t, WordPair{Spoken: "dark", Correct: "park"}, errs.WrongWords[1])
}

// An uneven replace span counts max(ref, spoken) wrong words but only pairs
// up min(ref, spoken) word-level errors.
func TestAlign_UnevenReplaceSpan(t *testing.T) {
	ref := Normalize("the big cat")
	spoken := Normalize("the enormous fluffy cat")

	_, metrics, errs := Align(ref, spoken)

	assert.Equal(t, 3, metrics.TotalWords)
	assert.Equal(t, 2, metrics.CorrectWords)
	assert.Equal(t, 2, metrics.WrongWords)
	assert.Equal(t, 0, metrics.MissingWords)
	assert.Equal(t, 0, metrics.ExtraWords)
	assert.Equal(t, 66.67, metrics.AccuracyPercent)
	require.Len(t, errs.WrongWords, 1)
	assert.Equal(t, WordPair{Spoken: "enormous", Correct: "big"}, errs.WrongWords[0])
}

func TestAlign_ExtraWords(t *testing.T) {
	_, metrics, errs := CompareText(
		"reading is fun",
		"reading is really very fun",
	)

	assert.Equal(t, 3, metrics.TotalWords)
	assert.Equal(t, 3, metrics.CorrectWords)
	assert.Equal(t, 0, metrics.WrongWords)
	assert.Equal(t, 2, metrics.ExtraWords)
	assert.Equal(t, []string{"really", "very"}, errs.ExtraWords)
	assert.Equal(t, 100.0, metrics.AccuracyPercent)
}

func TestAlign_EmptyInputs(t *testing.T) {
	t.Run("empty recognized text", func(t *testing.T) {
		_, metrics, errs := CompareText("read this aloud", "")
		assert.Equal(t, 3, metrics.TotalWords)
		assert.Equal(t, 0, metrics.CorrectWords)
		assert.Equal(t, 3, metrics.MissingWords)
		assert.Equal(t, 0.0, metrics.AccuracyPercent)
		assert.Equal(t, []string{"read", "this", "aloud"}, errs.MissingWords)
	})

	t.Run("empty reference text", func(t *testing.T) {
		_, metrics, errs := CompareText("", "hello there")
		assert.Equal(t, 0, metrics.TotalWords)
		assert.Equal(t, 2, metrics.ExtraWords)
		assert.Equal(t, 0.0, metrics.AccuracyPercent)
		assert.Equal(t, []string{"hello", "there"}, errs.ExtraWords)
	})

	t.Run("both empty", func(t *testing.T) {
		_, metrics, _ := CompareText("", "")
		assert.Equal(t, AccuracyMetrics{}, metrics)
	})
}

func TestAlign_SpansPartitionBothSequences(t *testing.T) {
	ref := Normalize("one two three four five six seven")
	spoken := Normalize("one too three five six extra seven")

	spans, _, _ := Align(ref, spoken)

	refPos, spokenPos := 0, 0
	for _, s := range spans {
		assert.Equal(t, refPos, s.RefStart, "reference ranges must be gapless and ordered")
		assert.Equal(t, spokenPos, s.SpokenStart, "spoken ranges must be gapless and ordered")
		refPos = s.RefEnd
		spokenPos = s.SpokenEnd
	}
	assert.Equal(t, len(ref), refPos)
	assert.Equal(t, len(spoken), spokenPos)
}

// Accuracy must not increase as more of the recognized text is corrupted.
func TestAlign_AccuracyMonotonicity(t *testing.T) {
	ref := "the sun rose slowly over the quiet green hills this morning"
	words := strings.Fields(ref)

	prev := 101.0
	for corrupted := 0; corrupted <= len(words); corrupted++ {
		spoken := make([]string, len(words))
		copy(spoken, words)
		for k := 0; k < corrupted; k++ {
			spoken[k] = "xxx"
		}

		_, metrics, _ := CompareText(ref, strings.Join(spoken, " "))
		assert.LessOrEqual(t, metrics.AccuracyPercent, prev,
			"accuracy increased after corrupting %d words", corrupted)
		prev = metrics.AccuracyPercent
	}
}

func TestAlign_Deterministic(t *testing.T) {
	ref := Normalize("a b c a b c a b c")
	spoken := Normalize("a c b a c b a")

	spans1, metrics1, errs1 := Align(ref, spoken)
	for i := 0; i < 10; i++ {
		spans, metrics, errs := Align(ref, spoken)
		assert.Equal(t, spans1, spans)
		assert.Equal(t, metrics1, metrics)
		assert.Equal(t, errs1, errs)
	}
}
