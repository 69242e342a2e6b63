package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGradeResponse(t *testing.T) {
	t.Run("score and feedback lines", func(t *testing.T) {
		score, feedback := ParseGradeResponse("Score: 7\nFeedback: Good job", 10)
		assert.Equal(t, 7, score)
		assert.Equal(t, "Good job", feedback)
	})

	t.Run("score above max is clamped", func(t *testing.T) {
		score, feedback := ParseGradeResponse("Score: 12", 10)
		assert.Equal(t, 10, score)
		assert.Equal(t, PlaceholderFeedback, feedback)
	})

	t.Run("negative score is clamped to zero", func(t *testing.T) {
		score, _ := ParseGradeResponse("Score: -3", 10)
		assert.Equal(t, 0, score)
	})

	t.Run("fraction takes the numerator", func(t *testing.T) {
		score, _ := ParseGradeResponse("Score: 7/10", 10)
		assert.Equal(t, 7, score)
	})

	t.Run("score line with trailing commentary", func(t *testing.T) {
		score, _ := ParseGradeResponse("Score: 8 out of 10", 10)
		assert.Equal(t, 8, score)
	})

	t.Run("keyword fallback full score", func(t *testing.T) {
		score, feedback := ParseGradeResponse("This is mostly correct", 10)
		assert.Equal(t, 10, score)
		assert.Equal(t, PlaceholderFeedback, feedback)
	})

	t.Run("keyword fallback half score", func(t *testing.T) {
		score, _ := ParseGradeResponse("The answer is partially right", 9)
		assert.Equal(t, 4, score)
	})

	t.Run("no score and no keywords", func(t *testing.T) {
		score, feedback := ParseGradeResponse("I cannot evaluate this", 10)
		assert.Equal(t, 0, score)
		assert.Equal(t, PlaceholderFeedback, feedback)
	})

	t.Run("multi-line feedback is newline joined", func(t *testing.T) {
		raw := "Score: 5\nFeedback: First point\nSecond point\n\nThird point"
		score, feedback := ParseGradeResponse(raw, 10)
		assert.Equal(t, 5, score)
		assert.Equal(t, "First point\nSecond point\nThird point", feedback)
	})

	t.Run("empty input", func(t *testing.T) {
		score, feedback := ParseGradeResponse("", 10)
		assert.Equal(t, 0, score)
		assert.Equal(t, PlaceholderFeedback, feedback)
	})

	t.Run("unparseable score line falls back to keywords", func(t *testing.T) {
		score, _ := ParseGradeResponse("Score: excellent", 6)
		assert.Equal(t, 6, score)
	})
}
