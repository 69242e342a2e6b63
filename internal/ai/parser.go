package ai

import (
	"strconv"
	"strings"
)

// PlaceholderFeedback is returned when the provider reply carried no feedback text.
const PlaceholderFeedback = "No detailed feedback was provided."

// ParseGradeResponse extracts a score and feedback from a raw provider reply.
// It is deliberately schema-free: any provider that emits "Score:" and
// "Feedback:" lines parses the same way, and replies without an explicit
// score fall back to keyword sentiment.
func ParseGradeResponse(rawText string, maxScore int) (int, string) {
	score := 0
	scoreFound := false
	var feedbackLines []string
	inFeedback := false

	for _, line := range strings.Split(rawText, "\n") {
		trimmed := strings.TrimSpace(line)

		if !inFeedback && strings.HasPrefix(trimmed, "Score:") {
			if parsed, ok := parseScoreValue(strings.TrimPrefix(trimmed, "Score:")); ok {
				score = parsed
				scoreFound = true
			}
			continue
		}

		if strings.HasPrefix(trimmed, "Feedback:") {
			inFeedback = true
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "Feedback:"))
			if rest != "" {
				feedbackLines = append(feedbackLines, rest)
			}
			continue
		}

		if inFeedback && trimmed != "" {
			feedbackLines = append(feedbackLines, trimmed)
		}
	}

	if !scoreFound {
		score = keywordFallbackScore(rawText, maxScore)
	}

	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}

	feedback := strings.Join(feedbackLines, "\n")
	if feedback == "" {
		feedback = PlaceholderFeedback
	}

	return score, feedback
}

// parseScoreValue accepts a bare integer or an "N/M" fraction, taking the numerator.
func parseScoreValue(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	// Take the first whitespace-separated token, provider replies sometimes
	// append commentary on the score line.
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = fields[0]
	}

	if parsed, err := strconv.Atoi(raw); err == nil {
		return parsed, true
	}

	if numerator, _, found := strings.Cut(raw, "/"); found {
		if parsed, err := strconv.Atoi(strings.TrimSpace(numerator)); err == nil {
			return parsed, true
		}
	}

	return 0, false
}

func keywordFallbackScore(rawText string, maxScore int) int {
	lowered := strings.ToLower(rawText)
	switch {
	case strings.Contains(lowered, "correct"),
		strings.Contains(lowered, "perfect"),
		strings.Contains(lowered, "excellent"):
		return maxScore
	case strings.Contains(lowered, "partially"),
		strings.Contains(lowered, "almost"):
		return maxScore / 2
	default:
		return 0
	}
}
