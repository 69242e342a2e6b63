package ai

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// BuildGradingPrompt assembles the grading prompt for a subjective submission.
// The reply format instruction matches what ParseGradeResponse expects.
func BuildGradingPrompt(question *models.Question, studentAnswer string, maxScore int) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced exam grader. Evaluate the student's answer to the following question.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(question.Text)
	sb.WriteString("\n\n")

	if question.CorrectAnswer != nil && *question.CorrectAnswer != "" {
		sb.WriteString("Reference answer (not shown to the student):\n")
		sb.WriteString(*question.CorrectAnswer)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Student's answer:\n")
	if strings.TrimSpace(studentAnswer) == "" {
		sb.WriteString("(no answer provided)")
	} else {
		sb.WriteString(studentAnswer)
	}
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Grade the answer on a scale from 0 to %d. ", maxScore))
	sb.WriteString("Judge correctness, completeness, and understanding against the reference answer when one is given.\n\n")
	sb.WriteString("Format your reply strictly as:\n")
	sb.WriteString(fmt.Sprintf("Score: [integer from 0 to %d]\n", maxScore))
	sb.WriteString("Feedback: [brief constructive feedback for the student]\n")

	return sb.String()
}
