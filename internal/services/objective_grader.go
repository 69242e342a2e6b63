package services

import (
	"github.com/SAP-F-2025/exam-service/internal/models"
)

// GradeChoiceSubmission scores a choice-type submission. The rule is binary:
// the full question score iff the selected option set equals the correct set
// exactly, otherwise zero. Empty selections and near-misses both score zero.
func GradeChoiceSubmission(submission *models.Submission, question *models.Question) float64 {
	selected, err := submission.SelectedOptions()
	if err != nil || len(selected) == 0 {
		return 0
	}

	selectedSet := make(map[uint]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}

	correct := question.CorrectOptionIDs()
	if len(selectedSet) != len(correct) {
		return 0
	}
	for _, id := range correct {
		if !selectedSet[id] {
			return 0
		}
	}
	return float64(question.Score)
}
