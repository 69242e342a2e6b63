package services

import (
	"math/rand"
	"sort"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// QuestionSelector picks and orders the question set an attempt presents.
// The chosen list is pinned on the attempt at start time; it is never
// recomputed for a running attempt, so resume and navigation always see the
// same questions.
type QuestionSelector struct {
	rng *rand.Rand
}

// NewQuestionSelector creates a selector. The RNG is injected so tests can
// pass a seeded source and assert deterministic subsets.
func NewQuestionSelector(rng *rand.Rand) *QuestionSelector {
	return &QuestionSelector{rng: rng}
}

// SelectForAttempt returns the ordered question IDs for a new attempt:
// the pool sorted by position ascending, reduced to a random subset of
// MaxQuestions when the test caps below the pool size. The subset keeps
// position order.
func (s *QuestionSelector) SelectForAttempt(test *models.Test) []uint {
	pool := make([]models.Question, len(test.Questions))
	copy(pool, test.Questions)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Position < pool[j].Position
	})

	if test.MaxQuestions > 0 && test.MaxQuestions < len(pool) {
		picked := s.rng.Perm(len(pool))[:test.MaxQuestions]
		sort.Ints(picked)
		subset := make([]models.Question, 0, test.MaxQuestions)
		for _, idx := range picked {
			subset = append(subset, pool[idx])
		}
		pool = subset
	}

	ids := make([]uint, len(pool))
	for i, q := range pool {
		ids[i] = q.ID
	}
	return ids
}

// ResumeIndex returns the 1-based index of the first pinned question without
// an answered submission. When every question is answered it returns the last
// index so resume lands on the final question for review.
func ResumeIndex(pinned []uint, submissions []*models.Submission) int {
	if len(pinned) == 0 {
		return 1
	}

	answered := make(map[uint]bool, len(submissions))
	for _, sub := range submissions {
		if sub.HasAnswer() {
			answered[sub.QuestionID] = true
		}
	}

	for i, id := range pinned {
		if !answered[id] {
			return i + 1
		}
	}
	return len(pinned)
}
