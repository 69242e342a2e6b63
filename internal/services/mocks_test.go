package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRepo is an in-memory repositories.TransactionRepository used by the
// service tests.
type fakeRepo struct {
	mu sync.Mutex

	users       map[string]*models.User
	groupAccess map[string]map[uint]bool
	tests       map[uint]*models.Test
	questions   map[uint]*models.Question
	attempts    map[uint]*models.Attempt
	submissions map[uint]*models.Submission

	nextAttemptID    uint
	nextSubmissionID uint

	// attemptCreateHook runs before an attempt insert, letting tests slip a
	// competing write into the check-then-create window.
	attemptCreateHook func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:       make(map[string]*models.User),
		groupAccess: make(map[string]map[uint]bool),
		tests:       make(map[uint]*models.Test),
		questions:   make(map[uint]*models.Question),
		attempts:    make(map[uint]*models.Attempt),
		submissions: make(map[uint]*models.Submission),
	}
}

func (r *fakeRepo) addUser(user *models.User) { r.users[user.ID] = user }

func (r *fakeRepo) grantAccess(studentID string, groupID uint) {
	if r.groupAccess[studentID] == nil {
		r.groupAccess[studentID] = make(map[uint]bool)
	}
	r.groupAccess[studentID][groupID] = true
}

func (r *fakeRepo) addTest(test *models.Test) {
	r.tests[test.ID] = test
	for i := range test.Questions {
		q := test.Questions[i]
		r.questions[q.ID] = &q
	}
}

func (r *fakeRepo) Test() repositories.TestRepository             { return &fakeTestRepo{r} }
func (r *fakeRepo) Question() repositories.QuestionRepository     { return &fakeQuestionRepo{r} }
func (r *fakeRepo) Attempt() repositories.AttemptRepository       { return &fakeAttemptRepo{r} }
func (r *fakeRepo) Submission() repositories.SubmissionRepository { return &fakeSubmissionRepo{r} }
func (r *fakeRepo) User() repositories.UserRepository             { return &fakeUserRepo{r} }

func (r *fakeRepo) Begin(ctx context.Context) (repositories.Repository, error) { return r, nil }
func (r *fakeRepo) Commit(ctx context.Context) error                           { return nil }
func (r *fakeRepo) Rollback(ctx context.Context) error                         { return nil }

// ===== TEST REPO =====

type fakeTestRepo struct{ r *fakeRepo }

func (f *fakeTestRepo) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	test, ok := f.r.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *test
	return &copied, nil
}

func (f *fakeTestRepo) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	test, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	test.ComputeTotals()
	return test, nil
}

// ===== QUESTION REPO =====

type fakeQuestionRepo struct{ r *fakeRepo }

func (f *fakeQuestionRepo) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	question, ok := f.r.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *question
	return &copied, nil
}

func (f *fakeQuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	questions := make([]*models.Question, 0, len(ids))
	for _, id := range ids {
		if question, ok := f.r.questions[id]; ok {
			copied := *question
			questions = append(questions, &copied)
		}
	}
	return questions, nil
}

// ===== ATTEMPT REPO =====

type fakeAttemptRepo struct{ r *fakeRepo }

func (f *fakeAttemptRepo) Create(ctx context.Context, attempt *models.Attempt) error {
	if f.r.attemptCreateHook != nil {
		f.r.attemptCreateHook()
	}

	f.r.mu.Lock()
	defer f.r.mu.Unlock()

	// Mirror the schema constraints: one in_progress attempt per
	// (student, test) and unique attempt numbers.
	for _, existing := range f.r.attempts {
		if existing.StudentID != attempt.StudentID || existing.TestID != attempt.TestID {
			continue
		}
		if attempt.Status == models.AttemptInProgress && existing.Status == models.AttemptInProgress {
			return gorm.ErrDuplicatedKey
		}
		if existing.AttemptNumber == attempt.AttemptNumber {
			return gorm.ErrDuplicatedKey
		}
	}

	f.r.nextAttemptID++
	attempt.ID = f.r.nextAttemptID
	copied := *attempt
	f.r.attempts[attempt.ID] = &copied
	return nil
}

func (f *fakeAttemptRepo) GetByID(ctx context.Context, id uint) (*models.Attempt, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	attempt, ok := f.r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *attempt
	return &copied, nil
}

func (f *fakeAttemptRepo) GetByIDWithDetails(ctx context.Context, id uint) (*models.Attempt, error) {
	attempt, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	if test, ok := f.r.tests[attempt.TestID]; ok {
		attempt.Test = *test
	}

	var submissions []models.Submission
	for _, submission := range f.r.submissions {
		if submission.AttemptID != id {
			continue
		}
		copied := *submission
		if question, ok := f.r.questions[submission.QuestionID]; ok {
			copied.Question = *question
		}
		submissions = append(submissions, copied)
	}
	sort.Slice(submissions, func(i, j int) bool { return submissions[i].ID < submissions[j].ID })
	attempt.Submissions = submissions
	return attempt, nil
}

func (f *fakeAttemptRepo) Update(ctx context.Context, attempt *models.Attempt) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	copied := *attempt
	copied.Submissions = nil
	f.r.attempts[attempt.ID] = &copied
	return nil
}

func (f *fakeAttemptRepo) GetActiveAttempt(ctx context.Context, studentID string, testID uint) (*models.Attempt, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, attempt := range f.r.attempts {
		if attempt.StudentID == studentID && attempt.TestID == testID && attempt.Status == models.AttemptInProgress {
			copied := *attempt
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAttemptRepo) GetNextAttemptNumber(ctx context.Context, studentID string, testID uint) (int, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	max := 0
	for _, attempt := range f.r.attempts {
		if attempt.StudentID == studentID && attempt.TestID == testID && attempt.AttemptNumber > max {
			max = attempt.AttemptNumber
		}
	}
	return max + 1, nil
}

func (f *fakeAttemptRepo) CountFinished(ctx context.Context, studentID string, testID uint) (int, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	count := 0
	for _, attempt := range f.r.attempts {
		if attempt.StudentID == studentID && attempt.TestID == testID && attempt.Status != models.AttemptInProgress {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttemptRepo) GetByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var attempts []*models.Attempt
	for _, attempt := range f.r.attempts {
		if attempt.StudentID != studentID {
			continue
		}
		copied := *attempt
		if test, ok := f.r.tests[attempt.TestID]; ok {
			copied.Test = *test
		}
		attempts = append(attempts, &copied)
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].ID < attempts[j].ID })
	return attempts, int64(len(attempts)), nil
}

func (f *fakeAttemptRepo) GetByTest(ctx context.Context, testID uint, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var attempts []*models.Attempt
	for _, attempt := range f.r.attempts {
		if attempt.TestID != testID {
			continue
		}
		copied := *attempt
		if student, ok := f.r.users[attempt.StudentID]; ok {
			copied.Student = *student
		}
		attempts = append(attempts, &copied)
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].ID < attempts[j].ID })
	return attempts, int64(len(attempts)), nil
}

func (f *fakeAttemptRepo) CompleteInProgress(ctx context.Context, id uint, completedAt time.Time, score float64) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	attempt, ok := f.r.attempts[id]
	if !ok || attempt.Status != models.AttemptInProgress {
		return false, nil
	}
	attempt.Status = models.AttemptCompleted
	attempt.CompletedAt = &completedAt
	attempt.Score = score
	return true, nil
}

func (f *fakeAttemptRepo) MarkAIReviewed(ctx context.Context, id uint, aiScore float64) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	attempt, ok := f.r.attempts[id]
	if !ok || attempt.Status != models.AttemptCompleted {
		return false, nil
	}
	attempt.Status = models.AttemptAIReviewed
	attempt.AIScore = aiScore
	return true, nil
}

// ===== SUBMISSION REPO =====

type fakeSubmissionRepo struct{ r *fakeRepo }

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.nextSubmissionID++
	submission.ID = f.r.nextSubmissionID
	copied := *submission
	copied.Question = models.Question{}
	f.r.submissions[submission.ID] = &copied
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	copied := *submission
	copied.Question = models.Question{}
	f.r.submissions[submission.ID] = &copied
	return nil
}

func (f *fakeSubmissionRepo) UpdateBatch(ctx context.Context, submissions []*models.Submission) error {
	for _, submission := range submissions {
		if err := f.Update(ctx, submission); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSubmissionRepo) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.Submission, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	var submissions []*models.Submission
	for _, submission := range f.r.submissions {
		if submission.AttemptID != attemptID {
			continue
		}
		copied := *submission
		if question, ok := f.r.questions[submission.QuestionID]; ok {
			copied.Question = *question
		}
		submissions = append(submissions, &copied)
	}
	sort.Slice(submissions, func(i, j int) bool { return submissions[i].ID < submissions[j].ID })
	return submissions, nil
}

func (f *fakeSubmissionRepo) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.Submission, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	for _, submission := range f.r.submissions {
		if submission.AttemptID == attemptID && submission.QuestionID == questionID {
			copied := *submission
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ===== USER REPO =====

type fakeUserRepo struct{ r *fakeRepo }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	user, ok := f.r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) HasGroupAccess(ctx context.Context, studentID string, groupID uint) (bool, error) {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	return f.r.groupAccess[studentID][groupID], nil
}
