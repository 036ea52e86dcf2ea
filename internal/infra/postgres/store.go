package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-generator-service/internal/domain"
)

const foreignKeyViolation = "23503"

// Store persists question sets, questions, quizzes and answers in Postgres.
type Store struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, clock: time.Now}
}

const questionSetColumns = `id, name, description, category, difficulty, is_active, created_at`

func (s *Store) CreateQuestionSet(ctx context.Context, set domain.QuestionSet) (domain.QuestionSet, error) {
	if err := set.Validate(); err != nil {
		return domain.QuestionSet{}, err
	}
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	if set.Difficulty == "" {
		set.Difficulty = domain.DifficultyMedium
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = s.clock().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO question_sets (`+questionSetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			difficulty = EXCLUDED.difficulty,
			is_active = EXCLUDED.is_active`,
		set.ID, set.Name, set.Description, set.Category, string(set.Difficulty), set.IsActive, set.CreatedAt)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("insert question set: %w", err)
	}
	return set, nil
}

func (s *Store) GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+questionSetColumns+` FROM question_sets WHERE id = $1`, id)
	set, err := scanQuestionSet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("get question set: %w", err)
	}
	return set, nil
}

func (s *Store) ListQuestionSets(ctx context.Context, filter domain.QuestionSetFilter, page domain.PageRequest) (domain.Page[domain.QuestionSet], error) {
	offset, err := domain.DecodeCursor(page.NextToken)
	if err != nil {
		return domain.Page[domain.QuestionSet]{}, err
	}
	size := page.Size()
	rows, err := s.pool.Query(ctx, `
		SELECT `+questionSetColumns+` FROM question_sets
		WHERE NOT $1 OR is_active
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`, filter.ActiveOnly, size, offset)
	if err != nil {
		return domain.Page[domain.QuestionSet]{}, fmt.Errorf("list question sets: %w", err)
	}
	defer rows.Close()

	items := make([]domain.QuestionSet, 0, size)
	for rows.Next() {
		set, err := scanQuestionSet(rows)
		if err != nil {
			return domain.Page[domain.QuestionSet]{}, fmt.Errorf("scan question set: %w", err)
		}
		items = append(items, set)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.QuestionSet]{}, err
	}
	return domain.Page[domain.QuestionSet]{Items: items, NextToken: domain.NextCursor(offset, size, len(items))}, nil
}

const questionColumns = `id, question_set_id, text, options, correct_index, explanation`

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		q.ID, q.QuestionSetID, q.Text, q.Options, q.CorrectIndex, q.Explanation)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return domain.Question{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context, questionSetID string, page domain.PageRequest) (domain.Page[domain.Question], error) {
	offset, err := domain.DecodeCursor(page.NextToken)
	if err != nil {
		return domain.Page[domain.Question]{}, err
	}
	size := page.Size()
	rows, err := s.pool.Query(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE question_set_id = $1
		ORDER BY seq
		LIMIT $2 OFFSET $3`, questionSetID, size, offset)
	if err != nil {
		return domain.Page[domain.Question]{}, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Question, 0, size)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return domain.Page[domain.Question]{}, fmt.Errorf("scan question: %w", err)
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Question]{}, err
	}
	return domain.Page[domain.Question]{Items: items, NextToken: domain.NextCursor(offset, size, len(items))}, nil
}

const quizColumns = `id, owner, question_set_id, question_set_name, status, total_questions, time_per_question,
	current_question_index, score, started_at, completed_at, question_ids, created_at`

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	now := s.clock().UTC()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	if quiz.StartedAt.IsZero() {
		quiz.StartedAt = now
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quizzes (`+quizColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		quiz.ID, quiz.Owner, quiz.QuestionSetID, quiz.QuestionSetName, string(quiz.Status),
		quiz.TotalQuestions, quiz.TimePerQuestion, quiz.CurrentQuestionIndex,
		nullInt(quiz.Score), quiz.StartedAt, nullTime(quiz.CompletedAt), quiz.QuestionIDs, quiz.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return domain.Quiz{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) GetQuiz(ctx context.Context, owner, id string) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1 AND owner = $2`, id, owner)
	quiz, err := scanQuiz(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

// UpdateQuiz applies the update under a row lock so completion is written once.
func (s *Store) UpdateQuiz(ctx context.Context, owner, id string, update domain.QuizUpdate) (domain.Quiz, error) {
	var updated domain.Quiz
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1 AND owner = $2 FOR UPDATE`, id, owner)
		current, err := scanQuiz(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrQuizNotFound
		}
		if err != nil {
			return err
		}
		updated, err = update.Apply(current)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE quizzes SET
				current_question_index = $3,
				status = $4,
				score = $5,
				completed_at = $6
			WHERE id = $1 AND owner = $2`,
			id, owner, updated.CurrentQuestionIndex, string(updated.Status), nullInt(updated.Score), nullTime(updated.CompletedAt))
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) || errors.Is(err, domain.ErrQuizCompleted) || domain.IsValidation(err) {
			return domain.Quiz{}, err
		}
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	return updated, nil
}

func (s *Store) ListQuizzes(ctx context.Context, owner string, filter domain.QuizFilter, page domain.PageRequest) (domain.Page[domain.Quiz], error) {
	offset, err := domain.DecodeCursor(page.NextToken)
	if err != nil {
		return domain.Page[domain.Quiz]{}, err
	}
	size := page.Size()
	rows, err := s.pool.Query(ctx, `
		SELECT `+quizColumns+` FROM quizzes
		WHERE owner = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4`, owner, string(filter.Status), size, offset)
	if err != nil {
		return domain.Page[domain.Quiz]{}, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Quiz, 0, size)
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return domain.Page[domain.Quiz]{}, fmt.Errorf("scan quiz: %w", err)
		}
		items = append(items, quiz)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Quiz]{}, err
	}
	return domain.Page[domain.Quiz]{Items: items, NextToken: domain.NextCursor(offset, size, len(items))}, nil
}

const answerColumns = `id, owner, quiz_id, question_id, question_index, selected_index, is_correct, time_taken, created_at`

// CreateAnswer inserts the answer; a second answer for the same quiz position is rejected.
func (s *Store) CreateAnswer(ctx context.Context, answer domain.QuizAnswer) (domain.QuizAnswer, error) {
	if err := answer.Validate(); err != nil {
		return domain.QuizAnswer{}, err
	}
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = s.clock().UTC()
	}
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO quiz_answers (`+answerColumns+`)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE EXISTS (SELECT 1 FROM quizzes WHERE id = $3 AND owner = $2)
		ON CONFLICT (quiz_id, question_index) DO NOTHING
		RETURNING id`,
		answer.ID, answer.Owner, answer.QuizID, answer.QuestionID, answer.QuestionIndex,
		nullInt(answer.SelectedIndex), answer.IsCorrect, answer.TimeTaken, answer.CreatedAt).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetQuiz(ctx, answer.Owner, answer.QuizID); getErr != nil {
			return domain.QuizAnswer{}, getErr
		}
		return domain.QuizAnswer{}, domain.ErrAnswerExists
	}
	if err != nil {
		return domain.QuizAnswer{}, fmt.Errorf("insert answer: %w", err)
	}
	return answer, nil
}

func (s *Store) ListAnswers(ctx context.Context, owner, quizID string, page domain.PageRequest) (domain.Page[domain.QuizAnswer], error) {
	offset, err := domain.DecodeCursor(page.NextToken)
	if err != nil {
		return domain.Page[domain.QuizAnswer]{}, err
	}
	size := page.Size()
	rows, err := s.pool.Query(ctx, `
		SELECT `+answerColumns+` FROM quiz_answers
		WHERE quiz_id = $1 AND owner = $2
		ORDER BY question_index
		LIMIT $3 OFFSET $4`, quizID, owner, size, offset)
	if err != nil {
		return domain.Page[domain.QuizAnswer]{}, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	items := make([]domain.QuizAnswer, 0, size)
	for rows.Next() {
		var (
			a        domain.QuizAnswer
			selected sql.NullInt32
		)
		if err := rows.Scan(&a.ID, &a.Owner, &a.QuizID, &a.QuestionID, &a.QuestionIndex,
			&selected, &a.IsCorrect, &a.TimeTaken, &a.CreatedAt); err != nil {
			return domain.Page[domain.QuizAnswer]{}, fmt.Errorf("scan answer: %w", err)
		}
		if selected.Valid {
			v := int(selected.Int32)
			a.SelectedIndex = &v
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.QuizAnswer]{}, err
	}
	return domain.Page[domain.QuizAnswer]{Items: items, NextToken: domain.NextCursor(offset, size, len(items))}, nil
}

func scanQuestionSet(row pgx.Row) (domain.QuestionSet, error) {
	var (
		set        domain.QuestionSet
		difficulty string
	)
	if err := row.Scan(&set.ID, &set.Name, &set.Description, &set.Category, &difficulty, &set.IsActive, &set.CreatedAt); err != nil {
		return domain.QuestionSet{}, err
	}
	set.Difficulty = domain.Difficulty(difficulty)
	return set, nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	if err := row.Scan(&q.ID, &q.QuestionSetID, &q.Text, &q.Options, &q.CorrectIndex, &q.Explanation); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz        domain.Quiz
		status      string
		score       sql.NullInt32
		completedAt sql.NullTime
	)
	if err := row.Scan(&quiz.ID, &quiz.Owner, &quiz.QuestionSetID, &quiz.QuestionSetName, &status,
		&quiz.TotalQuestions, &quiz.TimePerQuestion, &quiz.CurrentQuestionIndex, &score,
		&quiz.StartedAt, &completedAt, &quiz.QuestionIDs, &quiz.CreatedAt); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Status = domain.QuizStatus(status)
	if score.Valid {
		v := int(score.Int32)
		quiz.Score = &v
	}
	if completedAt.Valid {
		at := completedAt.Time
		quiz.CompletedAt = &at
	}
	return quiz, nil
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
