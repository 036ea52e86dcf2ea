// Package sqlite is a single-file store for local runs and the seed command.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"quiz-generator-service/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// Store persists every record in one SQLite database. String slices are kept
// as JSON text columns.
type Store struct {
	db    *sqlx.DB
	clock func() time.Time
}

// Open connects to path (":memory:" for a throwaway database) and creates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite doesn't support multiple writers; one connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &Store{db: db, clock: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type questionSetRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	Difficulty  string    `db:"difficulty"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r questionSetRow) toDomain() domain.QuestionSet {
	return domain.QuestionSet{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Difficulty:  domain.Difficulty(r.Difficulty),
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
	}
}

type questionRow struct {
	ID            string `db:"id"`
	QuestionSetID string `db:"question_set_id"`
	Text          string `db:"text"`
	Options       string `db:"options"`
	CorrectIndex  int    `db:"correct_index"`
	Explanation   string `db:"explanation"`
}

func (r questionRow) toDomain() (domain.Question, error) {
	q := domain.Question{
		ID:            r.ID,
		QuestionSetID: r.QuestionSetID,
		Text:          r.Text,
		CorrectIndex:  r.CorrectIndex,
		Explanation:   r.Explanation,
	}
	if err := json.Unmarshal([]byte(r.Options), &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("decode options of question %s: %w", r.ID, err)
	}
	return q, nil
}

type quizRow struct {
	ID                   string        `db:"id"`
	Owner                string        `db:"owner"`
	QuestionSetID        string        `db:"question_set_id"`
	QuestionSetName      string        `db:"question_set_name"`
	Status               string        `db:"status"`
	TotalQuestions       int           `db:"total_questions"`
	TimePerQuestion      int           `db:"time_per_question"`
	CurrentQuestionIndex int           `db:"current_question_index"`
	Score                sql.NullInt64 `db:"score"`
	StartedAt            time.Time     `db:"started_at"`
	CompletedAt          sql.NullTime  `db:"completed_at"`
	QuestionIDs          string        `db:"question_ids"`
	CreatedAt            time.Time     `db:"created_at"`
}

func newQuizRow(q domain.Quiz) (quizRow, error) {
	ids, err := json.Marshal(q.QuestionIDs)
	if err != nil {
		return quizRow{}, err
	}
	row := quizRow{
		ID:                   q.ID,
		Owner:                q.Owner,
		QuestionSetID:        q.QuestionSetID,
		QuestionSetName:      q.QuestionSetName,
		Status:               string(q.Status),
		TotalQuestions:       q.TotalQuestions,
		TimePerQuestion:      q.TimePerQuestion,
		CurrentQuestionIndex: q.CurrentQuestionIndex,
		StartedAt:            q.StartedAt,
		QuestionIDs:          string(ids),
		CreatedAt:            q.CreatedAt,
	}
	if q.Score != nil {
		row.Score = sql.NullInt64{Int64: int64(*q.Score), Valid: true}
	}
	if q.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: *q.CompletedAt, Valid: true}
	}
	return row, nil
}

func (r quizRow) toDomain() (domain.Quiz, error) {
	q := domain.Quiz{
		ID:                   r.ID,
		Owner:                r.Owner,
		QuestionSetID:        r.QuestionSetID,
		QuestionSetName:      r.QuestionSetName,
		Status:               domain.QuizStatus(r.Status),
		TotalQuestions:       r.TotalQuestions,
		TimePerQuestion:      r.TimePerQuestion,
		CurrentQuestionIndex: r.CurrentQuestionIndex,
		StartedAt:            r.StartedAt,
		CreatedAt:            r.CreatedAt,
	}
	if r.Score.Valid {
		score := int(r.Score.Int64)
		q.Score = &score
	}
	if r.CompletedAt.Valid {
		at := r.CompletedAt.Time
		q.CompletedAt = &at
	}
	if err := json.Unmarshal([]byte(r.QuestionIDs), &q.QuestionIDs); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode question ids of quiz %s: %w", r.ID, err)
	}
	return q, nil
}

type answerRow struct {
	ID            string        `db:"id"`
	Owner         string        `db:"owner"`
	QuizID        string        `db:"quiz_id"`
	QuestionID    string        `db:"question_id"`
	QuestionIndex int           `db:"question_index"`
	SelectedIndex sql.NullInt64 `db:"selected_index"`
	IsCorrect     bool          `db:"is_correct"`
	TimeTaken     int           `db:"time_taken"`
	CreatedAt     time.Time     `db:"created_at"`
}

func (r answerRow) toDomain() domain.QuizAnswer {
	a := domain.QuizAnswer{
		ID:            r.ID,
		Owner:         r.Owner,
		QuizID:        r.QuizID,
		QuestionID:    r.QuestionID,
		QuestionIndex: r.QuestionIndex,
		IsCorrect:     r.IsCorrect,
		TimeTaken:     r.TimeTaken,
		CreatedAt:     r.CreatedAt,
	}
	if r.SelectedIndex.Valid {
		selected := int(r.SelectedIndex.Int64)
		a.SelectedIndex = &selected
	}
	return a
}

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
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO question_sets (id, name, description, category, difficulty, is_active, created_at)
		VALUES (:id, :name, :description, :category, :difficulty, :is_active, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			difficulty = excluded.difficulty,
			is_active = excluded.is_active`,
		questionSetRow{
			ID:          set.ID,
			Name:        set.Name,
			Description: set.Description,
			Category:    set.Category,
			Difficulty:  string(set.Difficulty),
			IsActive:    set.IsActive,
			CreatedAt:   set.CreatedAt,
		})
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("insert question set: %w", err)
	}
	return set, nil
}

func (s *Store) GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	var row questionSetRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM question_sets WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("get question set: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListQuestionSets(ctx context.Context, filter domain.QuestionSetFilter, page domain.PageRequest) (domain.Page[domain.QuestionSet], error) {
	offset, err := domain.DecodeCursor(page.NextToken)
	if err != nil {
		return domain.Page[domain.QuestionSet]{}, err
	}
	size := page.Size()
	var rows []questionSetRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT * FROM question_sets
		WHERE ? = 0 OR is_active = 1
		ORDER BY created_at, id
		LIMIT ? OFFSET ?`, filter.ActiveOnly, size, offset)
	if err != nil {
		return domain.Page[domain.QuestionSet]{}, fmt.Errorf("list question sets: %w", err)
	}
	items := make([]domain.QuestionSet, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return domain.Page[domain.QuestionSet]{Items: items, NextToken: domain.NextCursor(offset, size, len(items))}, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if _, err := s.GetQuestionSet(ctx, q.QuestionSetID); err != nil {
		return domain.Question{}, err
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return domain.Question{}, err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO questions (id, question_set_id, text, options, correct_index, explanation)
		VALUES (:id, :question_set_id, :text, :options, :correct_index, :explanation)`,
		questionRow{
			ID:            q.ID,
			QuestionSetID: q.QuestionSetID,
			Text:          q.Text,
			Options:       string(options),
			CorrectIndex:  q.CorrectIndex,
			Explanation:   q.Explanation,
		})
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	var row questionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, question_set_id, text, options, correct_index, explanation
		FROM questions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return row.toDomain()
}

func (s *Store) ListQuestions(ctx context.Context, questionSetID string, page domain.PageRequest) (domain.Page[domain.Question], error) {
	offset, err := domain.DecodeCursor(page.NextToken)
	if err != nil {
		return domain.Page[domain.Question]{}, err
	}
	size := page.Size()
	var rows []questionRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT id, question_set_id, text, options, correct_index, explanation
		FROM questions WHERE question_set_id = ?
		ORDER BY seq
		LIMIT ? OFFSET ?`, questionSetID, size, offset)
	if err != nil {
		return domain.Page[domain.Question]{}, fmt.Errorf("list questions: %w", err)
	}
	items := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.toDomain()
		if err != nil {
			return domain.Page[domain.Question]{}, err
		}
		items = append(items, q)
	}
	return domain.Page[domain.Question]{Items: items, NextToken: domain.NextCursor(offset, size, len(rows))}, nil
}

const insertQuizSQL = `
	INSERT INTO quizzes (id, owner, question_set_id, question_set_name, status, total_questions,
		time_per_question, current_question_index, score, started_at, completed_at, question_ids, created_at)
	VALUES (:id, :owner, :question_set_id, :question_set_name, :status, :total_questions,
		:time_per_question, :current_question_index, :score, :started_at, :completed_at, :question_ids, :created_at)`

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
	row, err := newQuizRow(quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	if _, err := s.db.NamedExecContext(ctx, insertQuizSQL, row); err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) GetQuiz(ctx context.Context, owner, id string) (domain.Quiz, error) {
	return getQuiz(ctx, s.db, owner, id)
}

func getQuiz(ctx context.Context, q sqlx.QueryerContext, owner, id string) (domain.Quiz, error) {
	var row quizRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT * FROM quizzes WHERE id = ? AND owner = ?`, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return row.toDomain()
}

func (s *Store) UpdateQuiz(ctx context.Context, owner, id string, update domain.QuizUpdate) (domain.Quiz, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Quiz{}, err
	}
	defer tx.Rollback()

	current, err := getQuiz(ctx, tx, owner, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	updated, err := update.Apply(current)
	if err != nil {
		return domain.Quiz{}, err
	}
	row, err := newQuizRow(updated)
	if err != nil {
		return domain.Quiz{}, err
	}
	_, err = tx.NamedExecContext(ctx, `
		UPDATE quizzes SET
			current_question_index = :current_question_index,
			status = :status,
			score = :score,
			completed_at = :completed_at
		WHERE id = :id AND owner = :owner`, row)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Quiz{}, fmt.Errorf("commit quiz update: %w", err)
	}
	return updated, nil
}

func (s *Store) ListQuizzes(ctx context.Context, owner string, filter domain.QuizFilter, page domain.PageRequest) (domain.Page[domain.Quiz], error) {
	offset, err := domain.DecodeCursor(page.NextToken)
	if err != nil {
		return domain.Page[domain.Quiz]{}, err
	}
	size := page.Size()
	var rows []quizRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT * FROM quizzes
		WHERE owner = ? AND (? = '' OR status = ?)
		ORDER BY created_at, id
		LIMIT ? OFFSET ?`, owner, string(filter.Status), string(filter.Status), size, offset)
	if err != nil {
		return domain.Page[domain.Quiz]{}, fmt.Errorf("list quizzes: %w", err)
	}
	items := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		quiz, err := row.toDomain()
		if err != nil {
			return domain.Page[domain.Quiz]{}, err
		}
		items = append(items, quiz)
	}
	return domain.Page[domain.Quiz]{Items: items, NextToken: domain.NextCursor(offset, size, len(rows))}, nil
}

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
	if _, err := s.GetQuiz(ctx, answer.Owner, answer.QuizID); err != nil {
		return domain.QuizAnswer{}, err
	}

	row := answerRow{
		ID:            answer.ID,
		Owner:         answer.Owner,
		QuizID:        answer.QuizID,
		QuestionID:    answer.QuestionID,
		QuestionIndex: answer.QuestionIndex,
		IsCorrect:     answer.IsCorrect,
		TimeTaken:     answer.TimeTaken,
		CreatedAt:     answer.CreatedAt,
	}
	if answer.SelectedIndex != nil {
		row.SelectedIndex = sql.NullInt64{Int64: int64(*answer.SelectedIndex), Valid: true}
	}
	res, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO quiz_answers (id, owner, quiz_id, question_id, question_index,
			selected_index, is_correct, time_taken, created_at)
		VALUES (:id, :owner, :quiz_id, :question_id, :question_index,
			:selected_index, :is_correct, :time_taken, :created_at)`, row)
	if err != nil {
		return domain.QuizAnswer{}, fmt.Errorf("insert answer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.QuizAnswer{}, domain.ErrAnswerExists
	}
	return answer, nil
}

func (s *Store) ListAnswers(ctx context.Context, owner, quizID string, page domain.PageRequest) (domain.Page[domain.QuizAnswer], error) {
	offset, err := domain.DecodeCursor(page.NextToken)
	if err != nil {
		return domain.Page[domain.QuizAnswer]{}, err
	}
	size := page.Size()
	var rows []answerRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT * FROM quiz_answers
		WHERE quiz_id = ? AND owner = ?
		ORDER BY question_index
		LIMIT ? OFFSET ?`, quizID, owner, size, offset)
	if err != nil {
		return domain.Page[domain.QuizAnswer]{}, fmt.Errorf("list answers: %w", err)
	}
	items := make([]domain.QuizAnswer, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return domain.Page[domain.QuizAnswer]{Items: items, NextToken: domain.NextCursor(offset, size, len(rows))}, nil
}
