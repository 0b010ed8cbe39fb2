package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository"
)

var _ repository.AnswerRepository = (*DB)(nil)

const answerSelect = `
	SELECT a.id, a.question_id, a.content, a.votes, a.is_best_answer, a.created_at, a.updated_at,
	       u.id, u.username, u.profile_picture
	FROM answers a
	JOIN users u ON u.id = a.author_id`

func (db *DB) CreateAnswer(ctx context.Context, a *model.Answer) error {
	now := time.Now().UTC()
	a.ID = xid.New().String()
	a.Votes = 0
	a.IsBestAnswer = false
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO answers (id, question_id, author_id, content, votes, is_best_answer, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		a.ID, a.QuestionID, a.Author.ID, a.Content, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFoundMessage("Question not found.")
		}
		return fmt.Errorf("sqlite: creating answer: %w", err)
	}
	return nil
}

func (db *DB) GetAnswer(ctx context.Context, id string) (*model.Answer, error) {
	a, err := scanAnswer(db.conn.QueryRowContext(ctx, answerSelect+` WHERE a.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("Answer not found.")
		}
		return nil, fmt.Errorf("sqlite: getting answer %s: %w", id, err)
	}
	return a, nil
}

// ListAnswers orders the best answer first, then by votes, then newest.
func (db *DB) ListAnswers(ctx context.Context, questionID string) ([]model.Answer, error) {
	rows, err := db.conn.QueryContext(ctx,
		answerSelect+` WHERE a.question_id = ?
		 ORDER BY a.is_best_answer DESC, a.votes DESC, a.created_at DESC, a.id DESC`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing answers: %w", err)
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning answer: %w", err)
		}
		answers = append(answers, *a)
	}
	return answers, rows.Err()
}

func (db *DB) UpdateAnswer(ctx context.Context, a *model.Answer) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE answers SET content = ?, updated_at = ? WHERE id = ?`,
		a.Content, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating answer %s: %w", a.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFoundMessage("Answer not found.")
	}
	return nil
}

func (db *DB) DeleteAnswer(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting answer %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFoundMessage("Answer not found.")
	}
	return nil
}

// VoteAnswer adds delta to the vote count in a single statement.
func (db *DB) VoteAnswer(ctx context.Context, id string, delta int) (*model.Answer, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE answers SET votes = votes + ? WHERE id = ?`, delta, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: voting on answer %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperror.NotFoundMessage("Answer not found.")
	}
	return db.GetAnswer(ctx, id)
}

// MarkBestAnswer clears the flag on every answer of the question and sets
// it on answerID, inside one transaction.
func (db *DB) MarkBestAnswer(ctx context.Context, questionID, answerID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE answers SET is_best_answer = 0 WHERE question_id = ? AND is_best_answer = 1`,
		questionID,
	); err != nil {
		return fmt.Errorf("sqlite: clearing best answer: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE answers SET is_best_answer = 1 WHERE id = ? AND question_id = ?`,
		answerID, questionID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting best answer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFoundMessage("Answer not found.")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func scanAnswer(s scanner) (*model.Answer, error) {
	var (
		a    model.Answer
		best int
	)
	err := s.Scan(
		&a.ID, &a.QuestionID, &a.Content, &a.Votes, &best, &a.CreatedAt, &a.UpdatedAt,
		&a.Author.ID, &a.Author.Username, &a.Author.ProfilePicture,
	)
	if err != nil {
		return nil, err
	}
	a.IsBestAnswer = best != 0
	return &a, nil
}
