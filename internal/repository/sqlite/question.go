package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository"
)

var _ repository.QuestionRepository = (*DB)(nil)

// Tags are kept as a JSON array in one column; the tag filter uses json_each.
const questionSelect = `
	SELECT q.id, q.title, q.content, q.tags, q.created_at, q.updated_at,
	       u.id, u.username, u.profile_picture
	FROM questions q
	JOIN users u ON u.id = q.author_id`

func (db *DB) CreateQuestion(ctx context.Context, q *model.Question) error {
	tags, err := encodeTags(q.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	q.ID = xid.New().String()
	q.CreatedAt = now
	q.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO questions (id, author_id, title, content, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Author.ID, q.Title, q.Content, tags, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating question: %w", err)
	}
	return nil
}

func (db *DB) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	q, err := scanQuestion(db.conn.QueryRowContext(ctx, questionSelect+` WHERE q.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("Question not found.")
		}
		return nil, fmt.Errorf("sqlite: getting question %s: %w", id, err)
	}
	return q, nil
}

// ListQuestions returns one page and the total match count. Date order is
// newest first; popularity orders by answer count.
func (db *DB) ListQuestions(ctx context.Context, filter repository.QuestionFilter) ([]model.Question, int, error) {
	where := ""
	var args []any
	if filter.Tag != "" {
		where = ` WHERE EXISTS (SELECT 1 FROM json_each(q.tags) WHERE json_each.value = ?)`
		args = append(args, filter.Tag)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions q`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting questions: %w", err)
	}

	order := ` ORDER BY q.created_at DESC, q.id DESC`
	if filter.Sort == repository.SortByPopularity {
		order = ` ORDER BY (SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id) DESC, q.created_at DESC, q.id DESC`
	}

	rows, err := db.conn.QueryContext(ctx,
		questionSelect+where+order+` LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing questions: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, total, rows.Err()
}

func (db *DB) UpdateQuestion(ctx context.Context, q *model.Question) error {
	tags, err := encodeTags(q.Tags)
	if err != nil {
		return err
	}
	q.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE questions SET title = ?, content = ?, tags = ?, updated_at = ? WHERE id = ?`,
		q.Title, q.Content, tags, q.UpdatedAt, q.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating question %s: %w", q.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFoundMessage("Question not found.")
	}
	return nil
}

// DeleteQuestion removes the question; its answers go with it through the
// ON DELETE CASCADE foreign key.
func (db *DB) DeleteQuestion(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting question %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFoundMessage("Question not found.")
	}
	return nil
}

func scanQuestion(s scanner) (*model.Question, error) {
	var (
		q    model.Question
		tags string
	)
	err := s.Scan(
		&q.ID, &q.Title, &q.Content, &tags, &q.CreatedAt, &q.UpdatedAt,
		&q.Author.ID, &q.Author.Username, &q.Author.ProfilePicture,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return &q, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding tags: %w", err)
	}
	return string(b), nil
}
