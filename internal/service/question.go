package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository"
)

const MaxTitleLength = 200

// QuestionService owns questions. Only a question's author may edit or
// delete it.
type QuestionService struct {
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	logger    *slog.Logger
}

func NewQuestionService(questions repository.QuestionRepository, answers repository.AnswerRepository, logger *slog.Logger) *QuestionService {
	return &QuestionService{questions: questions, answers: answers, logger: logger}
}

// QuestionInput is the editable part of a question. Nil Tags on update
// leaves the tags alone.
type QuestionInput struct {
	Title   string
	Content string
	Tags    []string
}

func (s *QuestionService) Ask(ctx context.Context, author model.Profile, in QuestionInput) (*model.Question, error) {
	title, content, err := validateQuestion(in.Title, in.Content)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		Title:   title,
		Content: content,
		Tags:    normalizeTags(in.Tags),
		Author:  author,
	}
	if err := s.questions.CreateQuestion(ctx, q); err != nil {
		s.logger.Error("failed to create question", slog.String("authorID", author.ID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating question: %w", err)
	}

	s.logger.Info("question asked", slog.String("id", q.ID), slog.String("authorID", author.ID))
	return q, nil
}

// List pages through questions, optionally filtered by tag. sortBy is
// "date" (default) or "popularity"; anything else falls back to date.
func (s *QuestionService) List(ctx context.Context, tag, sortBy string, p Page) (*model.QuestionPage, error) {
	page, limit, offset := p.normalize(DefaultQuestionLimit, MaxQuestionLimit)

	sort := repository.SortByDate
	if repository.QuestionSort(strings.ToLower(sortBy)) == repository.SortByPopularity {
		sort = repository.SortByPopularity
	}

	qs, total, err := s.questions.ListQuestions(ctx, repository.QuestionFilter{
		Tag:         strings.ToLower(strings.TrimSpace(tag)),
		Sort:        sort,
		ListOptions: repository.ListOptions{Limit: limit, Offset: offset},
	})
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}

	return &model.QuestionPage{
		Questions:      qs,
		TotalPages:     (total + limit - 1) / limit,
		CurrentPage:    page,
		TotalQuestions: total,
	}, nil
}

// Get returns a question and its answers, best answer first.
func (s *QuestionService) Get(ctx context.Context, id string) (*model.QuestionDetail, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListAnswers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	return &model.QuestionDetail{Question: q, Answers: answers}, nil
}

func (s *QuestionService) Update(ctx context.Context, callerID, id string, in QuestionInput) (*model.Question, error) {
	q, err := s.owned(ctx, callerID, id, "You are not authorized to update this question.")
	if err != nil {
		return nil, err
	}

	title, content, err := validateQuestion(in.Title, in.Content)
	if err != nil {
		return nil, err
	}
	q.Title, q.Content = title, content
	if in.Tags != nil {
		q.Tags = normalizeTags(in.Tags)
	}

	if err := s.questions.UpdateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("updating question: %w", err)
	}
	return q, nil
}

// Delete removes the question and, with it, every answer.
func (s *QuestionService) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.owned(ctx, callerID, id, "You are not authorized to delete this question."); err != nil {
		return err
	}
	if err := s.questions.DeleteQuestion(ctx, id); err != nil {
		return fmt.Errorf("deleting question: %w", err)
	}
	s.logger.Info("question deleted", slog.String("id", id), slog.String("by", callerID))
	return nil
}

func (s *QuestionService) get(ctx context.Context, id string) (*model.Question, error) {
	if !model.ValidID(id) {
		return nil, apperror.ValidationFailed("questionId", "Invalid question ID format.")
	}
	q, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting question: %w", err)
	}
	return q, nil
}

func (s *QuestionService) owned(ctx context.Context, callerID, id, denied string) (*model.Question, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Author.ID != callerID {
		return nil, apperror.Forbidden(denied)
	}
	return q, nil
}

func validateQuestion(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return "", "", apperror.ValidationFailed("title", "Title is required and must be a non-empty string.")
	}
	if len(title) > MaxTitleLength {
		return "", "", apperror.ValidationFailed("title",
			fmt.Sprintf("Title must be %d characters or less.", MaxTitleLength))
	}
	if content == "" {
		return "", "", apperror.ValidationFailed("content", "Content is required and must be a non-empty string.")
	}
	return title, content, nil
}

// normalizeTags lower-cases, trims, drops empties and de-duplicates.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
