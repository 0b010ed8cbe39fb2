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

// VoteType is the direction of a vote.
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

type AnswerService struct {
	answers   repository.AnswerRepository
	questions repository.QuestionRepository
	logger    *slog.Logger
}

func NewAnswerService(answers repository.AnswerRepository, questions repository.QuestionRepository, logger *slog.Logger) *AnswerService {
	return &AnswerService{answers: answers, questions: questions, logger: logger}
}

func (s *AnswerService) Post(ctx context.Context, author model.Profile, questionID, content string) (*model.Answer, error) {
	if !model.ValidID(questionID) {
		return nil, apperror.ValidationFailed("questionId", "Invalid question ID format.")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "Answer content is required.")
	}

	a := &model.Answer{QuestionID: questionID, Content: content, Author: author}
	if err := s.answers.CreateAnswer(ctx, a); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("creating answer: %w", err)
	}

	s.logger.Info("answer posted", slog.String("id", a.ID), slog.String("questionID", questionID))
	return a, nil
}

func (s *AnswerService) List(ctx context.Context, questionID string) ([]model.Answer, error) {
	if !model.ValidID(questionID) {
		return nil, apperror.ValidationFailed("questionId", "Invalid question ID format.")
	}
	if _, err := s.questions.GetQuestion(ctx, questionID); err != nil {
		return nil, fmt.Errorf("getting question: %w", err)
	}
	answers, err := s.answers.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	return answers, nil
}

func (s *AnswerService) Update(ctx context.Context, callerID, id, content string) (*model.Answer, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Author.ID != callerID {
		return nil, apperror.Forbidden("You are not authorized to update this answer.")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "Answer content is required.")
	}

	a.Content = content
	if err := s.answers.UpdateAnswer(ctx, a); err != nil {
		return nil, fmt.Errorf("updating answer: %w", err)
	}
	return a, nil
}

func (s *AnswerService) Delete(ctx context.Context, callerID, id string) error {
	a, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if a.Author.ID != callerID {
		return apperror.Forbidden("You are not authorized to delete this answer.")
	}
	if err := s.answers.DeleteAnswer(ctx, id); err != nil {
		return fmt.Errorf("deleting answer: %w", err)
	}
	return nil
}

// Vote moves the answer's score by one in the given direction.
func (s *AnswerService) Vote(ctx context.Context, id string, vt VoteType) (*model.Answer, error) {
	var delta int
	switch vt {
	case Upvote:
		delta = 1
	case Downvote:
		delta = -1
	default:
		return nil, apperror.ValidationFailed("voteType", "Invalid vote type. Must be 'upvote' or 'downvote'.")
	}
	if !model.ValidID(id) {
		return nil, apperror.ValidationFailed("answerId", "Invalid answer ID format.")
	}

	a, err := s.answers.VoteAnswer(ctx, id, delta)
	if err != nil {
		return nil, fmt.Errorf("voting: %w", err)
	}
	return a, nil
}

// MarkBest flags the answer as best for its question. Only the question's
// author may do this; any previous best answer is unflagged.
func (s *AnswerService) MarkBest(ctx context.Context, callerID, id string) (*model.Answer, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	q, err := s.questions.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("getting question: %w", err)
	}
	if q.Author.ID != callerID {
		return nil, apperror.Forbidden("Only the question author can mark the best answer.")
	}

	if err := s.answers.MarkBestAnswer(ctx, q.ID, a.ID); err != nil {
		return nil, fmt.Errorf("marking best answer: %w", err)
	}
	a.IsBestAnswer = true

	s.logger.Info("best answer marked", slog.String("answerID", a.ID), slog.String("questionID", q.ID))
	return a, nil
}

func (s *AnswerService) get(ctx context.Context, id string) (*model.Answer, error) {
	if !model.ValidID(id) {
		return nil, apperror.ValidationFailed("answerId", "Invalid answer ID format.")
	}
	a, err := s.answers.GetAnswer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting answer: %w", err)
	}
	return a, nil
}
