package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository"
)

type ContactService struct {
	repo   repository.ContactRepository
	logger *slog.Logger
}

func NewContactService(repo repository.ContactRepository, logger *slog.Logger) *ContactService {
	return &ContactService{repo: repo, logger: logger}
}

func (s *ContactService) Add(ctx context.Context, userID, contactID string) (*model.Contact, error) {
	if !model.ValidID(contactID) {
		return nil, apperror.ValidationFailed("contactId", "Invalid contact ID format.")
	}
	if contactID == userID {
		return nil, apperror.ValidationFailed("contactId", "You cannot add yourself as a contact.")
	}

	c, err := s.repo.AddContact(ctx, userID, contactID)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("contactId", "Contact already exists.")
		}
		return nil, fmt.Errorf("adding contact: %w", err)
	}

	s.logger.Info("contact added", slog.String("userID", userID), slog.String("contactID", contactID))
	return c, nil
}

func (s *ContactService) List(ctx context.Context, userID string) ([]model.Profile, error) {
	contacts, err := s.repo.ListContacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Remove(ctx context.Context, userID, contactID string) error {
	if !model.ValidID(contactID) {
		return apperror.ValidationFailed("contactId", "Invalid contact ID format.")
	}
	if err := s.repo.RemoveContact(ctx, userID, contactID); err != nil {
		return fmt.Errorf("removing contact: %w", err)
	}
	return nil
}
