package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository"
)

// ReadNotifier is told about private messages a history fetch flipped to
// read, so the sender can be informed live.
type ReadNotifier interface {
	NotifyRead(ctx context.Context, senderID string, receipt model.ReadReceipt)
}

// MessageService serves message history over REST.
type MessageService struct {
	repo     repository.MessageRepository
	notifier ReadNotifier
	logger   *slog.Logger
}

// NewMessageService creates a MessageService. notifier may be nil.
func NewMessageService(repo repository.MessageRepository, notifier ReadNotifier, logger *slog.Logger) *MessageService {
	return &MessageService{repo: repo, notifier: notifier, logger: logger}
}

// GlobalHistory returns one page of the global room, newest first.
func (s *MessageService) GlobalHistory(ctx context.Context, p Page) ([]model.GlobalMessageView, error) {
	_, limit, offset := p.normalize(DefaultGlobalHistoryLimit, MaxHistoryLimit)

	msgs, err := s.repo.ListGlobalMessages(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to load global history", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing global messages: %w", err)
	}
	return msgs, nil
}

// PrivateHistory returns one page of the conversation between callerID and
// peerID, newest first. Unread messages on the page addressed to the caller
// are marked read before returning, and the response reflects that.
func (s *MessageService) PrivateHistory(ctx context.Context, callerID, peerID string, p Page) ([]model.PrivateMessageView, error) {
	if !model.ValidID(peerID) {
		return nil, apperror.ValidationFailed("peerId", "Invalid peer ID format.")
	}
	_, limit, offset := p.normalize(DefaultPrivateHistoryLimit, MaxHistoryLimit)

	msgs, err := s.repo.ListConversation(ctx, callerID, peerID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to load conversation",
			slog.String("userID", callerID),
			slog.String("peerID", peerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing conversation: %w", err)
	}

	var unread []string
	senders := make(map[string]string)
	for i := range msgs {
		if msgs[i].Receiver.ID == callerID && !msgs[i].IsRead {
			unread = append(unread, msgs[i].ID)
			senders[msgs[i].ID] = msgs[i].Sender.ID
		}
	}
	if len(unread) == 0 {
		return msgs, nil
	}

	changed, err := s.repo.MarkPrivateMessagesRead(ctx, callerID, unread)
	if err != nil {
		return nil, fmt.Errorf("marking conversation read: %w", err)
	}
	for i := range msgs {
		if _, ok := senders[msgs[i].ID]; ok {
			msgs[i].IsRead = true
		}
	}

	if s.notifier != nil {
		for _, id := range changed {
			s.notifier.NotifyRead(ctx, senders[id], model.ReadReceipt{MessageID: id, ReaderID: callerID})
		}
	}
	if len(changed) > 0 {
		s.logger.Debug("conversation marked read",
			slog.String("userID", callerID),
			slog.String("peerID", peerID),
			slog.Int("count", len(changed)),
		)
	}
	return msgs, nil
}
