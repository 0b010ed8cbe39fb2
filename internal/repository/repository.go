// Package repository declares the storage ports used by the services and
// the messaging core. internal/repository/sqlite provides the
// implementation.
package repository

import (
	"context"

	"github.com/qius-alx/social-network/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// ProfileUpdate carries the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Bio            *string
	ProfilePicture *string
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpsertGitHubUser(ctx context.Context, user *model.User) error
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]model.User, error)
}

// MessageRepository stores global and private messages. List methods
// return newest first with profiles already resolved.
type MessageRepository interface {
	CreateGlobalMessage(ctx context.Context, msg *model.GlobalMessage) error
	CreatePrivateMessage(ctx context.Context, msg *model.PrivateMessage) error
	GetPrivateMessage(ctx context.Context, id string) (*model.PrivateMessage, error)

	// MarkPrivateMessageRead flips is_read for one message. It reports
	// false when the message was already read, so concurrent callers see
	// exactly one true.
	MarkPrivateMessageRead(ctx context.Context, id string) (bool, error)

	// MarkPrivateMessagesRead flips every unread message in ids that was
	// received by receiverID and returns the ids it changed.
	MarkPrivateMessagesRead(ctx context.Context, receiverID string, ids []string) ([]string, error)

	ListGlobalMessages(ctx context.Context, opts ListOptions) ([]model.GlobalMessageView, error)
	ListConversation(ctx context.Context, userID, peerID string, opts ListOptions) ([]model.PrivateMessageView, error)
}

// QuestionSort orders a question listing.
type QuestionSort string

const (
	SortByDate       QuestionSort = "date"
	SortByPopularity QuestionSort = "popularity"
)

type QuestionFilter struct {
	Tag  string
	Sort QuestionSort // zero value sorts by date
	ListOptions
}

type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]model.Question, int, error)
	UpdateQuestion(ctx context.Context, q *model.Question) error
	DeleteQuestion(ctx context.Context, id string) error
}

type AnswerRepository interface {
	CreateAnswer(ctx context.Context, a *model.Answer) error
	GetAnswer(ctx context.Context, id string) (*model.Answer, error)
	ListAnswers(ctx context.Context, questionID string) ([]model.Answer, error)
	UpdateAnswer(ctx context.Context, a *model.Answer) error
	DeleteAnswer(ctx context.Context, id string) error
	VoteAnswer(ctx context.Context, id string, delta int) (*model.Answer, error)
	MarkBestAnswer(ctx context.Context, questionID, answerID string) error
}

type ContactRepository interface {
	AddContact(ctx context.Context, userID, contactID string) (*model.Contact, error)
	ListContacts(ctx context.Context, userID string) ([]model.Profile, error)
	RemoveContact(ctx context.Context, userID, contactID string) error
}
