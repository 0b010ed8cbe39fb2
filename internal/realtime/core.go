// Package realtime is the live messaging layer: presence, the global room,
// private delivery and read receipts over websocket connections.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository"
)

// Directory resolves user ids to public profiles.
type Directory interface {
	Profile(ctx context.Context, userID string) (*model.Profile, error)
}

// Core runs the messaging protocol for every connected client.
type Core struct {
	store     repository.MessageRepository
	directory Directory
	presence  Registry
	room      *Room
	logger    *slog.Logger

	// globalMu keeps room broadcasts in persistence order.
	globalMu sync.Mutex
}

func NewCore(store repository.MessageRepository, directory Directory, presence Registry, logger *slog.Logger) *Core {
	return &Core{
		store:     store,
		directory: directory,
		presence:  presence,
		room:      NewRoom(model.GlobalRoom),
		logger:    logger,
	}
}

// Connect admits an authenticated client: it becomes the user's presence
// entry and joins the global room.
func (c *Core) Connect(client Client) {
	userID := client.Profile().ID
	if prev := c.presence.Register(userID, client); prev != nil && prev != client {
		c.logger.Debug("presence replaced by newer connection",
			slog.String("userID", userID),
			slog.String("previous", prev.ID()),
			slog.String("current", client.ID()),
		)
	}
	c.room.Join(client)
	c.logger.Info("user connected", slog.String("userID", userID), slog.String("connID", client.ID()))
}

// Disconnect undoes Connect. Calling it twice is harmless.
func (c *Core) Disconnect(client Client) {
	userID := client.Profile().ID
	c.presence.Unregister(userID, client)
	c.room.Leave(client)
	c.logger.Info("user disconnected", slog.String("userID", userID), slog.String("connID", client.ID()))
}

// Dispatch decodes one inbound frame and runs its handler. Any failure is
// reported to client alone as a messageError.
func (c *Core) Dispatch(ctx context.Context, client Client, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		c.fail(client, env.Type, apperror.ValidationFailed("", "Malformed message frame."))
		return
	}

	var err error
	switch env.Type {
	case EventGlobalMessage:
		var p globalMessagePayload
		c.decodePayload(env, &p)
		err = c.SendGlobal(ctx, client, str(p.Content))
	case EventPrivateMessage:
		var p privateMessagePayload
		c.decodePayload(env, &p)
		err = c.SendPrivate(ctx, client, str(p.ReceiverID), str(p.Content))
	case EventMarkAsRead:
		var p markAsReadPayload
		c.decodePayload(env, &p)
		err = c.MarkRead(ctx, client, str(p.MessageID), str(p.ReaderID))
	default:
		err = apperror.ValidationFailed("type", "Unknown event type.")
	}
	if err != nil {
		c.fail(client, env.Type, err)
	}
}

// SendGlobal persists content to the global room and broadcasts it to
// every member, the sender included.
func (c *Core) SendGlobal(ctx context.Context, client Client, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return apperror.InvalidContent()
	}
	senderID := client.Profile().ID

	c.globalMu.Lock()
	defer c.globalMu.Unlock()

	msg := &model.GlobalMessage{SenderID: senderID, Content: content, RoomID: c.room.Name()}
	if err := c.store.CreateGlobalMessage(ctx, msg); err != nil {
		return apperror.Persistence("Failed to send global message due to server error.", err)
	}
	sender := c.profile(ctx, senderID, client.Profile())

	frame, err := encode(EventNewGlobalMessage, model.GlobalMessageView{
		ID:        msg.ID,
		Sender:    sender,
		Content:   msg.Content,
		RoomID:    msg.RoomID,
		Timestamp: msg.Timestamp,
	})
	if err != nil {
		return err
	}
	n := c.room.Broadcast(frame)
	c.logger.Debug("global message broadcast", slog.String("id", msg.ID), slog.Int("recipients", n))
	return nil
}

// SendPrivate persists a direct message and delivers it to the sender and,
// when online, the receiver. An offline receiver finds it in history later.
func (c *Core) SendPrivate(ctx context.Context, client Client, receiverID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return apperror.InvalidContent()
	}
	if !model.ValidID(receiverID) {
		return apperror.InvalidReceiver()
	}
	senderID := client.Profile().ID
	if receiverID == senderID {
		return apperror.SelfMessageNotAllowed()
	}

	msg := &model.PrivateMessage{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := c.store.CreatePrivateMessage(ctx, msg); err != nil {
		return apperror.Persistence("Failed to send message due to server error.", err)
	}

	sender := c.profile(ctx, senderID, client.Profile())
	receiver := c.profile(ctx, receiverID, model.Profile{ID: receiverID})
	frame, err := encode(EventNewPrivateMessage, model.PrivateMessageView{
		ID:        msg.ID,
		Sender:    sender,
		Receiver:  receiver,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		IsRead:    msg.IsRead,
	})
	if err != nil {
		return err
	}

	c.deliver(client, frame)
	if peer, ok := c.presence.Lookup(receiverID); ok {
		c.deliver(peer, frame)
	}
	return nil
}

// MarkRead moves a private message from unread to read on behalf of its
// receiver and tells both parties. Repeat calls get an already_read status.
func (c *Core) MarkRead(ctx context.Context, client Client, messageID, readerID string) error {
	if !model.ValidID(messageID) {
		return apperror.InvalidMessageID()
	}
	me := client.Profile().ID
	if !model.ValidID(readerID) || readerID != me {
		return apperror.AuthorizationMismatch()
	}

	msg, err := c.store.GetPrivateMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFoundMessage("Message not found for marking as read.")
		}
		return apperror.Persistence("Failed to mark message as read due to server error.", err)
	}
	if msg.ReceiverID != me {
		return apperror.NotReceiver()
	}
	if msg.IsRead {
		return c.alreadyRead(client, messageID)
	}

	changed, err := c.store.MarkPrivateMessageRead(ctx, messageID)
	if err != nil {
		return apperror.Persistence("Failed to mark message as read due to server error.", err)
	}
	if !changed {
		return c.alreadyRead(client, messageID)
	}

	receipt := model.ReadReceipt{MessageID: messageID, ReaderID: me}
	frame, err := encode(EventMessageRead, receipt)
	if err != nil {
		return err
	}
	if sender, ok := c.presence.Lookup(msg.SenderID); ok {
		c.deliver(sender, frame)
	}
	c.deliver(client, frame)
	return nil
}

// NotifyRead pushes a read receipt to senderID if they are online. It
// serves messages marked read outside the socket path.
func (c *Core) NotifyRead(_ context.Context, senderID string, receipt model.ReadReceipt) {
	sender, ok := c.presence.Lookup(senderID)
	if !ok {
		return
	}
	frame, err := encode(EventMessageRead, receipt)
	if err != nil {
		c.logger.Error("encoding read receipt", slog.String("error", err.Error()))
		return
	}
	c.deliver(sender, frame)
}

// Online reports whether userID has a live connection.
func (c *Core) Online(userID string) bool {
	_, ok := c.presence.Lookup(userID)
	return ok
}

func (c *Core) alreadyRead(client Client, messageID string) error {
	frame, err := encode(EventMessageStatus, statusPayload{MessageID: messageID, Status: StatusAlreadyRead})
	if err != nil {
		return err
	}
	c.deliver(client, frame)
	return nil
}

// profile resolves the current public profile of userID for an outgoing
// frame. The message is already stored, so a failed lookup degrades to
// fallback instead of failing the event.
func (c *Core) profile(ctx context.Context, userID string, fallback model.Profile) model.Profile {
	p, err := c.directory.Profile(ctx, userID)
	if err != nil {
		c.logger.Warn("resolving profile for delivery",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return fallback
	}
	return *p
}

// decodePayload fills dst from env's payload. A payload of the wrong shape
// leaves dst partly zero, and the handler then rejects the empty fields with
// the event's own validation error.
func (c *Core) decodePayload(env Envelope, dst any) {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		c.logger.Debug("payload did not decode",
			slog.String("event", env.Type),
			slog.String("error", err.Error()),
		)
	}
}

// deliver is best effort; the store already has the message.
func (c *Core) deliver(client Client, frame []byte) {
	if err := client.Send(frame); err != nil {
		c.logger.Debug("live delivery dropped",
			slog.String("connID", client.ID()),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Core) fail(client Client, eventType string, err error) {
	payload := errorPayload{Message: "An internal error occurred"}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		payload.Code = string(appErr.Code)
		payload.Message = appErr.Message
	}

	attrs := []any{
		slog.String("event", eventType),
		slog.String("userID", client.Profile().ID),
		slog.String("error", err.Error()),
	}
	if errors.Is(err, apperror.ErrPersistence) || appErr == nil {
		if appErr != nil {
			attrs[2] = slog.String("error", appErr.Err.Error())
		}
		c.logger.Error("event failed", attrs...)
	} else {
		c.logger.Debug("event rejected", attrs...)
	}

	frame, encErr := encode(EventMessageError, payload)
	if encErr != nil {
		return
	}
	c.deliver(client, frame)
}
