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

var _ repository.MessageRepository = (*DB)(nil)

// CreateGlobalMessage appends msg to the global room. ID, RoomID and
// Timestamp are filled in.
func (db *DB) CreateGlobalMessage(ctx context.Context, msg *model.GlobalMessage) error {
	msg.ID = xid.New().String()
	msg.Timestamp = time.Now().UTC()
	if msg.RoomID == "" {
		msg.RoomID = model.GlobalRoom
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO global_messages (id, sender_id, content, room_id, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.SenderID, msg.Content, msg.RoomID, msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating global message: %w", err)
	}
	return nil
}

// CreatePrivateMessage stores msg unread. A receiver that does not exist
// fails the foreign key and is reported as a validation error.
func (db *DB) CreatePrivateMessage(ctx context.Context, msg *model.PrivateMessage) error {
	msg.ID = xid.New().String()
	msg.Timestamp = time.Now().UTC()
	msg.IsRead = false

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO private_messages (id, sender_id, receiver_id, content, timestamp, is_read)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Timestamp,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("receiverId", "receiver does not exist")
		}
		return fmt.Errorf("sqlite: creating private message: %w", err)
	}
	return nil
}

func (db *DB) GetPrivateMessage(ctx context.Context, id string) (*model.PrivateMessage, error) {
	var (
		m      model.PrivateMessage
		isRead int
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, content, timestamp, is_read
		 FROM private_messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Timestamp, &isRead)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("message", id)
		}
		return nil, fmt.Errorf("sqlite: getting private message %s: %w", id, err)
	}
	m.IsRead = isRead != 0
	return &m, nil
}

// MarkPrivateMessageRead is a compare-and-set on is_read.
func (db *DB) MarkPrivateMessageRead(ctx context.Context, id string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE private_messages SET is_read = 1 WHERE id = ? AND is_read = 0`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: marking message %s read: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: marking message %s read: %w", id, err)
	}
	return n == 1, nil
}

func (db *DB) MarkPrivateMessagesRead(ctx context.Context, receiverID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var changed []string
	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`UPDATE private_messages SET is_read = 1
			 WHERE id = ? AND receiver_id = ? AND is_read = 0`,
			id, receiverID,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: marking message %s read: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			changed = append(changed, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit: %w", err)
	}
	return changed, nil
}

func (db *DB) ListGlobalMessages(ctx context.Context, opts repository.ListOptions) ([]model.GlobalMessageView, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, m.content, m.room_id, m.timestamp,
		        u.id, u.username, u.profile_picture
		 FROM global_messages m
		 JOIN users u ON u.id = m.sender_id
		 ORDER BY m.timestamp DESC, m.id DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing global messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.GlobalMessageView{}
	for rows.Next() {
		var v model.GlobalMessageView
		if err := rows.Scan(
			&v.ID, &v.Content, &v.RoomID, &v.Timestamp,
			&v.Sender.ID, &v.Sender.Username, &v.Sender.ProfilePicture,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning global message: %w", err)
		}
		msgs = append(msgs, v)
	}
	return msgs, rows.Err()
}

// ListConversation returns messages exchanged between userID and peerID in
// either direction.
func (db *DB) ListConversation(ctx context.Context, userID, peerID string, opts repository.ListOptions) ([]model.PrivateMessageView, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, m.content, m.timestamp, m.is_read,
		        s.id, s.username, s.profile_picture,
		        r.id, r.username, r.profile_picture
		 FROM private_messages m
		 JOIN users s ON s.id = m.sender_id
		 JOIN users r ON r.id = m.receiver_id
		 WHERE (m.sender_id = ? AND m.receiver_id = ?)
		    OR (m.sender_id = ? AND m.receiver_id = ?)
		 ORDER BY m.timestamp DESC, m.id DESC
		 LIMIT ? OFFSET ?`,
		userID, peerID, peerID, userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing conversation: %w", err)
	}
	defer rows.Close()

	msgs := []model.PrivateMessageView{}
	for rows.Next() {
		var (
			v      model.PrivateMessageView
			isRead int
		)
		if err := rows.Scan(
			&v.ID, &v.Content, &v.Timestamp, &isRead,
			&v.Sender.ID, &v.Sender.Username, &v.Sender.ProfilePicture,
			&v.Receiver.ID, &v.Receiver.Username, &v.Receiver.ProfilePicture,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning private message: %w", err)
		}
		v.IsRead = isRead != 0
		msgs = append(msgs, v)
	}
	return msgs, rows.Err()
}
