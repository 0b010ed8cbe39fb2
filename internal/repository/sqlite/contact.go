package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository"
)

var _ repository.ContactRepository = (*DB)(nil)

func (db *DB) AddContact(ctx context.Context, userID, contactID string) (*model.Contact, error) {
	c := &model.Contact{
		ID:        xid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO contacts (id, user_id, contact_id, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, userID, contactID, c.CreatedAt,
	)
	switch {
	case isUniqueViolation(err):
		return nil, apperror.Conflict("Contact already exists.")
	case isForeignKeyViolation(err):
		return nil, apperror.NotFoundMessage("User to add as contact not found.")
	case err != nil:
		return nil, fmt.Errorf("sqlite: adding contact: %w", err)
	}

	u, err := db.GetUserByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	c.Contact = u.Profile()
	return c, nil
}

// ListContacts returns the profiles userID has added, oldest first.
func (db *DB) ListContacts(ctx context.Context, userID string) ([]model.Profile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.username, u.profile_picture
		 FROM contacts c
		 JOIN users u ON u.id = c.contact_id
		 WHERE c.user_id = ?
		 ORDER BY c.created_at, c.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contacts: %w", err)
	}
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.ProfilePicture); err != nil {
			return nil, fmt.Errorf("sqlite: scanning contact: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (db *DB) RemoveContact(ctx context.Context, userID, contactID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM contacts WHERE user_id = ? AND contact_id = ?`, userID, contactID)
	if err != nil {
		return fmt.Errorf("sqlite: removing contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFoundMessage("Contact not found.")
	}
	return nil
}
