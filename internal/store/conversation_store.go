package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/intentd/internal/domain"
)

// SQLiteConversationStore implements Repository backed by SQLite.
type SQLiteConversationStore struct {
	db *DB
}

// NewSQLiteConversationStore creates a conversation store using the given database.
func NewSQLiteConversationStore(db *DB) *SQLiteConversationStore {
	return &SQLiteConversationStore{db: db}
}

// FindConversation loads a conversation snapshot. The acting user ID comes
// from the owning account.
func (s *SQLiteConversationStore) FindConversation(ctx context.Context, token, accountID string) (*domain.Conversation, error) {
	var userID string
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT user_id FROM accounts WHERE id = ?`, accountID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading account %s: %w", accountID, err)
	}

	conv := domain.Conversation{Token: token, AccountID: accountID, UserID: userID}
	var kind string
	err = s.db.sql.QueryRowContext(ctx,
		`SELECT display_name, kind FROM conversations WHERE account_id = ? AND token = ?`,
		accountID, token,
	).Scan(&conv.DisplayName, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrConversationNotFound, accountID, token)
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation %s/%s: %w", accountID, token, err)
	}
	conv.Kind = domain.ConversationKind(kind)

	conv.Participants, err = s.loadParticipants(ctx, accountID, token)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *SQLiteConversationStore) loadParticipants(ctx context.Context, accountID, token string) ([]domain.Participant, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT participant_id, display_name FROM participants
		 WHERE account_id = ? AND token = ? ORDER BY position`,
		accountID, token,
	)
	if err != nil {
		return nil, fmt.Errorf("loading participants of %s/%s: %w", accountID, token, err)
	}
	defer rows.Close()

	out := []domain.Participant{}
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveAccount inserts or updates an account.
func (s *SQLiteConversationStore) SaveAccount(ctx context.Context, acct domain.Account) error {
	if err := validateAccount(acct); err != nil {
		return err
	}
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, display_name, server) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			display_name = excluded.display_name,
			server = excluded.server,
			updated_at = datetime('now')`,
		acct.ID, acct.UserID, acct.DisplayName, acct.Server,
	)
	if err != nil {
		return fmt.Errorf("saving account %s: %w", acct.ID, err)
	}
	return nil
}

// ListAccounts returns all accounts ordered by ID.
func (s *SQLiteConversationStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, user_id, display_name, server FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.DisplayName, &a.Server); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveConversation upserts a conversation and replaces its participant list
// in one transaction. The account must exist.
func (s *SQLiteConversationStore) SaveConversation(ctx context.Context, conv domain.Conversation) error {
	if err := validateConversation(conv); err != nil {
		return err
	}

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save conversation: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE id = ?`, conv.AccountID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking account %s: %w", conv.AccountID, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, conv.AccountID)
	}

	now := time.Now().UTC().Format(time.DateTime)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (account_id, token, display_name, kind, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(account_id, token) DO UPDATE SET
			display_name = excluded.display_name,
			kind = excluded.kind,
			updated_at = excluded.updated_at`,
		conv.AccountID, conv.Token, conv.DisplayName, string(kindOrDefault(conv.Kind)), now,
	); err != nil {
		return fmt.Errorf("saving conversation %s: %w", conv.Key(), err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM participants WHERE account_id = ? AND token = ?`,
		conv.AccountID, conv.Token,
	); err != nil {
		return fmt.Errorf("clearing participants of %s: %w", conv.Key(), err)
	}

	for i, p := range conv.Participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO participants (account_id, token, participant_id, display_name, position)
			 VALUES (?, ?, ?, ?, ?)`,
			conv.AccountID, conv.Token, p.ID, p.DisplayName, i,
		); err != nil {
			return fmt.Errorf("saving participant %s of %s: %w", p.ID, conv.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conversation %s: %w", conv.Key(), err)
	}
	s.db.log.Debug().
		Str("account", conv.AccountID).
		Str("token", conv.Token).
		Int("participants", len(conv.Participants)).
		Msg("conversation saved")
	return nil
}

// ListConversations returns all conversations of an account ordered by token.
func (s *SQLiteConversationStore) ListConversations(ctx context.Context, accountID string) ([]domain.Conversation, error) {
	var userID string
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT user_id FROM accounts WHERE id = ?`, accountID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading account %s: %w", accountID, err)
	}

	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT token, display_name, kind FROM conversations
		 WHERE account_id = ? ORDER BY token`, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	var out []domain.Conversation
	for rows.Next() {
		c := domain.Conversation{AccountID: accountID, UserID: userID}
		var kind string
		if err := rows.Scan(&c.Token, &c.DisplayName, &kind); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		c.Kind = domain.ConversationKind(kind)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Participants are loaded after the cursor is released; an in-memory
	// database only has one connection.
	rows.Close()

	for i := range out {
		out[i].Participants, err = s.loadParticipants(ctx, accountID, out[i].Token)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteConversation removes a conversation and its participants.
func (s *SQLiteConversationStore) DeleteConversation(ctx context.Context, token, accountID string) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete conversation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM participants WHERE account_id = ? AND token = ?`, accountID, token,
	); err != nil {
		return fmt.Errorf("deleting participants: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM conversations WHERE account_id = ? AND token = ?`, accountID, token)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrConversationNotFound, accountID, token)
	}
	return tx.Commit()
}
