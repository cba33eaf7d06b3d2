package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create accounts and conversations",
		SQL: `
			CREATE TABLE accounts (
				id            TEXT PRIMARY KEY,
				user_id       TEXT NOT NULL,
				display_name  TEXT NOT NULL DEFAULT '',
				server        TEXT NOT NULL DEFAULT '',
				created_at    TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE conversations (
				account_id    TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
				token         TEXT NOT NULL,
				display_name  TEXT NOT NULL DEFAULT '',
				kind          TEXT NOT NULL DEFAULT 'one-to-one',
				updated_at    TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (account_id, token)
			);
		`,
	},
	{
		Version: 2,
		Name:    "create participants",
		SQL: `
			CREATE TABLE participants (
				account_id      TEXT NOT NULL,
				token           TEXT NOT NULL,
				participant_id  TEXT NOT NULL,
				display_name    TEXT NOT NULL DEFAULT '',
				position        INTEGER NOT NULL,
				PRIMARY KEY (account_id, token, participant_id),
				FOREIGN KEY (account_id, token)
					REFERENCES conversations(account_id, token) ON DELETE CASCADE
			);

			CREATE INDEX idx_participants_order ON participants (account_id, token, position);
		`,
	},
}
