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
		Name:    "create accounts",
		SQL: `
			CREATE TABLE accounts (
				id           TEXT PRIMARY KEY,
				name         TEXT NOT NULL,
				protocol     TEXT NOT NULL,
				auth         TEXT NOT NULL,
				auto_connect INTEGER NOT NULL DEFAULT 0,
				created_at   TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_accounts_name ON accounts (name);
			CREATE INDEX idx_accounts_protocol ON accounts (protocol);
		`,
	},
}
