package store

const schemaVersion = 2

// metaDayLocation names the zone the day column was computed in.
const metaDayLocation = "day_location"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS journal_entries (
	id TEXT PRIMARY KEY,
	date TEXT,
	day TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	timestamp TEXT
);

CREATE INDEX IF NOT EXISTS journal_entries_by_timestamp ON journal_entries(timestamp);
CREATE INDEX IF NOT EXISTS journal_entries_by_day ON journal_entries(day);

CREATE TABLE IF NOT EXISTS entry_links (
	entry_id TEXT NOT NULL,
	title TEXT NOT NULL,
	PRIMARY KEY(entry_id, title)
);

CREATE INDEX IF NOT EXISTS entry_links_by_title ON entry_links(title);
`
