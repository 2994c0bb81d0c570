package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS task_lists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	symbol     TEXT NOT NULL DEFAULT '',
	color      TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS subheadings (
	id         TEXT PRIMARY KEY,
	list_id    TEXT NOT NULL REFERENCES task_lists(id) ON DELETE CASCADE,
	title      TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reminders (
	id                     TEXT PRIMARY KEY,
	list_id                TEXT REFERENCES task_lists(id) ON DELETE CASCADE,
	subheading_id          TEXT REFERENCES subheadings(id) ON DELETE SET NULL,
	title                  TEXT NOT NULL,
	notes                  TEXT NOT NULL DEFAULT '',
	url                    TEXT NOT NULL DEFAULT '',
	priority               INTEGER NOT NULL DEFAULT 0 CHECK(priority BETWEEN 0 AND 3),
	start_date             DATETIME,
	end_date               DATETIME,
	is_completed           INTEGER NOT NULL DEFAULT 0 CHECK(is_completed IN (0, 1)),
	completed_at           DATETIME,
	sort_order             INTEGER NOT NULL DEFAULT 0,
	notifications          TEXT NOT NULL DEFAULT '[]',
	repeat_option          TEXT NOT NULL DEFAULT 'never',
	custom_repeat_interval INTEGER NOT NULL DEFAULT 0,
	created_at             DATETIME NOT NULL,
	updated_at             DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subheadings_list_id ON subheadings(list_id);
CREATE INDEX IF NOT EXISTS idx_reminders_scope ON reminders(list_id, subheading_id);
CREATE INDEX IF NOT EXISTS idx_reminders_completed ON reminders(is_completed);

CREATE TABLE IF NOT EXISTS tags (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reminder_tags (
	reminder_id TEXT NOT NULL REFERENCES reminders(id) ON DELETE CASCADE,
	tag_id      TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (reminder_id, tag_id)
);

CREATE TABLE IF NOT EXISTS reminder_photos (
	id          TEXT PRIMARY KEY,
	reminder_id TEXT NOT NULL REFERENCES reminders(id) ON DELETE CASCADE,
	data        BLOB NOT NULL,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reminder_photos_reminder_id ON reminder_photos(reminder_id);

CREATE TABLE IF NOT EXISTS voice_notes (
	reminder_id TEXT PRIMARY KEY REFERENCES reminders(id) ON DELETE CASCADE,
	data        BLOB NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
	id          TEXT PRIMARY KEY,
	reminder_id TEXT UNIQUE REFERENCES reminders(id) ON DELETE CASCADE,
	name        TEXT NOT NULL DEFAULT '',
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	radius      REAL NOT NULL DEFAULT 100,
	created_at  DATETIME NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_reminders_start_date ON reminders(start_date);
CREATE INDEX IF NOT EXISTS idx_reminders_end_date ON reminders(end_date);
CREATE INDEX IF NOT EXISTS idx_reminder_tags_tag_id ON reminder_tags(tag_id);
CREATE INDEX IF NOT EXISTS idx_task_lists_name ON task_lists(name);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
