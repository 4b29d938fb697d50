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

CREATE TABLE IF NOT EXISTS requests (
	list                TEXT NOT NULL,
	id                  TEXT NOT NULL,
	client_id           TEXT NOT NULL DEFAULT '',
	client_name         TEXT NOT NULL DEFAULT '',
	client_phone        TEXT NOT NULL DEFAULT '',
	client_address      TEXT NOT NULL DEFAULT '',
	mechanic_shop_id    TEXT NOT NULL DEFAULT '',
	mechanic_user_id    TEXT NOT NULL DEFAULT '',
	shop_name           TEXT NOT NULL DEFAULT '',
	shop_address        TEXT NOT NULL DEFAULT '',
	shop_phone          TEXT NOT NULL DEFAULT '',
	latitude            REAL NOT NULL DEFAULT 0,
	longitude           REAL NOT NULL DEFAULT 0,
	vehicle_type        TEXT NOT NULL DEFAULT '',
	problem_description TEXT NOT NULL DEFAULT '',
	ai_suggestion       TEXT NOT NULL DEFAULT '',
	type                TEXT NOT NULL DEFAULT 'NORMAL',
	status              TEXT NOT NULL DEFAULT 'PENDING',
	rating              INTEGER NOT NULL DEFAULT 0,
	review              TEXT NOT NULL DEFAULT '',
	created_at          DATETIME NOT NULL,
	accepted_at         DATETIME,
	completed_at        DATETIME,
	fetched_at          DATETIME NOT NULL,
	PRIMARY KEY (list, id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT 'GENERIC',
	title      TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT '',
	is_read    INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS shops (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL DEFAULT '',
	shop_name        TEXT NOT NULL DEFAULT '',
	phone            TEXT NOT NULL DEFAULT '',
	address          TEXT NOT NULL DEFAULT '',
	latitude         REAL NOT NULL DEFAULT 0,
	longitude        REAL NOT NULL DEFAULT 0,
	shop_types       TEXT NOT NULL DEFAULT '[]',
	open_time        TEXT NOT NULL DEFAULT '',
	close_time       TEXT NOT NULL DEFAULT '',
	rating           REAL NOT NULL DEFAULT 0,
	total_ratings    INTEGER NOT NULL DEFAULT 0,
	is_available     INTEGER NOT NULL DEFAULT 1 CHECK(is_available IN (0, 1)),
	services_offered TEXT NOT NULL DEFAULT '',
	fetched_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
CREATE INDEX IF NOT EXISTS idx_requests_created ON requests(created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_is_read ON notifications(is_read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_requests_list_created
	ON requests(list, created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
