package metastore

const schemaDDL = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL,
	external_id    TEXT NOT NULL,
	external_token TEXT NOT NULL,
	UNIQUE(external_id)
);

CREATE TABLE IF NOT EXISTS projects (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	owner_id TEXT NOT NULL REFERENCES users(id),
	UNIQUE(owner_id, name)
);

CREATE TABLE IF NOT EXISTS handlers (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	language    TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	project_id  TEXT NOT NULL REFERENCES projects(id),
	UNIQUE(project_id, name)
);
`
