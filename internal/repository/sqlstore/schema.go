package sqlstore

// The partial unique index on open consultations is the storage-level
// backstop for the single-open-consultation invariant: two racing creation
// attempts cannot both commit.

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS patients (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	date_of_birth DATE,
	gender TEXT NOT NULL DEFAULT '',
	profession TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	photo TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	consultation_price NUMERIC(10,2),
	credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS consultations (
	id UUID PRIMARY KEY,
	patient_id UUID NOT NULL REFERENCES patients(id) ON DELETE RESTRICT,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	paid_at TIMESTAMPTZ,
	status TEXT NOT NULL CHECK (status IN ('open', 'finalized')),
	paid BOOLEAN NOT NULL DEFAULT FALSE,
	price NUMERIC(10,2) NOT NULL CHECK (price > 0),
	content TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_consultations_patient_id ON consultations(patient_id);
CREATE INDEX IF NOT EXISTS idx_consultations_started_at ON consultations(started_at);
CREATE UNIQUE INDEX IF NOT EXISTS uq_consultations_open_per_patient
	ON consultations(patient_id) WHERE status = 'open';
`

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS patients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	date_of_birth DATETIME,
	gender TEXT NOT NULL DEFAULT '',
	profession TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	photo TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	consultation_price TEXT,
	credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS consultations (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE RESTRICT,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	paid_at DATETIME,
	status TEXT NOT NULL CHECK (status IN ('open', 'finalized')),
	paid BOOLEAN NOT NULL DEFAULT 0,
	price TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_consultations_patient_id ON consultations(patient_id);
CREATE INDEX IF NOT EXISTS idx_consultations_started_at ON consultations(started_at);
CREATE UNIQUE INDEX IF NOT EXISTS uq_consultations_open_per_patient
	ON consultations(patient_id) WHERE status = 'open';
`
