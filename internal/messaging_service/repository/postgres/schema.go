package postgres

import (
	"context"
	"fmt"

	"github.com/pharmalink/golang_services/internal/platform/database"
)

// schemaSQL creates the tables the repositories in this package read and
// write. Every statement is idempotent.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS phone_numbers (
	id UUID PRIMARY KEY,
	number TEXT NOT NULL,
	channel TEXT NOT NULL DEFAULT 'sms',
	account_sid TEXT,
	auth_token TEXT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_primary BOOLEAN NOT NULL DEFAULT FALSE,
	display_name TEXT NOT NULL DEFAULT '',
	callback_url TEXT,
	auto_response_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	auto_response_text TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS patients (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT,
	email TEXT,
	preferred_channel TEXT NOT NULL DEFAULT 'sms',
	status TEXT NOT NULL CHECK (status IN ('active', 'inactive')) DEFAULT 'active',
	notes TEXT NOT NULL DEFAULT '',
	assigned_phone_number_id UUID REFERENCES phone_numbers(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- One patient per canonical phone.
CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_phone ON patients(phone) WHERE phone IS NOT NULL;

CREATE TABLE IF NOT EXISTS messages (
	id UUID PRIMARY KEY,
	patient_id UUID REFERENCES patients(id),
	channel TEXT NOT NULL,
	direction TEXT NOT NULL CHECK (direction IN ('inbound', 'outbound')),
	body TEXT NOT NULL,
	status TEXT NOT NULL,
	sender_name TEXT NOT NULL DEFAULT '',
	tracking_id TEXT,
	from_number TEXT NOT NULL DEFAULT '',
	to_number TEXT NOT NULL DEFAULT '',
	phone_number_id UUID REFERENCES phone_numbers(id),
	error_code TEXT,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	delivered_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- A tracking id, once set, identifies exactly one message.
CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_tracking_id ON messages(tracking_id) WHERE tracking_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_messages_patient_created ON messages(patient_id, created_at);
`

// InitSchema creates missing tables and indexes.
func InitSchema(ctx context.Context, db database.Querier) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("initializing messaging schema: %w", err)
	}
	return nil
}
