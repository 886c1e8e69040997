package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const Schema = `
CREATE TABLE IF NOT EXISTS wallets (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL,
	owner_type TEXT NOT NULL CHECK (owner_type IN ('CLIENT', 'ARTISAN', 'BUSINESS', 'PLATFORM')),
	available BIGINT NOT NULL DEFAULT 0 CHECK (available >= 0),
	locked BIGINT NOT NULL DEFAULT 0 CHECK (locked >= 0),
	is_frozen BOOLEAN NOT NULL DEFAULT FALSE,
	version BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
DROP INDEX IF EXISTS idx_wallets_owner;
CREATE UNIQUE INDEX IF NOT EXISTS uq_wallets_owner ON wallets(owner_id);

CREATE TABLE IF NOT EXISTS ledger_entries (
	seq BIGSERIAL PRIMARY KEY,
	id UUID NOT NULL UNIQUE,
	wallet_id UUID NOT NULL REFERENCES wallets(id),
	kind TEXT NOT NULL CHECK (kind IN ('CREDIT', 'DEBIT', 'LOCK', 'UNLOCK', 'REVERSE')),
	amount BIGINT NOT NULL CHECK (amount > 0),
	reason TEXT NOT NULL,
	reference_id TEXT NOT NULL,
	counterparty_wallet_id UUID NULL REFERENCES wallets(id),
	idempotency_key TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_wallet ON ledger_entries(wallet_id, seq);

CREATE OR REPLACE FUNCTION ledger_entries_immutable() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'ledger_entries is append-only';
END;
$$ LANGUAGE plpgsql;
DROP TRIGGER IF EXISTS trg_ledger_entries_immutable ON ledger_entries;
CREATE TRIGGER trg_ledger_entries_immutable
	BEFORE UPDATE OR DELETE ON ledger_entries
	FOR EACH ROW EXECUTE FUNCTION ledger_entries_immutable();

CREATE TABLE IF NOT EXISTS withdrawal_requests (
	id UUID PRIMARY KEY,
	wallet_id UUID NOT NULL REFERENCES wallets(id),
	amount BIGINT NOT NULL CHECK (amount > 0),
	status TEXT NOT NULL CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED', 'PAID')),
	bank_account_name TEXT NOT NULL,
	bank_account_number TEXT NOT NULL,
	bank_name TEXT NOT NULL,
	admin_note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	resolved_at TIMESTAMPTZ NULL,
	resolved_by UUID NULL
);
CREATE INDEX IF NOT EXISTS idx_withdrawal_requests_status ON withdrawal_requests(status);

CREATE TABLE IF NOT EXISTS escrow_holds (
	booking_id UUID PRIMARY KEY,
	client_wallet_id UUID NOT NULL REFERENCES wallets(id),
	amount BIGINT NOT NULL CHECK (amount > 0),
	lock_entry_id UUID NOT NULL REFERENCES ledger_entries(id),
	status TEXT NOT NULL CHECK (status IN ('HELD', 'RELEASED', 'RESOLVED')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	settled_at TIMESTAMPTZ NULL
);

CREATE TABLE IF NOT EXISTS disputes (
	id UUID PRIMARY KEY,
	booking_id UUID NOT NULL UNIQUE REFERENCES escrow_holds(booking_id),
	artisan_wallet_id UUID NOT NULL REFERENCES wallets(id),
	reason TEXT NOT NULL,
	opened_by UUID NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('OPEN', 'RESOLVED')),
	resolution_type TEXT NULL CHECK (resolution_type IN ('REFUND_CLIENT', 'PAY_ARTISAN', 'SPLIT_50_50', 'PARTIAL_REFUND', 'NO_ACTION')),
	partial_refund_amount BIGINT NULL,
	resolved_by UUID NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	resolved_at TIMESTAMPTZ NULL
);
CREATE INDEX IF NOT EXISTS idx_disputes_status ON disputes(status);
`

// Migrate applies Schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("repository: migrate: %w", err)
	}
	return nil
}
