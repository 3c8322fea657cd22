package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Migration: одна версия схемы.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations: вся схема бота по порядку. Уже применённые версии пропускаются.
// SQL встроен в код, чтобы деплой был одним бинарником.
var Migrations = []Migration{
	{1, "members", migration001Members},
	{2, "garden", migration002Garden},
	{3, "admin", migration003Admin},
}

// Migrate применяет все миграции.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	for _, m := range Migrations {
		applied, err := execMigration(ctx, pool, m)
		if err != nil {
			return err
		}
		if applied {
			log.WithFields(log.Fields{"version": m.Version, "name": m.Name}).Info("Миграция применена")
		}
	}
	return nil
}

const migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    last_seen_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_username ON members(LOWER(username));
`

// Строка garden_accounts без грядок: нулевой сад.
// last_completion_date хранится строкой 2006-01-02 в часовом поясе бота, '': отметок не было.
const migration002Garden = `
CREATE TABLE IF NOT EXISTS garden_accounts (
    user_id BIGINT PRIMARY KEY,
    onboarding_complete BOOLEAN NOT NULL DEFAULT FALSE,
    gardener VARCHAR(16) NOT NULL DEFAULT '',
    total_badges INTEGER NOT NULL DEFAULT 0 CHECK (total_badges >= 0),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS garden_slots (
    user_id BIGINT NOT NULL REFERENCES garden_accounts(user_id) ON DELETE CASCADE,
    slot VARCHAR(16) NOT NULL,
    count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
    last_completion_date VARCHAR(10) NOT NULL DEFAULT '',
    harvest_count INTEGER NOT NULL DEFAULT 0 CHECK (harvest_count >= 0),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, slot)
);
CREATE INDEX IF NOT EXISTS idx_garden_accounts_onboarded ON garden_accounts(onboarding_complete);
`

const migration003Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL,
    last_activity TIMESTAMP NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMP NOT NULL DEFAULT NOW(),
    success BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_user ON admin_login_attempts(user_id, attempt_time);
`
