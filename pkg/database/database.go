package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type Clients struct {
	DB    *sqlx.DB // nil when no database URL is configured
	Redis *redis.Client
}

// NewClients connects to Postgres and Redis. An empty dbURL skips Postgres.
func NewClients(dbURL, redisAddr, redisPassword string, redisDB int) (*Clients, error) {
	var db *sqlx.DB
	if dbURL != "" {
		var err error
		db, err = sqlx.Connect("postgres", dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Clients{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (c *Clients) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
	c.Redis.Close()
}

// Schema mirrors the tables of the hosted project so a local Postgres can
// stand in for it.
const Schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS profiles (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	face_shape TEXT NOT NULL DEFAULT '',
	skin_tone TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL DEFAULT '',
	analysis_confidence INT NOT NULL DEFAULT 0,
	glow_days INT NOT NULL DEFAULT 0,
	check_ins INT NOT NULL DEFAULT 0,
	looks_created INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS skincare_routines (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	routine_date DATE NOT NULL,
	skin_condition JSONB NOT NULL DEFAULT '{}',
	morning_steps JSONB NOT NULL DEFAULT '[]',
	evening_steps JSONB NOT NULL DEFAULT '[]',
	recommendations TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (profile_id, routine_date)
);

CREATE TABLE IF NOT EXISTS hair_check_ins (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	hair_condition TEXT NOT NULL DEFAULT '',
	concerns TEXT[] NOT NULL DEFAULT '{}',
	recommendations TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS haircut_recommendations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	face_shape TEXT NOT NULL,
	styles TEXT[] NOT NULL DEFAULT '{}',
	tips TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS outfits (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	occasion TEXT NOT NULL,
	top TEXT NOT NULL DEFAULT '',
	bottom TEXT NOT NULL DEFAULT '',
	shoes TEXT NOT NULL DEFAULT '',
	accessories TEXT[] NOT NULL DEFAULT '{}',
	makeup TEXT NOT NULL DEFAULT '',
	hair TEXT NOT NULL DEFAULT '',
	reasoning TEXT NOT NULL DEFAULT '',
	is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS closet_items (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	category TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reminders (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	scheduled_time TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS weekly_planner (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	outfit_id UUID NOT NULL REFERENCES outfits(id) ON DELETE CASCADE,
	plan_date DATE NOT NULL,
	day_of_week TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS analysis_jobs (
	id SERIAL PRIMARY KEY,
	profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE OR REPLACE FUNCTION increment_profile_stat(profile_id UUID, stat_name TEXT, amount INT)
RETURNS INT AS $$
DECLARE
	result INT;
BEGIN
	IF stat_name NOT IN ('glow_days', 'check_ins', 'looks_created') THEN
		RAISE EXCEPTION 'unknown stat %', stat_name;
	END IF;
	EXECUTE format('UPDATE profiles SET %I = %I + $1, updated_at = NOW() WHERE id = $2 RETURNING %I',
		stat_name, stat_name, stat_name)
	INTO result USING amount, profile_id;
	RETURN result;
END;
$$ LANGUAGE plpgsql;
`

// CreateSchema creates every table the app uses. It is a no-op without a database.
func (c *Clients) CreateSchema() error {
	if c.DB == nil {
		slog.Info("⚠️ No database configured, using in-memory data store")
		return nil
	}

	if _, err := c.DB.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("✅ Database schema is ready!")
	return nil
}
