package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS reviews CASCADE`,
		`DROP TABLE IF EXISTS proposal_tags CASCADE`,
		`DROP TABLE IF EXISTS proposal_categories CASCADE`,
		`DROP TABLE IF EXISTS proposal_formats CASCADE`,
		`DROP TABLE IF EXISTS proposal_speakers CASCADE`,
		`DROP TABLE IF EXISTS proposals CASCADE`,
		`DROP TABLE IF EXISTS tags CASCADE`,
		`DROP TABLE IF EXISTS categories CASCADE`,
		`DROP TABLE IF EXISTS formats CASCADE`,
		`DROP TABLE IF EXISTS team_memberships CASCADE`,
		`DROP TABLE IF EXISTS events CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			team_id UUID NOT NULL,
			slug VARCHAR(100) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			type VARCHAR(20) NOT NULL CHECK (type IN ('CONFERENCE', 'MEETUP')),
			cfp_start TIMESTAMPTZ,
			cfp_end TIMESTAMPTZ,
			cfp_manually_open BOOLEAN NOT NULL DEFAULT false,
			display_proposals_speakers BOOLEAN NOT NULL DEFAULT true,
			display_proposals_reviews BOOLEAN NOT NULL DEFAULT true,
			max_proposals_per_speaker INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS team_memberships (
			team_id UUID NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL CHECK (role IN ('OWNER', 'MEMBER', 'REVIEWER')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (team_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS proposals (
			id UUID PRIMARY KEY,
			event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			abstract TEXT NOT NULL,
			level VARCHAR(50) NOT NULL DEFAULT '',
			languages TEXT[] DEFAULT '{}',
			deliberation_status VARCHAR(20) NOT NULL DEFAULT 'PENDING'
				CHECK (deliberation_status IN ('PENDING', 'ACCEPTED', 'REJECTED')),
			confirmation_status VARCHAR(20) NOT NULL DEFAULT 'NONE'
				CHECK (confirmation_status IN ('NONE', 'PENDING', 'CONFIRMED', 'DECLINED')),
			accepted_notification_sent BOOLEAN NOT NULL DEFAULT false,
			rejected_notification_sent BOOLEAN NOT NULL DEFAULT false,
			review_average DOUBLE PRECISION,
			review_positives INTEGER NOT NULL DEFAULT 0,
			review_negatives INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS proposal_speakers (
			proposal_id UUID NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
			speaker_id VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			PRIMARY KEY (proposal_id, speaker_id)
		)`,

		`CREATE TABLE IF NOT EXISTS formats (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS tags (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS proposal_formats (
			proposal_id UUID NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
			format_id UUID NOT NULL REFERENCES formats(id) ON DELETE CASCADE,
			PRIMARY KEY (proposal_id, format_id)
		)`,

		`CREATE TABLE IF NOT EXISTS proposal_categories (
			proposal_id UUID NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
			category_id UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			PRIMARY KEY (proposal_id, category_id)
		)`,

		`CREATE TABLE IF NOT EXISTS proposal_tags (
			proposal_id UUID NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
			tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (proposal_id, tag_id)
		)`,

		`CREATE TABLE IF NOT EXISTS reviews (
			id UUID PRIMARY KEY,
			proposal_id UUID NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
			reviewer_id VARCHAR(255) NOT NULL,
			feeling VARCHAR(20) NOT NULL
				CHECK (feeling IN ('NO_OPINION', 'NEGATIVE', 'NEUTRAL', 'POSITIVE')),
			note INTEGER CHECK (note >= 0 AND note <= 5),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (proposal_id, reviewer_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_slug ON events(slug)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_event_id ON proposals(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_status ON proposals(event_id, deliberation_status)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_created_at ON proposals(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_proposal_speakers_speaker ON proposal_speakers(speaker_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_proposal_id ON reviews(proposal_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_reviewer_id ON reviews(reviewer_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	query := `
		INSERT INTO events (team_id, slug, name, type, cfp_start, cfp_end, max_proposals_per_speaker) VALUES
		('00000000-0000-0000-0000-000000000001', 'gophercon-2026', 'GopherCon 2026', 'CONFERENCE',
		 now() - interval '7 days', now() + interval '30 days', 3)
		ON CONFLICT (slug) DO NOTHING
	`
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}
	fmt.Println("  Seeded conference event")

	query = `
		INSERT INTO events (team_id, slug, name, type, cfp_manually_open) VALUES
		('00000000-0000-0000-0000-000000000001', 'go-meetup', 'Go Meetup', 'MEETUP', true)
		ON CONFLICT (slug) DO NOTHING
	`
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed meetup event: %w", err)
	}
	fmt.Println("  Seeded meetup event")

	query = `
		INSERT INTO team_memberships (team_id, user_id, name, role) VALUES
		('00000000-0000-0000-0000-000000000001', 'user-owner', 'Olivia Owner', 'OWNER'),
		('00000000-0000-0000-0000-000000000001', 'user-member', 'Marc Member', 'MEMBER'),
		('00000000-0000-0000-0000-000000000001', 'user-reviewer', 'Rae Reviewer', 'REVIEWER')
		ON CONFLICT (team_id, user_id) DO NOTHING
	`
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed memberships: %w", err)
	}
	fmt.Println("  Seeded 3 team members")

	query = `
		INSERT INTO formats (event_id, name)
		SELECT e.id, f.name
		FROM events e, (VALUES ('Talk'), ('Lightning Talk'), ('Workshop')) AS f(name)
		WHERE e.slug = 'gophercon-2026'
		ON CONFLICT DO NOTHING
	`
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed formats: %w", err)
	}
	fmt.Println("  Seeded formats")

	return nil
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
