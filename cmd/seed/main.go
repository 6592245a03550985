package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/xid"

	"github.com/tryohq/tryo-api/config"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := cfg.PostgresDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	var userID string
	err = db.QueryRow(`
		INSERT INTO users (id, name, provider, provider_id, bio, contact_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (provider, provider_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, "demo-founder", "Demo Founder", "google", "demo@tryo.dev", "Serial tinkerer. Seeded account.", "demo@tryo.dev").Scan(&userID)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s provider=google identifier=demo@tryo.dev\n", userID)

	posts := []struct {
		name, desc, field, stage, comp string
		roles                          []string
		daysAgo                        int
	}{
		{
			name: "Billsplit", desc: "Splitting recurring household bills with automatic settle-up.",
			field: "Fintech", stage: "MVP Ready", comp: "Equity",
			roles: []string{"Backend Engineer", "Mobile Developer"}, daysAgo: 2,
		},
		{
			name: "Tutorloop", desc: "Marketplace connecting exam candidates with vetted tutors.",
			field: "EdTech", stage: "Idea Phase", comp: "Equity + Revenue Share",
			roles: []string{"Co-founder (Tech)"}, daysAgo: 5,
		},
		{
			name: "Cropsense", desc: "Computer vision for early crop disease detection on smallholder farms.",
			field: "Artificial Intelligence", stage: "Early Users", comp: "Salary + Equity",
			roles: []string{"ML Engineer", "Agronomist"}, daysAgo: 12,
		},
	}

	for _, p := range posts {
		id := xid.New().String()
		posted := time.Now().UTC().AddDate(0, 0, -p.daysAgo)
		if _, err := db.Exec(`
			INSERT INTO posts (id, founder_name, project_name, posted_date, deadline, description, image_url, field, stage, compensation, roles)
			VALUES ($1, $2, $3, $4, '', $5, '', $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING
		`, id, "Demo Founder", p.name, posted, p.desc, p.field, p.stage, p.comp, p.roles); err != nil {
			log.Fatalf("failed to seed post %s: %v", p.name, err)
		}
		fmt.Printf("seeded post: id=%s project=%s\n", id, p.name)
	}
}
