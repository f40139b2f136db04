package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/rcauth-eu/keyportal/internal/infra/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("KEYPORTAL_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	m, err := migrate.New("file://migrations", cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to create migration instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("migration failed: %v", err)
	}

	fmt.Println("Migrations completed successfully.")

	// Verify the expected tables exist.
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to connect to database for verification: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"ssh_keys", "transactions", "clients"} {
		var exists bool
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
			table,
		).Scan(&exists)
		if err != nil {
			log.Fatalf("failed to check table %s: %v", table, err)
		}
		if !exists {
			log.Fatalf("expected table %s is missing", table)
		}
		fmt.Printf("- %s\n", table)
	}
}
