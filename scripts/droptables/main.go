// Command droptables removes the conversation tables for the current
// ENVIRONMENT's table prefix. The server recreates them on start.
package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"jobhunter/internal/config"
	"jobhunter/internal/repository/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", tables.ConversationTurns)); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	fmt.Printf("Conversation tables dropped (prefix: %q)\n", cfg.TablePrefix)
}
