package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"firefly/common/database"
	"firefly/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <migration_file.sql> [...]", os.Args[0])
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n\n", cfg.Database.Database)

	for _, migrationFile := range os.Args[1:] {
		sqlContent, err := os.ReadFile(migrationFile)
		if err != nil {
			log.Fatalf("Failed to read migration file: %v", err)
		}

		statements := splitStatements(string(sqlContent))
		fmt.Printf("Applying %s (%d statements)\n", migrationFile, len(statements))
		for i, stmt := range statements {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_, err := db.ExecContext(ctx, stmt)
			cancel()
			if err != nil {
				log.Fatalf("Failed to execute statement %d: %v\nStatement: %s", i+1, err, stmt[:min(100, len(stmt))])
			}
			fmt.Printf("✅ Statement %d/%d executed successfully\n", i+1, len(statements))
		}
		fmt.Println()
	}

	fmt.Println("✅ Migration completed successfully!")
}

// splitStatements 去掉整行 "--" 注释后按分号切分
func splitStatements(content string) []string {
	var b strings.Builder
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
