package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open はユーザーアカウント用PostgreSQLへの接続を開く。
// databaseURLは接続URL（例: "postgres://campus:pass@db:5432/campusmarket?sslmode=disable"）。
// sql.Openの時点では接続されないため、疎通確認はdb.Ping()で行う。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}
