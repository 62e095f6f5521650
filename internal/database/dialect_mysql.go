package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Ensure foreign key checks are enabled
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}

	return nil
}

func (d *MySQLDialect) SchemaQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			topic VARCHAR(255) NOT NULL,
			difficulty VARCHAR(32) NOT NULL,
			average_score DOUBLE NOT NULL,
			total_seconds INT NOT NULL,
			excellent_count INT NOT NULL,
			finished_at DATETIME(6) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_answers (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			session_id BIGINT NOT NULL,
			ordinal INT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			score DOUBLE NOT NULL,
			feedback TEXT NOT NULL,
			seconds INT NOT NULL,
			modality VARCHAR(16) NOT NULL,
			CONSTRAINT fk_session_answers_session FOREIGN KEY (session_id)
				REFERENCES sessions(id) ON DELETE CASCADE
		);`,
	}
}
