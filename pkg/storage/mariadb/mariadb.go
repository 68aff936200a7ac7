package mariadb

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Srikanthmvtsc/doc-queue-plus/config"
)

// DSN builds the driver connection string. DATETIME values are read and
// written in loc so issue and completion times stay in clinic time.
func DSN(cfg *config.Config, loc *time.Location) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = loc
	mc.Timeout = cfg.DBTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Connect opens the pool and pings MariaDB within the configured timeout.
func Connect(ctx context.Context, cfg *config.Config, loc *time.Location) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", DSN(cfg, loc))
	if err != nil {
		return nil, fmt.Errorf("open mariadb: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mariadb: %w", err)
	}

	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("connected to MariaDB")
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id VARCHAR(16) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		date_of_birth DATE NOT NULL,
		phone VARCHAR(32) NOT NULL,
		email VARCHAR(255) NULL,
		address TEXT NOT NULL,
		medical_history TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS visits (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		patient_id VARCHAR(16) NOT NULL,
		token_number INT NOT NULL,
		reason_for_visit TEXT NOT NULL,
		status ENUM('pending','completed') NOT NULL DEFAULT 'pending',
		consultation_fee DECIMAL(10,2) NULL,
		issue_time DATETIME NOT NULL,
		completion_time DATETIME NULL,
		visit_date DATE NOT NULL,
		UNIQUE KEY uq_visits_date_token (visit_date, token_number),
		KEY idx_visits_patient_date (patient_id, visit_date),
		CONSTRAINT fk_visits_patient FOREIGN KEY (patient_id) REFERENCES patients (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS token_counters (
		counter_date DATE NOT NULL PRIMARY KEY,
		last_token INT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
