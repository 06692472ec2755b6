package db

import (
	"fmt"
	"net/url"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func postgresDSN(cfg PostgresConfig) string {
	host := valueOr(cfg.Host, "localhost")
	port := valueOr(cfg.Port, "5432")
	user := valueOr(cfg.User, "postgres")
	name := valueOr(cfg.Name, "aletheia")
	sslmode := valueOr(cfg.SSLMode, "disable")
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, cfg.Password),
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

func openPostgres(cfg PostgresConfig, gcfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(postgresDSN(cfg)), gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return db, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
