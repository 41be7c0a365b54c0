package database

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DSN assembly for the network drivers. An explicit cfg.DSN always wins;
// otherwise the builders fill in dishpatch defaults and merge any extra
// driver options in deterministic key order.

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	kv := []string{
		"host=" + fallbackString(cfg.Host, "localhost"),
		"port=" + strconv.Itoa(fallbackInt(cfg.Port, 5432)),
		"user=" + cfg.User,
		"dbname=" + cfg.Name,
	}
	if cfg.Password != "" {
		kv = append(kv, "password="+cfg.Password)
	}
	kv = append(kv, mergeOptions(cfg.Options, map[string]string{
		"sslmode": "disable",
	})...)

	return strings.Join(kv, " "), nil
}

func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	identity := cfg.User
	if cfg.Password != "" {
		identity += ":" + cfg.Password
	}

	addr := fmt.Sprintf("%s:%d", fallbackString(cfg.Host, "127.0.0.1"), fallbackInt(cfg.Port, 3306))
	query := mergeOptions(cfg.Options, map[string]string{
		"charset":   "utf8mb4",
		"parseTime": "True",
		"loc":       "Local",
	})

	return fmt.Sprintf("%s@tcp(%s)/%s?%s", identity, addr, cfg.Name, strings.Join(query, "&")), nil
}

// mergeOptions layers user options over driver defaults and renders sorted
// key=value pairs so the resulting DSN is stable across runs.
func mergeOptions(overrides, defaults map[string]string) []string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+merged[key])
	}
	return pairs
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func fallbackInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
