package postgres

import (
	"testing"
	"time"

	"github.com/nanasync/nanasync-api/internal/platform/config"
)

func TestBuildPoolConfig(t *testing.T) {
	t.Parallel()

	dbCfg := config.DatabaseConfig{
		Host:            "localhost",
		Port:            15432,
		User:            "nanasync",
		Password:        "p@ss/word",
		Name:            "nanasync",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}

	poolCfg, err := BuildPoolConfig(dbCfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MaxConns != 20 {
		t.Errorf("expected MaxConns 20, got %d", poolCfg.MaxConns)
	}
	if poolCfg.MinConns != 5 {
		t.Errorf("expected MinConns 5, got %d", poolCfg.MinConns)
	}
	if poolCfg.MaxConnLifetime != 30*time.Minute {
		t.Errorf("unexpected MaxConnLifetime: %v", poolCfg.MaxConnLifetime)
	}
	if poolCfg.MaxConnIdleTime != 10*time.Minute {
		t.Errorf("unexpected MaxConnIdleTime: %v", poolCfg.MaxConnIdleTime)
	}
	if poolCfg.ConnConfig.Database != "nanasync" {
		t.Errorf("expected database nanasync, got %s", poolCfg.ConnConfig.Database)
	}
	if poolCfg.ConnConfig.Password != "p@ss/word" {
		t.Errorf("password was not decoded from DSN: %q", poolCfg.ConnConfig.Password)
	}
	if poolCfg.ConnConfig.ConnectTimeout != connectTimeout {
		t.Errorf("unexpected ConnectTimeout: %v", poolCfg.ConnConfig.ConnectTimeout)
	}
	if got := poolCfg.ConnConfig.RuntimeParams["application_name"]; got != applicationName {
		t.Errorf("unexpected application_name: %q", got)
	}
}

func TestBuildPoolConfigClampsMinConns(t *testing.T) {
	t.Parallel()

	poolCfg, err := BuildPoolConfig(config.DatabaseConfig{
		Host:         "localhost",
		Port:         5432,
		User:         "nanasync",
		Password:     "secret",
		Name:         "nanasync",
		SSLMode:      "disable",
		MaxOpenConns: 2,
		MaxIdleConns: 8,
	})
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MinConns != 2 {
		t.Errorf("expected MinConns clamped to 2, got %d", poolCfg.MinConns)
	}
}
