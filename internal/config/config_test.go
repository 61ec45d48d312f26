package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Auth.TokenAlgorithm != AlgorithmHS256 {
		t.Fatalf("expected default algorithm %s, got %s", AlgorithmHS256, cfg.Auth.TokenAlgorithm)
	}
	if cfg.Auth.AccessTokenDuration != 24*time.Hour {
		t.Fatalf("expected default 24h token TTL, got %s", cfg.Auth.AccessTokenDuration)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short TOKEN_SECRET")
	}
}

func TestLoadRejectsUnknownAlgorithm(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TOKEN_ALGORITHM", "none")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported TOKEN_ALGORITHM")
	}
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "medscan", SSLMode: "disable",
	}

	got := cfg.ConnectionString()
	want := "host=db port=5432 user=u password=p dbname=medscan sslmode=disable"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	cfg.ChannelBinding = "require"
	if got := cfg.ConnectionString(); got != want+" channel_binding=require" {
		t.Fatalf("got %q", got)
	}
}
