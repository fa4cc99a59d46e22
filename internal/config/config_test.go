package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("API_TOKEN_HASH", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PointsStandardExpiryMonths != 12 || cfg.PointsExpiryMonthsLeader != 18 {
		t.Fatalf("expiry months %+v", cfg)
	}
	if cfg.PointsMinBalanceExemption != 100 {
		t.Fatalf("exemption %d", cfg.PointsMinBalanceExemption)
	}
	if got := cfg.PointsWarningDays; len(got) != 3 || got[0] != 30 || got[1] != 7 || got[2] != 1 {
		t.Fatalf("warning days %v", got)
	}
	if cfg.PointsExpiryBatchSize != 5000 || cfg.PointsExpiryBatchDelay != 100*time.Millisecond {
		t.Fatalf("batch %d / %v", cfg.PointsExpiryBatchSize, cfg.PointsExpiryBatchDelay)
	}
	if cfg.PointsExpiryCron != "0 3 * * *" || cfg.Location() != time.UTC {
		t.Fatalf("cron %q in %v", cfg.PointsExpiryCron, cfg.Location())
	}
	if cfg.BadgeAwardPoints {
		t.Fatal("badge points must be off by default")
	}
}

func TestLoad_TokenHashFormat(t *testing.T) {
	setRequired(t)
	for _, h := range []string{"", "plain-token", "$2a$10$bcrypthash"} {
		t.Setenv("API_TOKEN_HASH", h)
		if _, err := Load(); err == nil {
			t.Fatalf("API_TOKEN_HASH=%q accepted", h)
		}
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bad cron":           {"POINTS_EXPIRY_CRON", "every day"},
		"two warnings":       {"POINTS_WARNING_DAYS", "30,7"},
		"not descending":     {"POINTS_WARNING_DAYS", "7,30,1"},
		"zero batch":         {"POINTS_EXPIRY_BATCH_SIZE", "0"},
		"negative exemption": {"POINTS_MIN_BALANCE_EXEMPTION", "-1"},
		"zero months":        {"POINTS_EXPIRY_MONTHS_LEADER", "0"},
		"telegram no token":  {"FEATURE_TELEGRAM_NOTIFY", "true"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s accepted", kv[0], kv[1])
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{DBUser: "berse", DBPassword: "pw", DBHost: "localhost", DBPort: 5432, DBName: "berse", DBSSLMode: "disable"}
	want := "postgres://berse:pw@localhost:5432/berse?sslmode=disable"
	if got := cfg.DatabaseDSN(); got != want {
		t.Fatalf("got %q", got)
	}
}

func TestDatabaseDSN_URLOverrides(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@db:6543/rewards?sslmode=require", DBHost: "localhost", DBPassword: "pw"}
	if got := cfg.DatabaseDSN(); got != cfg.DatabaseURL {
		t.Fatalf("got %q", got)
	}
}

func TestLoad_DatabaseCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "")
	if _, err := Load(); err == nil {
		t.Fatal("no DB_PASSWORD and no DATABASE_URL accepted")
	}

	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/rewards")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("DATABASE_URL without DB_PASSWORD: %v", err)
	}
	if cfg.DatabaseDSN() != "postgres://u:p@db:5432/rewards" {
		t.Fatalf("dsn %q", cfg.DatabaseDSN())
	}
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	cfg := &Config{AppTimezone: "Mars/Olympus"}
	if cfg.Location() != time.UTC {
		t.Fatal("unknown timezone should fall back to UTC")
	}
}
