package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"interview-scheduler/internal/availability"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCHEDULER_STORAGE_DRIVER", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Scheduling.Concurrency != 4 || cfg.Scheduling.CallTimeout != 15*time.Second {
		t.Errorf("scheduling = %+v", cfg.Scheduling)
	}
	days, err := cfg.AllowedDays()
	if err != nil {
		t.Fatalf("AllowedDays: %v", err)
	}
	want := []availability.Day{
		availability.Day(time.Monday), availability.Day(time.Tuesday), availability.Day(time.Wednesday),
		availability.Day(time.Thursday), availability.Day(time.Friday),
	}
	if len(days) != len(want) {
		t.Fatalf("days = %v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("days = %v, want %v", days, want)
		}
	}
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/sched")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_HMAC_SECRET", "s3cret")
	t.Setenv("GOOGLE_CLIENT_ID", "client")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/sched" || cfg.Server.Port != "9090" {
		t.Errorf("unexpected %+v %+v", cfg.Database, cfg.Server)
	}
	if cfg.Google.ClientID != "client" {
		t.Errorf("client id = %q", cfg.Google.ClientID)
	}
	if cfg.Google.StateSecret != "s3cret" {
		t.Errorf("state secret should fall back to the JWT secret, got %q", cfg.Google.StateSecret)
	}
}

func TestLoadConfigFileAndOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	body := `
storage:
  driver: memory
scheduling:
  timezone: Europe/Berlin
  concurrency: 2
  allowed_days: [Monday, Saturday]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCHEDULER_SCHEDULING_CONCURRENCY", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduling.Concurrency != 8 {
		t.Errorf("env should override file, concurrency = %d", cfg.Scheduling.Concurrency)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("location = %v, %v", loc, err)
	}
	days, err := cfg.AllowedDays()
	if err != nil || len(days) != 2 || days[1] != availability.Day(time.Saturday) {
		t.Errorf("days = %v, %v", days, err)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Storage:    StorageConfig{Driver: "memory"},
			Scheduling: SchedulingConfig{Timezone: "UTC", Concurrency: 1, CallTimeout: time.Second, AllowedDays: []string{"Mon"}},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"postgres without url", func(c *Config) { c.Storage.Driver = "postgres" }, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, true},
		{"zero concurrency", func(c *Config) { c.Scheduling.Concurrency = 0 }, true},
		{"bad timezone", func(c *Config) { c.Scheduling.Timezone = "Mars/Olympus" }, true},
		{"bad day", func(c *Config) { c.Scheduling.AllowedDays = []string{"Funday"} }, true},
		{"comma separated days", func(c *Config) { c.Scheduling.AllowedDays = []string{"Mon, Tue"} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
