package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: meet
  password: s3cret
  name: quantummeet_prod

server:
  port: 9090

auth:
  cookie_name: qm_sid
  session_ttl: 48h
  secure_cookie: true
  prune_schedule: "*/15 * * * *"

log:
  level: debug
  format: json

debug:
  get_one_delay: 3s
`

const minimalYAML = `
database:
  driver: sqlite
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverMySQL)
	}
	if cfg.Database.Host != "10.0.0.5" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "10.0.0.5")
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 3307)
	}
	if cfg.Database.User != "meet" {
		t.Errorf("Database.User = %q, want %q", cfg.Database.User, "meet")
	}
	if cfg.Database.Password != "s3cret" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "s3cret")
	}
	if cfg.Database.Name != "quantummeet_prod" {
		t.Errorf("Database.Name = %q, want %q", cfg.Database.Name, "quantummeet_prod")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Auth.CookieName != "qm_sid" {
		t.Errorf("Auth.CookieName = %q, want %q", cfg.Auth.CookieName, "qm_sid")
	}
	if cfg.Auth.SessionTTL != 48*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want %v", cfg.Auth.SessionTTL, 48*time.Hour)
	}
	if !cfg.Auth.SecureCookie {
		t.Error("Auth.SecureCookie = false, want true")
	}
	if cfg.Auth.PruneSchedule != "*/15 * * * *" {
		t.Errorf("Auth.PruneSchedule = %q, want %q", cfg.Auth.PruneSchedule, "*/15 * * * *")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want debug/json", cfg.Log)
	}
	if cfg.Debug.GetOneDelay != 3*time.Second {
		t.Errorf("Debug.GetOneDelay = %v, want 3s", cfg.Debug.GetOneDelay)
	}
}

func TestParse_MinimalConfig_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Path != "quantummeet.db" {
		t.Errorf("Database.Path = %q, want %q (default)", cfg.Database.Path, "quantummeet.db")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d (default)", cfg.Server.Port, 8080)
	}
	if cfg.Auth.CookieName != "qm_session" {
		t.Errorf("Auth.CookieName = %q, want %q (default)", cfg.Auth.CookieName, "qm_session")
	}
	if cfg.Auth.SessionTTL != 7*24*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want 168h (default)", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.PruneSchedule != "@every 1h" {
		t.Errorf("Auth.PruneSchedule = %q, want %q (default)", cfg.Auth.PruneSchedule, "@every 1h")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want info/text (default)", cfg.Log)
	}
	if cfg.Debug.GetOneDelay != 0 {
		t.Errorf("Debug.GetOneDelay = %v, want 0 (default)", cfg.Debug.GetOneDelay)
	}
}

func TestParse_EmptyConfig_DefaultsToMySQL(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverMySQL)
	}
	if cfg.Database.Host != "127.0.0.1" || cfg.Database.Port != 3306 {
		t.Errorf("Database = %s:%d, want 127.0.0.1:3306", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.User != "root" {
		t.Errorf("Database.User = %q, want root", cfg.Database.User)
	}
	if cfg.Database.Name != "quantummeet" {
		t.Errorf("Database.Name = %q, want quantummeet", cfg.Database.Name)
	}
}

func TestParse_DriverCaseInsensitive(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: SQLite\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown driver", "database:\n  driver: postgres\n", `database.driver "postgres" is not supported`},
		{"db port out of range", "database:\n  port: 70000\n", "database.port 70000 is out of range"},
		{"server port negative", "server:\n  port: -1\n", "server.port -1 is out of range"},
		{"negative ttl", "auth:\n  session_ttl: -1h\n", "auth.session_ttl must be positive"},
		{"negative delay", "debug:\n  get_one_delay: -1s\n", "debug.get_one_delay must not be negative"},
		{"bad log format", "log:\n  format: xml\n", `log.format "xml" is not supported`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_MultipleErrorsJoined(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: oracle\nlog:\n  format: xml\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("error = %q, want errors joined with '; '", err.Error())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("database: [unclosed"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse")
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	env := map[string]string{
		"QM_DB_DRIVER":   "sqlite",
		"QM_DB_PATH":     "/tmp/qm.db",
		"QM_DB_PASSWORD": "from-env",
		"QM_PORT":        "7070",
		"QM_LOG_LEVEL":   "warn",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg, err := parse([]byte(fullYAML), lookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "/tmp/qm.db" {
		t.Errorf("Database.Path = %q, want /tmp/qm.db", cfg.Database.Path)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("Database.Password = %q, want from-env", cfg.Database.Password)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	// Untouched values survive.
	if cfg.Database.Host != "10.0.0.5" {
		t.Errorf("Database.Host = %q, want 10.0.0.5", cfg.Database.Host)
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "QM_DB_PORT" {
			return "abc", true
		}
		return "", false
	}
	_, err := parse([]byte(minimalYAML), lookup)
	if err == nil {
		t.Fatal("expected error for non-numeric port")
	}
	if !strings.Contains(err.Error(), "QM_DB_PORT") {
		t.Errorf("error = %q, want to mention QM_DB_PORT", err.Error())
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quantummeet.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quantummeet.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("QM_DB_PATH=/var/lib/qm/dotenv.db\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// Registers cleanup so the value loaded from .env does not leak.
	t.Setenv("QM_DB_PATH", "")
	os.Unsetenv("QM_DB_PATH")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/var/lib/qm/dotenv.db" {
		t.Errorf("Database.Path = %q, want value from .env", cfg.Database.Path)
	}
}

func TestLoad_EnvBeatsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quantummeet.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("QM_DB_PATH=/from/dotenv.db\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("QM_DB_PATH", "/from/env.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/from/env.db" {
		t.Errorf("Database.Path = %q, want /from/env.db", cfg.Database.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/quantummeet.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: read")
	}
}
