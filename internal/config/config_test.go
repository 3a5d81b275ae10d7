package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/Sternrassler/artic-table/pkg/client"
	"github.com/Sternrassler/artic-table/pkg/table"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if s.BaseURL != client.DefaultBaseURL {
		t.Errorf("BaseURL = %q", s.BaseURL)
	}
	if s.Rows != table.DefaultRows {
		t.Errorf("Rows = %d, want %d", s.Rows, table.DefaultRows)
	}
	if s.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", s.Timeout)
	}
	if s.Limit != 0 || s.MaxPages != 0 {
		t.Errorf("Limit/MaxPages = %d/%d, want 0/0", s.Limit, s.MaxPages)
	}
	if s.RedisOptions() != nil {
		t.Error("RedisOptions() should be nil without an address")
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ARTIC_ROWS", "25")
	t.Setenv("ARTIC_TIMEOUT", "5s")
	t.Setenv("ARTIC_REDIS_ADDR", "localhost:6379")
	t.Setenv("ARTIC_LOG_LEVEL", "debug")

	s, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.Rows != 25 {
		t.Errorf("Rows = %d, want 25", s.Rows)
	}
	if s.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", s.Timeout)
	}
	if opts := s.RedisOptions(); opts == nil || opts.Addr != "localhost:6379" {
		t.Errorf("RedisOptions() = %+v", opts)
	}
	if s.LoggingConfig().Level != "debug" {
		t.Errorf("LoggingConfig().Level = %q", s.LoggingConfig().Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artic.yaml")
	content := "user_agent: file-agent/2.0\nmax_pages: 7\nlisten: 127.0.0.1:9090\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.Set(KeyConfigFile, path)
	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.UserAgent != "file-agent/2.0" || s.MaxPages != 7 || s.Listen != "127.0.0.1:9090" {
		t.Errorf("settings = %+v", s)
	}
	if s.TableConfig().Walker.MaxPages != 7 {
		t.Errorf("TableConfig().Walker.MaxPages = %d, want 7", s.TableConfig().Walker.MaxPages)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	v := viper.New()
	v.Set(KeyConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(v); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Settings {
		return Settings{
			BaseURL:   client.DefaultBaseURL,
			UserAgent: "ua",
			Timeout:   time.Second,
			Rows:      12,
			LogLevel:  "info",
			Listen:    ":8080",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"missing user agent", func(s *Settings) { s.UserAgent = "" }, "user_agent is required"},
		{"relative url", func(s *Settings) { s.BaseURL = "api/v1" }, "base_url must be an absolute URL"},
		{"zero rows", func(s *Settings) { s.Rows = 0 }, "rows must be at least 1"},
		{"limit too large", func(s *Settings) { s.Limit = 500 }, "limit must be at most 100"},
		{"zero timeout", func(s *Settings) { s.Timeout = 0 }, "timeout must be greater than 0"},
		{"bad level", func(s *Settings) { s.LogLevel = "loud" }, "log_level must be one of"},
		{"bad redis addr", func(s *Settings) { s.RedisAddr = "localhost" }, "redis_addr must be host:port"},
		{"bad listen", func(s *Settings) { s.Listen = "" }, "listen is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestClientConfig(t *testing.T) {
	s := Settings{
		BaseURL:   "http://localhost:1234/api/v1",
		UserAgent: "ua/1",
		Timeout:   3 * time.Second,
		Limit:     24,
	}
	cfg := s.ClientConfig(nil)
	if cfg.BaseURL != s.BaseURL || cfg.UserAgent != "ua/1" || cfg.Timeout != 3*time.Second || cfg.Limit != 24 {
		t.Errorf("ClientConfig() = %+v", cfg)
	}
	if len(cfg.Fields) == 0 {
		t.Error("ClientConfig() should keep the default field list")
	}
	if cfg.Redis != nil {
		t.Error("Redis should be nil")
	}
}
