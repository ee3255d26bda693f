package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnv(string) (string, bool) { return "", false }

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := loadFile(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("loadFile returned error: %v", err)
	}
	if cfg.PollInterval != defaultPollInterval {
		t.Fatalf("PollInterval = %s, want %s", cfg.PollInterval, defaultPollInterval)
	}
	if cfg.Screen != defaultScreen {
		t.Fatalf("Screen = %q, want %q", cfg.Screen, defaultScreen)
	}
	if cfg.Sound != SoundBell {
		t.Fatalf("Sound = %q, want %q", cfg.Sound, SoundBell)
	}
	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if cfg.ChatEnabled() {
		t.Fatal("chat should be disabled by default")
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_base = "  https://portal.example.org/  "
token_file = "~/.portal/token"
viewer_id = "c-42"
screen = "emergency"
patient_ids = [" p1 ", "", "p2"]
poll_interval = "5s"
sound = "off"

[chat]
room_id = "tele-9"
nats_url = "nats://localhost:4222"
redis_addr = "localhost:6379"
history_ttl = "2h"
max_rooms = 4
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := loadFile(path)
	if err != nil {
		t.Fatalf("loadFile returned error: %v", err)
	}
	if cfg.APIBase != "https://portal.example.org/" {
		t.Fatalf("APIBase = %q", cfg.APIBase)
	}
	if !strings.HasPrefix(cfg.TokenFile, home) {
		t.Fatalf("TokenFile = %q, want it under HOME %q", cfg.TokenFile, home)
	}
	if cfg.Screen != "emergency" || cfg.ViewerID != "c-42" {
		t.Fatalf("Screen/ViewerID = %q/%q", cfg.Screen, cfg.ViewerID)
	}
	if len(cfg.PatientIDs) != 2 || cfg.PatientIDs[0] != "p1" || cfg.PatientIDs[1] != "p2" {
		t.Fatalf("PatientIDs = %#v", cfg.PatientIDs)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval = %s", cfg.PollInterval)
	}
	if cfg.Chat.HistoryTTL != 2*time.Hour || cfg.Chat.MaxRooms != 4 {
		t.Fatalf("Chat = %+v", cfg.Chat)
	}
	if cfg.Chat.HistoryCap != defaultHistoryCap || cfg.Chat.MaxAge != defaultMaxAge {
		t.Fatalf("unset chat fields should keep defaults: %+v", cfg.Chat)
	}
	if !cfg.ChatEnabled() {
		t.Fatal("chat should be enabled")
	}
	if cfg.ChatSenderName() != "c-42" {
		t.Fatalf("ChatSenderName = %q, want viewer id", cfg.ChatSenderName())
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_base = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := loadFile(path)
	if err == nil {
		t.Fatalf("loadFile returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`poll_interval = "soon"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := loadFile(path); err == nil || !strings.Contains(err.Error(), "poll_interval") {
		t.Fatalf("err = %v, want poll_interval parse error", err)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_base = "https://file.example"
screen = "consultation"
agenda_id = "a-1"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("PORTALWATCH_API_BASE", "https://env.example")
	t.Setenv("PORTALWATCH_SCREEN", "telemedicine")
	t.Setenv("PORTALWATCH_PATIENT_IDS", "p9, ,p10")
	t.Setenv("PORTALWATCH_POLL_INTERVAL", "10s")
	t.Setenv("PORTALWATCH_TOKEN", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBase != "https://env.example" || cfg.Screen != "telemedicine" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.AgendaID != "a-1" {
		t.Fatalf("AgendaID = %q, file value should survive", cfg.AgendaID)
	}
	if len(cfg.PatientIDs) != 2 || cfg.PatientIDs[1] != "p10" {
		t.Fatalf("PatientIDs = %#v", cfg.PatientIDs)
	}
	if cfg.PollInterval != 10*time.Second || cfg.Token != "secret" {
		t.Fatalf("PollInterval/Token = %s/%q", cfg.PollInterval, cfg.Token)
	}
}

func TestApplyEnv_EmptyLeavesValues(t *testing.T) {
	cfg := Default()
	cfg.APIBase = "https://keep"
	if err := applyEnv(&cfg, noEnv); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.APIBase != "https://keep" || cfg.PollInterval != defaultPollInterval {
		t.Fatalf("cfg changed: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.APIBase = "https://portal"
	valid.Token = "t"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"token file only", func(c *Config) { c.Token = ""; c.TokenFile = "/tmp/token" }, false},
		{"missing api base", func(c *Config) { c.APIBase = " " }, true},
		{"missing token", func(c *Config) { c.Token = "" }, true},
		{"interval too short", func(c *Config) { c.PollInterval = 100 * time.Millisecond }, true},
		{"command without binary", func(c *Config) { c.Sound = SoundCommand }, true},
		{"command with binary", func(c *Config) { c.Sound = SoundCommand; c.SoundCommand = "aplay" }, false},
		{"unknown sound", func(c *Config) { c.Sound = "loud" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	noToken := valid
	noToken.Token = ""
	if !errors.Is(noToken.Validate(), ErrNoToken) {
		t.Fatal("missing token should be ErrNoToken")
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
