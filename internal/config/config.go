package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything portalwatch needs to reach the portal and present
// the queue.
type Config struct {
	APIBase      string
	Token        string
	TokenFile    string
	ViewerID     string
	Screen       string
	AgendaID     string
	PatientIDs   []string
	PollInterval time.Duration
	LogFile      string
	LogLevel     string
	Sound        string
	SoundCommand string
	MetricsAddr  string
	Chat         ChatConfig
}

// ChatConfig configures the telemedicine room chat. Chat is off when RoomID
// or NATSURL is empty.
type ChatConfig struct {
	RoomID     string
	SenderName string
	NATSURL    string
	RedisAddr  string
	HistoryTTL time.Duration
	HistoryCap int
	MaxRooms   int
	MaxAge     time.Duration
}

// Sound modes.
const (
	SoundBell    = "bell"
	SoundCommand = "command"
	SoundOff     = "off"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PORTALWATCH_"

const (
	defaultConfigPath   = "~/.config/portalwatch/config.toml"
	defaultLogFile      = "~/.local/state/portalwatch/portalwatch.log"
	defaultScreen       = "consultation"
	defaultPollInterval = 3 * time.Second
	defaultLogLevel     = "info"
	defaultHistoryTTL   = 24 * time.Hour
	defaultHistoryCap   = 200
	defaultMaxRooms     = 16
	defaultMaxAge       = 6 * time.Hour
	minPollInterval     = 500 * time.Millisecond
)

// ErrNoToken is returned by Validate when neither a token nor a token file is set.
var ErrNoToken = errors.New("config: token or token_file is required")

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Screen:       defaultScreen,
		PollInterval: defaultPollInterval,
		LogFile:      mustExpand(defaultLogFile),
		LogLevel:     defaultLogLevel,
		Sound:        SoundBell,
		Chat: ChatConfig{
			HistoryTTL: defaultHistoryTTL,
			HistoryCap: defaultHistoryCap,
			MaxRooms:   defaultMaxRooms,
			MaxAge:     defaultMaxAge,
		},
	}
}

type rawConfig struct {
	APIBase      string   `toml:"api_base"`
	Token        string   `toml:"token"`
	TokenFile    string   `toml:"token_file"`
	ViewerID     string   `toml:"viewer_id"`
	Screen       string   `toml:"screen"`
	AgendaID     string   `toml:"agenda_id"`
	PatientIDs   []string `toml:"patient_ids"`
	PollInterval string   `toml:"poll_interval"`
	LogFile      string   `toml:"log_file"`
	LogLevel     string   `toml:"log_level"`
	Sound        string   `toml:"sound"`
	SoundCommand string   `toml:"sound_command"`
	MetricsAddr  string   `toml:"metrics_addr"`
	Chat         struct {
		RoomID     string `toml:"room_id"`
		SenderName string `toml:"sender_name"`
		NATSURL    string `toml:"nats_url"`
		RedisAddr  string `toml:"redis_addr"`
		HistoryTTL string `toml:"history_ttl"`
		HistoryCap int    `toml:"history_cap"`
		MaxRooms   int    `toml:"max_rooms"`
		MaxAge     string `toml:"max_age"`
	} `toml:"chat"`
}

// Load reads the config file at path (the default location when empty),
// falling back to defaults when it does not exist, and then applies
// PORTALWATCH_* environment overrides.
func Load(path string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.APIBase, raw.APIBase)
	setString(&cfg.Token, raw.Token)
	setString(&cfg.ViewerID, raw.ViewerID)
	setString(&cfg.Screen, raw.Screen)
	setString(&cfg.AgendaID, raw.AgendaID)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.Sound, raw.Sound)
	setString(&cfg.SoundCommand, raw.SoundCommand)
	setString(&cfg.MetricsAddr, raw.MetricsAddr)
	setString(&cfg.Chat.RoomID, raw.Chat.RoomID)
	setString(&cfg.Chat.SenderName, raw.Chat.SenderName)
	setString(&cfg.Chat.NATSURL, raw.Chat.NATSURL)
	setString(&cfg.Chat.RedisAddr, raw.Chat.RedisAddr)
	if ids := cleanList(raw.PatientIDs); len(ids) > 0 {
		cfg.PatientIDs = ids
	}
	if v := strings.TrimSpace(raw.TokenFile); v != "" {
		cfg.TokenFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if raw.Chat.HistoryCap > 0 {
		cfg.Chat.HistoryCap = raw.Chat.HistoryCap
	}
	if raw.Chat.MaxRooms > 0 {
		cfg.Chat.MaxRooms = raw.Chat.MaxRooms
	}

	if err := setDuration(&cfg.PollInterval, "poll_interval", raw.PollInterval); err != nil {
		return Config{}, err
	}
	if err := setDuration(&cfg.Chat.HistoryTTL, "chat.history_ttl", raw.Chat.HistoryTTL); err != nil {
		return Config{}, err
	}
	if err := setDuration(&cfg.Chat.MaxAge, "chat.max_age", raw.Chat.MaxAge); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays PORTALWATCH_* variables. lookup is os.LookupEnv outside tests.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) string {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	setString(&cfg.APIBase, get("API_BASE"))
	setString(&cfg.Token, get("TOKEN"))
	setString(&cfg.ViewerID, get("VIEWER_ID"))
	setString(&cfg.Screen, get("SCREEN"))
	setString(&cfg.AgendaID, get("AGENDA_ID"))
	setString(&cfg.LogLevel, get("LOG_LEVEL"))
	setString(&cfg.Sound, get("SOUND"))
	setString(&cfg.MetricsAddr, get("METRICS_ADDR"))
	setString(&cfg.Chat.RoomID, get("CHAT_ROOM"))
	setString(&cfg.Chat.NATSURL, get("NATS_URL"))
	setString(&cfg.Chat.RedisAddr, get("REDIS_ADDR"))
	if v := get("TOKEN_FILE"); v != "" {
		cfg.TokenFile = mustExpand(v)
	}
	if v := get("PATIENT_IDS"); v != "" {
		cfg.PatientIDs = cleanList(strings.Split(v, ","))
	}
	if v := get("HISTORY_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sHISTORY_CAP: %w", EnvPrefix, err)
		}
		cfg.Chat.HistoryCap = n
	}
	return setDuration(&cfg.PollInterval, EnvPrefix+"POLL_INTERVAL", get("POLL_INTERVAL"))
}

// Validate reports settings portalwatch cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBase) == "" {
		return errors.New("config: api_base is required")
	}
	if strings.TrimSpace(c.Token) == "" && strings.TrimSpace(c.TokenFile) == "" {
		return ErrNoToken
	}
	if c.PollInterval < minPollInterval {
		return fmt.Errorf("config: poll_interval %s is below %s", c.PollInterval, minPollInterval)
	}
	switch c.Sound {
	case SoundBell, SoundOff:
	case SoundCommand:
		if strings.TrimSpace(c.SoundCommand) == "" {
			return errors.New("config: sound = \"command\" needs sound_command")
		}
	default:
		return fmt.Errorf("config: unknown sound mode %q", c.Sound)
	}
	return nil
}

// ChatEnabled reports whether a chat room is configured.
func (c Config) ChatEnabled() bool {
	return c.Chat.RoomID != "" && c.Chat.NATSURL != ""
}

// ChatSenderName falls back to the viewer id when no display name is set.
func (c Config) ChatSenderName() string {
	if c.Chat.SenderName != "" {
		return c.Chat.SenderName
	}
	return c.ViewerID
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse %s: must be positive", name)
	}
	*dst = d
	return nil
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
