// Package config loads portalwatch configuration.
//
// # Resolution order
//
//  1. Built-in defaults (Default).
//  2. The TOML file passed to Load, or ~/.config/portalwatch/config.toml.
//     A missing file is not an error.
//  3. PORTALWATCH_* environment variables. The binary loads a .env file from
//     the working directory first, so these can live there.
//  4. Command-line flags, applied by the caller.
//
// # TOML format
//
//	api_base = "https://portal.example.org"
//	token_file = "~/.config/portalwatch/token"
//	viewer_id = "12345"
//	screen = "consultation"          # consultation | emergency | telemedicine
//	agenda_id = "987"
//	patient_ids = ["12345"]
//	poll_interval = "3s"
//	log_file = "~/.local/state/portalwatch/portalwatch.log"
//	sound = "bell"                   # bell | command | off
//	sound_command = "aplay"
//	metrics_addr = "127.0.0.1:9310"
//
//	[chat]
//	room_id = "tele-42"
//	sender_name = "Ana"
//	nats_url = "nats://localhost:4222"
//	redis_addr = "localhost:6379"
//	history_ttl = "24h"
//	history_cap = 200
//	max_rooms = 16
//	max_age = "6h"
//
// Durations use Go duration syntax. Paths accept a leading ~.
//
// # Environment
//
// API_BASE, TOKEN, TOKEN_FILE, VIEWER_ID, SCREEN, AGENDA_ID, PATIENT_IDS
// (comma separated), POLL_INTERVAL, LOG_LEVEL, SOUND, METRICS_ADDR,
// CHAT_ROOM, NATS_URL, REDIS_ADDR and HISTORY_CAP, each prefixed with
// PORTALWATCH_.
//
// Validate checks the settings needed to poll. The token itself is opaque;
// portalwatch never refreshes it.
package config
