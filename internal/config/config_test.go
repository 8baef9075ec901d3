package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.DiscordToken != "secret" {
		t.Fatalf("unexpected token %q", cfg.DiscordToken)
	}
	if cfg.CommandTrigger != "!h" {
		t.Fatalf("unexpected trigger %q", cfg.CommandTrigger)
	}
	if cfg.Markers.Reaction != "👆" || cfg.Markers.Stop != "🛑" {
		t.Fatalf("unexpected markers %+v", cfg.Markers)
	}
	if cfg.Reconnect.MaxAttempts != 10 || cfg.Reconnect.InitialDelay != time.Second {
		t.Fatalf("unexpected reconnect defaults %+v", cfg.Reconnect)
	}
	if len(cfg.Media.Parsers) != 4 || cfg.Media.Parsers[0] != "kkdai-pipe" {
		t.Fatalf("unexpected parsers %v", cfg.Media.Parsers)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error without DISCORD_TOKEN")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "from-env")
	t.Setenv("RECONNECT_MAX_ATTEMPTS", "")
	os.Unsetenv("RECONNECT_MAX_ATTEMPTS")
	t.Setenv("COMMAND_TRIGGER", "")
	os.Unsetenv("COMMAND_TRIGGER")

	file := filepath.Join(t.TempDir(), ".env")
	content := "COMMAND_TRIGGER=!play\nRECONNECT_MAX_ATTEMPTS=3\nMEDIA_PARSERS=ytdlp-link,ffmpeg-link\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("MEDIA_PARSERS")
		os.Unsetenv("COMMAND_TRIGGER")
		os.Unsetenv("RECONNECT_MAX_ATTEMPTS")
	})

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DiscordToken != "from-env" {
		t.Fatalf("process environment must win over env file, got %q", cfg.DiscordToken)
	}
	if cfg.CommandTrigger != "!play" || cfg.Reconnect.MaxAttempts != 3 {
		t.Fatalf("env file values not applied: %+v", cfg)
	}
	if len(cfg.Media.Parsers) != 2 || cfg.Media.Parsers[1] != "ffmpeg-link" {
		t.Fatalf("unexpected parsers %v", cfg.Media.Parsers)
	}
}

func TestLoadRejectsZeroAttempts(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "secret")
	t.Setenv("RECONNECT_MAX_ATTEMPTS", "0")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected validation error")
	}
}
