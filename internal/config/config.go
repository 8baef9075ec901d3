package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required,notEmpty"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	CommandTrigger string `env:"COMMAND_TRIGGER" envDefault:"!h"`
	Markers        Markers

	ReadyTimeout time.Duration `env:"READY_TIMEOUT" envDefault:"30s"`
	Reconnect    Reconnect     `envPrefix:"RECONNECT_"`

	Media Media
}

// Markers are the emoji used to acknowledge and trigger playback.
type Markers struct {
	Reaction string `env:"REACTION_MARKER" envDefault:"👆"`
	Play     string `env:"PLAY_MARKER" envDefault:"▶️"`
	Stop     string `env:"STOP_MARKER" envDefault:"🛑"`
	Quit     string `env:"QUIT_MARKER" envDefault:"🏃"`
}

// Reconnect bounds how hard the bot tries to get its gateway back.
type Reconnect struct {
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"10"`
	InitialDelay time.Duration `env:"INITIAL_DELAY" envDefault:"1s"`
	MaxDelay     time.Duration `env:"MAX_DELAY" envDefault:"1m"`
}

// Media configures how play arguments become audio.
type Media struct {
	Parsers      []string `env:"MEDIA_PARSERS" envSeparator:"," envDefault:"kkdai-pipe,ytdlp-pipe,ytdlp-link,ffmpeg-link"`
	YtdlpPath    string   `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	FFmpegPath   string   `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	YouTubeProxy string   `env:"YOUTUBE_PROXY"`
}

// Load reads an optional .env file, then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CommandTrigger == "" {
		return errors.New("COMMAND_TRIGGER must not be empty")
	}
	if c.Reconnect.MaxAttempts < 1 {
		return fmt.Errorf("RECONNECT_MAX_ATTEMPTS must be at least 1, got %d", c.Reconnect.MaxAttempts)
	}
	if len(c.Media.Parsers) == 0 {
		return errors.New("MEDIA_PARSERS must list at least one parser")
	}
	return nil
}
