package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values loaded from config.toml.
const (
	EnvClientID       = "SPOTIPY_CLIENT_ID"
	EnvClientSecret   = "SPOTIPY_CLIENT_SECRET"
	EnvTargetPlaylist = "TARGET_PLAYLIST_NAME"
	EnvQueuePath      = "HANSDJ_QUEUE"
)

// Target playlist resolution policies.
const (
	TargetByName = "name"
	TargetFirst  = "first"
)

// Config represents the application configuration loaded from a TOML file.
//
// It is built once at startup and handed to every component that needs it.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Queue       QueueConfig       `toml:"queue"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Dashboard   DashboardConfig   `toml:"dashboard"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	API         APIConfig         `toml:"api"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// Map returns the credentials in the form accepted by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// QueueConfig locates the shared request queue and controls how often it is drained.
type QueueConfig struct {
	Path         string   `toml:"path"`
	PollInterval Duration `toml:"poll_interval"`
	LockTimeout  Duration `toml:"lock_timeout"`
}

// PlaylistConfig selects the playlist that receives drained requests.
type PlaylistConfig struct {
	TargetName   string `toml:"target_name"`
	TargetPolicy string `toml:"target_policy"`
}

// DashboardConfig contains terminal dashboard settings.
type DashboardConfig struct {
	PlaybackInterval Duration `toml:"playback_interval"`
	LogPath          string   `toml:"log_path"`
	LogLines         int      `toml:"log_lines"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// APIConfig throttles outgoing Spotify requests (requests per second).
type APIConfig struct {
	RateLimit float64 `toml:"rate_limit"`
}

// Duration wraps [time.Duration] so it can be written as "3s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads envFile (if it exists) into the process environment without overriding
// variables that are already set, then copies the recognised variables onto the config.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if v := os.Getenv(EnvClientID); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv(EnvTargetPlaylist); v != "" {
		c.Playlist.TargetName = v
	}
	if v := os.Getenv(EnvQueuePath); v != "" {
		c.Queue.Path = v
	}
	return nil
}

// Validate performs presence checks on the values needed to talk to Spotify.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" {
		return fmt.Errorf("%w: spotify client_id is not set", ErrMissingCredentials)
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: %s not set in environment or .env", ErrMissingCredentials, EnvClientSecret)
	}

	switch strings.ToLower(c.Playlist.TargetPolicy) {
	case TargetByName, TargetFirst:
	default:
		return fmt.Errorf("%w: unknown target_policy %q", ErrInvalidConfig, c.Playlist.TargetPolicy)
	}
	return nil
}
