package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cardsmith/internal/models"
)

// Default process-level values.
const (
	DefaultConfigPath    = "anki/config.yaml"
	DefaultAnkiHost      = "localhost:8765"
	DefaultExportPath    = "/export/export.apkg"
	DefaultWebserverPort = 1233
)

// Config represents the application configuration.
//
// Deck and media server keys sit at the top level of the file so that
// deck configs written for earlier tooling load unchanged.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Deck        models.DeckConfig `yaml:",inline"`
	MediaServer MediaServerConfig `yaml:",inline"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := validateDeck(&c.Deck); err != nil {
		return fmt.Errorf("deck: %w", err)
	}
	return c.MediaServer.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	BasePath string     `yaml:"base_path"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BasePath, validation.Required),
	)
}

// DecksDir returns the directory holding deck source files.
func (c *ApplicationConfig) DecksDir() string {
	return filepath.Join(c.BasePath, "decks")
}

// CardDir returns the directory holding the card templates and stylesheet.
func (c *ApplicationConfig) CardDir() string {
	return filepath.Join(c.BasePath, "card")
}

// AssetsDir returns the directory exposed by the media server.
func (c *ApplicationConfig) AssetsDir() string {
	return filepath.Join(c.BasePath, "assets")
}

// MediaServerConfig controls the local static media server.
type MediaServerConfig struct {
	Enabled bool `yaml:"webserver"`
	Port    int  `yaml:"webserverPort"`
}

// Address returns the media server listen address.
func (c *MediaServerConfig) Address() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// Validate validates the media server configuration.
func (c *MediaServerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

func validateDeck(c *models.DeckConfig) error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MasterDeckName, validation.Required, validation.By(noSeparator)),
		validation.Field(&c.ModelName, validation.Required),
		validation.Field(&c.ModelNameDescriptive, validation.Required),
		validation.Field(&c.Fields, validation.Required, validation.By(uniqueFields)),
	); err != nil {
		return err
	}
	if c.URLCheck.Enabled && c.URLCheck.Timeout <= 0 {
		return fmt.Errorf("urlCheck: timeout must be positive when enabled, got %v", c.URLCheck.Timeout)
	}
	return nil
}

func noSeparator(value any) error {
	s, _ := value.(string)
	if strings.HasSuffix(s, models.DeckSeparator) {
		return fmt.Errorf("must not end with %q", models.DeckSeparator)
	}
	return nil
}

func uniqueFields(value any) error {
	fields, _ := value.([]string)
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return errors.New("field names must not be blank")
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("duplicate field %q", f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			BasePath: "anki",
		},
		Deck: models.DeckConfig{
			URLCheck: models.URLCheck{
				Enabled: true,
				Timeout: 5,
			},
		},
		MediaServer: MediaServerConfig{
			Port: DefaultWebserverPort,
		},
	}
}
