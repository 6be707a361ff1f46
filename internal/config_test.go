package internal

import (
	"strings"
	"testing"

	pkgconfig "github.com/starford/cardsmith/pkg/config"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Deck.MasterDeckName = "Languages"
	cfg.Deck.ModelName = "basic-media"
	cfg.Deck.ModelNameDescriptive = "Basic with media"
	cfg.Deck.Fields = []string{"Question", "Answer", "picture_front"}
	return cfg
}

func TestConfig_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestConfig_MissingMasterDeck(t *testing.T) {
	cfg := validConfig()
	cfg.Deck.MasterDeckName = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty masterDeckName")
	}
}

func TestConfig_DuplicateField(t *testing.T) {
	cfg := validConfig()
	cfg.Deck.Fields = []string{"Question", "Question"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate field") {
		t.Fatalf("expected duplicate field error, got %v", err)
	}
}

func TestConfig_NoFields(t *testing.T) {
	cfg := validConfig()
	cfg.Deck.Fields = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty field list")
	}
}

func TestConfig_URLCheckTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Deck.URLCheck.Timeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled url check with zero timeout should fail")
	}
	cfg.Deck.URLCheck.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled url check should ignore timeout: %v", err)
	}
}

func TestConfig_WebserverPort(t *testing.T) {
	cfg := validConfig()
	cfg.MediaServer.Enabled = true
	cfg.MediaServer.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("out of range port should fail when webserver is enabled")
	}
	cfg.MediaServer.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("port is ignored when webserver is disabled: %v", err)
	}
}

func TestConfig_DecodeOriginalLayout(t *testing.T) {
	doc := `
masterDeckName: Languages
modelName: basic-media
modelNameDescriptive: Basic with media
fields:
  - Question
  - Answer
  - picture_front
urlCheck:
  enabled: true
  timeout: 2.5
webserver: true
webserverPort: 4000
app:
  log_level: debug
`
	cfg := NewDefaultConfig()
	if err := pkgconfig.Decode([]byte(doc), cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Deck.MasterDeckName != "Languages" || len(cfg.Deck.Fields) != 3 {
		t.Errorf("deck = %+v", cfg.Deck)
	}
	if got := cfg.Deck.URLCheck.TimeoutDuration().Milliseconds(); got != 2500 {
		t.Errorf("timeout = %dms, want 2500", got)
	}
	if !cfg.MediaServer.Enabled || cfg.MediaServer.Port != 4000 {
		t.Errorf("media server = %+v", cfg.MediaServer)
	}
	if cfg.App.BasePath != "anki" {
		t.Errorf("base path default lost: %q", cfg.App.BasePath)
	}
	if cfg.App.DecksDir() != "anki/decks" {
		t.Errorf("decks dir = %q", cfg.App.DecksDir())
	}
}
