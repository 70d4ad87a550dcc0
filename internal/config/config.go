package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override file settings
const EnvPrefix = "BRITNEY_"

// Tracker kinds
const (
	TrackerGitHub = "github"
	TrackerGitLab = "gitlab"
)

// Chat backends
const (
	BackendHTTP      = "http"
	BackendLangchain = "langchain"
)

// OllamaConfig locates the model runtime and names the models
type OllamaConfig struct {
	URL         string `koanf:"url"`
	Model       string `koanf:"model"`  // preferred base model
	Target      string `koanf:"target"` // derived model used for generation
	ChatBackend string `koanf:"chat_backend"`
	APIKey      string `koanf:"api_key"` // bearer token for a hosted endpoint
}

// TrackerConfig identifies where issues are published
type TrackerConfig struct {
	Kind        string        `koanf:"kind"`
	Owner       string        `koanf:"owner"`
	Repo        string        `koanf:"repo"`
	Token       string        `koanf:"token"`
	URL         string        `koanf:"url"`
	MinInterval time.Duration `koanf:"min_interval"`
}

// Config represents the application configuration
type Config struct {
	Ollama OllamaConfig `koanf:"ollama"`

	Provision struct {
		Modelfile string `koanf:"modelfile"`
	} `koanf:"provision"`

	Template struct {
		Path string `koanf:"path"`
	} `koanf:"template"`

	Tracker TrackerConfig `koanf:"tracker"`

	Generate struct {
		Echo       bool `koanf:"echo"`
		SkipBinary bool `koanf:"skip_binary"`
	} `koanf:"generate"`

	Publish struct {
		RedactSecrets bool `koanf:"redact_secrets"`
	} `koanf:"publish"`

	Run struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"run"`
}

var defaults = map[string]interface{}{
	"ollama.url":             "http://localhost:11434",
	"ollama.target":          "Britney",
	"ollama.chat_backend":    BackendHTTP,
	"provision.modelfile":    "./Modelfile",
	"template.path":          "./issue_template.md",
	"tracker.kind":           TrackerGitHub,
	"tracker.min_interval":   "1s",
	"generate.echo":          true,
	"generate.skip_binary":   false,
	"publish.redact_secrets": true,
	"run.timeout":            "30m",
}

// legacyEnv maps plain environment variables onto config keys
var legacyEnv = map[string]string{
	"OLLAMA_MODEL":   "ollama.model",
	"OLLAMA_API_KEY": "ollama.api_key",
	"MODELFILE_PATH": "provision.modelfile",
	"GITHUB_OWNER":   "tracker.owner",
	"GITHUB_REPO":    "tracker.repo",
	"GITHUB_TOKEN":   "tracker.token",
}

// LoadConfig loads the configuration. Later sources win: defaults, legacy
// environment variables, the TOML file, then BRITNEY_ variables.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	legacy := map[string]interface{}{}
	for name, key := range legacyEnv {
		if val := os.Getenv(name); val != "" {
			legacy[key] = val
		}
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./britney.toml", "$HOME/.britney.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// BRITNEY_TRACKER_MIN_INTERVAL -> tracker.min_interval
	k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# Britney Configuration

[ollama]
url = "http://localhost:11434"
model = "dolphin-mistral"
target = "Britney"
chat_backend = "http"

[provision]
modelfile = "./Modelfile"

[template]
path = "./issue_template.md"

[tracker]
kind = "github"
owner = "your-github-user"
repo = "your-repo"
token = "your-github-token"
min_interval = "1s"

[generate]
echo = true
skip_binary = false

[publish]
redact_secrets = true

[run]
timeout = "30m"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate checks what every command needs
func Validate(config *Config) error {
	if config.Ollama.URL == "" {
		return fmt.Errorf("ollama url is required")
	}
	if config.Ollama.Target == "" {
		return fmt.Errorf("ollama target model name is required")
	}

	switch config.Ollama.ChatBackend {
	case BackendHTTP, BackendLangchain:
	default:
		return fmt.Errorf("unsupported chat backend %q", config.Ollama.ChatBackend)
	}

	if config.Provision.Modelfile == "" {
		return fmt.Errorf("provision modelfile path is required")
	}
	if config.Template.Path == "" {
		return fmt.Errorf("template path is required")
	}

	return nil
}

// ValidateTracker checks what publishing needs
func ValidateTracker(tracker TrackerConfig) error {
	switch tracker.Kind {
	case TrackerGitHub:
		if tracker.Owner == "" || tracker.Repo == "" {
			return fmt.Errorf("github owner and repo are required")
		}
		if tracker.Token == "" {
			return fmt.Errorf("github token is required")
		}
	case TrackerGitLab:
		if tracker.Repo == "" {
			return fmt.Errorf("gitlab project (tracker.repo) is required")
		}
		if tracker.Token == "" {
			return fmt.Errorf("gitlab token is required")
		}
	default:
		return fmt.Errorf("unsupported tracker kind %q", tracker.Kind)
	}
	return nil
}
