// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file,
// if present), loads them into structured Go types, and validates them
// once at startup. The resulting *Config is passed explicitly to every
// component that needs it; nothing reads os.Getenv at request time.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad config.
//   - Report (not fail on) missing dispatch credentials, so the service can
//     still start and explain itself through /api/status.
package config

import (
	"os"
	"strings"

	"github.com/deppfellow/github-action-pr-trigger/internal/validation"
	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before anything below reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

/*
	Two env sources are read, later wins:

	1. Plain names used by existing deployments of this relay
	   (GITHUB_REPO, GITHUB_TOKEN, ALLOWED_ORIGINS, PORT, NODE_ENV, ...).
	   They are mapped onto koanf keys through plainEnvKeys.
	2. Prefixed names: PRTRIGGER_<SECTION>__<KEY>, e.g.
	   PRTRIGGER_GITHUB__DISPATCH_TIMEOUT -> github.dispatch_timeout
*/

const (
	// EnvPrefix is the prefix of the structured env variables.
	EnvPrefix = "PRTRIGGER_"

	// ServiceName identifies this service in payloads, logs and APM.
	ServiceName = "github-action-pr-trigger"
)

// Names of the two variables a dispatch cannot work without.
const (
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvGitHubRepo  = "GITHUB_REPO"
)

// plainEnvKeys maps unprefixed variable names onto koanf key paths.
var plainEnvKeys = map[string]string{
	EnvGitHubRepo:           "github.repo",
	EnvGitHubToken:          "github.token",
	"GITHUB_API_URL":        "github.api_url",
	"ALLOWED_ORIGINS":       "server.cors_allowed_origins",
	"PORT":                  "server.port",
	"NODE_ENV":              "primary.env",
	"APP_ENV":               "primary.env",
	"REDIS_URL":             "rate_limit.redis_address",
	"LOG_LEVEL":             "observability.logging.level",
	"NEW_RELIC_LICENSE_KEY": "observability.new_relic.license_key",
}

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf should map values from.
// The `validate:"..."` tags are enforced by go-playground/validator.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	GitHub        GitHubConfig         `koanf:"github"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=development production test staging local"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port            string `koanf:"port" validate:"required,numeric"`
	ReadTimeout     int    `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout    int    `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout     int    `koanf:"idle_timeout" validate:"required,min=1"`
	ShutdownTimeout int    `koanf:"shutdown_timeout" validate:"required,min=1"`

	// CORSAllowedOrigins is a comma-separated list; "*" allows every origin.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins" validate:"required"`

	// BodyLimit uses echo's size notation, e.g. "10M".
	BodyLimit string `koanf:"body_limit" validate:"required"`
}

// GitHubConfig holds everything the dispatcher needs to reach the control
// repository. Repo and Token are deliberately not `required`: their absence is
// reported by MissingVariables instead of aborting startup.
type GitHubConfig struct {
	// Repo is the control repository, "owner/repo".
	Repo string `koanf:"repo"`

	// Token is the credential sent as "Authorization: token <Token>".
	// Never log it.
	Token string `koanf:"token"`

	// APIURL is the REST API root. Overridable for GitHub Enterprise and tests.
	APIURL string `koanf:"api_url" validate:"required,url"`

	// DispatchTimeout bounds the single outbound call, in seconds.
	DispatchTimeout int `koanf:"dispatch_timeout" validate:"required,min=1,max=120"`

	// EventType is the repository_dispatch event name the workflow listens on.
	EventType string `koanf:"event_type" validate:"required"`
}

// RateLimitConfig controls per-IP request limiting.
//
// When RedisAddress is empty an in-process store is used, which is only
// accurate for a single replica.
type RateLimitConfig struct {
	Enabled bool `koanf:"enabled"`

	// Requests allowed per Window per client IP.
	Requests int `koanf:"requests" validate:"min=1"`

	// Window length in seconds.
	Window int `koanf:"window" validate:"min=1"`

	// RedisAddress is "host:port" or a redis:// URL.
	RedisAddress string `koanf:"redis_address"`
}

// DefaultConfig returns the values used when nothing is set in the environment.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "3000",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			ShutdownTimeout:    30,
			CORSAllowedOrigins: "*",
			BodyLimit:          "10M",
		},
		GitHub: GitHubConfig{
			APIURL:          "https://api.github.com/",
			DispatchTimeout: 15,
			EventType:       "create-pr",
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 100,
			Window:   15 * 60,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// AllowedOrigins splits CORSAllowedOrigins into the list echo's CORS
// middleware expects. An empty entry list falls back to "*".
func (s ServerConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(s.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	if len(origins) == 0 {
		return []string{"*"}
	}

	return origins
}

// MissingVariables lists the required dispatch variables that are unset,
// in a stable order (token first, matching the status payload).
func (g GitHubConfig) MissingVariables() []string {
	missing := []string{}
	if g.Token == "" {
		missing = append(missing, EnvGitHubToken)
	}
	if g.Repo == "" {
		missing = append(missing, EnvGitHubRepo)
	}
	return missing
}

// Problems returns every reason a dispatch would be refused before leaving
// the process: missing variables plus a malformed control repository.
func (g GitHubConfig) Problems() []string {
	problems := g.MissingVariables()
	if g.Repo != "" && !validation.IsOwnerRepo(g.Repo) {
		problems = append(problems, EnvGitHubRepo+" must be in format owner/repo")
	}
	return problems
}

// Owner and Name split Repo. Call only after Problems() returned nothing.
func (g GitHubConfig) Owner() string {
	owner, _, _ := strings.Cut(g.Repo, "/")
	return owner
}

func (g GitHubConfig) Name() string {
	_, name, _ := strings.Cut(g.Repo, "/")
	return name
}

// Load reads, validates and returns the application configuration.
//
// Unlike LoadConfig it never exits the process; it is what tests call.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Plain variables. Returning "" as key skips the variable; empty values
	// are skipped too so `PORT=` keeps the default.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return plainEnvKeys[key], value
	}), nil); err != nil {
		return nil, errors.Wrap(err, "could not load plain env variables")
	}

	// Prefixed variables: PRTRIGGER_GITHUB__DISPATCH_TIMEOUT -> github.dispatch_timeout
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, "could not load prefixed env variables")
	}

	// Start from defaults; Unmarshal only overwrites keys that were set.
	mainConfig := DefaultConfig()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal main config")
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid observability config")
	}

	if !strings.HasSuffix(mainConfig.GitHub.APIURL, "/") {
		mainConfig.GitHub.APIURL += "/"
	}

	return mainConfig, nil
}

// LoadConfig is the startup entrypoint: it loads the configuration and exits
// the process on failure. Missing dispatch credentials only produce a warning.
func LoadConfig() *Config {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load configuration")
	}

	logger.Info().
		Str("env", cfg.Primary.Env).
		Str("port", cfg.Server.Port).
		Str("github_repo", cfg.GitHub.Repo).
		Bool("github_token_configured", cfg.GitHub.Token != "").
		Msg("configuration loaded")

	if problems := cfg.GitHub.Problems(); len(problems) > 0 {
		logger.Warn().
			Strs("problems", problems).
			Msg("dispatch is not configured; trigger requests will be refused until it is")
	}

	return cfg
}
