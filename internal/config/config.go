package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	Round2SourceCSV      = "csv"
	Round2SourcePostgres = "postgres"
)

type Config struct {
	Env             string     `yaml:"env" env:"ENV" env-default:"local"`
	SubmissionsPath string     `yaml:"submissions_path" env:"SUBMISSIONS_PATH" env-default:"sample_submissions.csv"`
	Round2          Round2     `yaml:"round2"`
	Dispatch        Dispatch   `yaml:"dispatch"`
	Tasks           Tasks      `yaml:"tasks"`
	TaskDB          TaskDB     `yaml:"task_db"`
	HTTPServer      HTTPServer `yaml:"http_server"`
	Receiver        Receiver   `yaml:"receiver"`
	Redis           Redis      `yaml:"redis"`
}

type Round2 struct {
	Source string `yaml:"source" env:"ROUND2_SOURCE" env-default:"csv"`
	Path   string `yaml:"path" env:"ROUND2_PATH" env-default:"round1_tasks.csv"`
}

type Dispatch struct {
	Timeout time.Duration `yaml:"timeout" env:"DISPATCH_TIMEOUT" env-default:"20s"`
}

// Tasks controls payload construction. Round 1 carries an empty attachments
// list unless omitted; round 2 carries none unless included. Both flags are
// false by default since cleanenv replaces a zero value with env-default.
type Tasks struct {
	DigestLength             int  `yaml:"digest_length" env:"TASK_DIGEST_LENGTH" env-default:"6"`
	OmitRound1Attachments    bool `yaml:"omit_round1_attachments" env:"ROUND1_OMIT_ATTACHMENTS"`
	IncludeRound2Attachments bool `yaml:"include_round2_attachments" env:"ROUND2_ATTACHMENTS"`
}

// TaskDB is the ledger of issued round 1 tasks. Empty DSN disables it.
type TaskDB struct {
	DSN string `yaml:"dsn" env:"TASK_DB_DSN"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_SERVER_ADDRESS" env-default:"0.0.0.0:3000"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"120s"`
}

type Receiver struct {
	ExpectedSecret string   `yaml:"expected_secret" env:"EXPECTED_SECRET"`
	WorkDir        string   `yaml:"work_dir" env:"WORK_DIR" env-default:"./workdir"`
	PublicBaseURL  string   `yaml:"public_base_url" env:"PUBLIC_BASE_URL" env-default:"http://localhost:3000"`
	CORSOrigins    []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"*" env-separator:","`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" env-default:"10485760"`
}

// Redis backs nonce deduplication on the receiver. Empty Addr means in-memory.
type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	NonceTTL time.Duration `yaml:"nonce_ttl" env:"NONCE_TTL" env-default:"24h"`
}

// Load reads .env (if present), then the YAML file at CONFIG_PATH (if
// present), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	return cfg
}

// Ledger names where round 1 records issued tasks and round 2 reads them
// back. Both binaries go through it so they always agree.
func (c *Config) Ledger() string {
	return c.Round2.Source
}

func (c *Config) validate() error {
	switch c.Round2.Source {
	case Round2SourceCSV, Round2SourcePostgres:
	default:
		return fmt.Errorf("round2 source %q: want %q or %q", c.Round2.Source, Round2SourceCSV, Round2SourcePostgres)
	}
	if c.Round2.Source == Round2SourcePostgres && c.TaskDB.DSN == "" {
		return errors.New("round2 source postgres requires TASK_DB_DSN")
	}
	if c.Round2.Source == Round2SourceCSV && c.Round2.Path == "" {
		return errors.New("round2 source csv requires ROUND2_PATH")
	}
	if c.Dispatch.Timeout <= 0 {
		return fmt.Errorf("dispatch timeout must be positive, got %s", c.Dispatch.Timeout)
	}
	return nil
}
