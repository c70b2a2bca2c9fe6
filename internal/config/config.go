package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Quiz struct {
		QuestionsPerQuiz int    `yaml:"questions_per_quiz"`
		TimeLimit        string `yaml:"time_limit"`
		TickInterval     string `yaml:"tick_interval"`
		CacheTTL         string `yaml:"cache_ttl"`
	} `yaml:"quiz"`
	Questions struct {
		CSV   string      `yaml:"csv"`
		Minio MinioConfig `yaml:"minio"`
	} `yaml:"questions"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Object    string `yaml:"object"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Defaults mirrors the values a fresh checkout runs with.
func Defaults() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Quiz.QuestionsPerQuiz = 8
	cfg.Quiz.TimeLimit = "15s"
	cfg.Quiz.TickInterval = "500ms"
	cfg.Quiz.CacheTTL = "10m"
	cfg.Questions.CSV = "data/questions.csv"
	cfg.SQLite.Path = "quizwhiz.db"
	cfg.AMQP.Exchange = "quizwhiz.events"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQP.URL = v
	}
	if v := os.Getenv("QUESTIONS_CSV"); v != "" {
		cfg.Questions.CSV = v
	}
	if v := os.Getenv("QUESTIONS_PER_QUIZ"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quiz.QuestionsPerQuiz = n
		}
	}
}

func (c Config) Validate() error {
	if c.Quiz.QuestionsPerQuiz <= 0 {
		return fmt.Errorf("quiz.questions_per_quiz must be positive, got %d", c.Quiz.QuestionsPerQuiz)
	}
	for name, raw := range map[string]string{
		"quiz.time_limit":    c.Quiz.TimeLimit,
		"quiz.tick_interval": c.Quiz.TickInterval,
	} {
		if Duration(raw, 0) <= 0 {
			return fmt.Errorf("%s must be a positive duration, got %q", name, raw)
		}
	}
	return nil
}

// TimeLimit is the per-question answer window.
func (c Config) TimeLimit() time.Duration {
	return Duration(c.Quiz.TimeLimit, 15*time.Second)
}

func (c Config) TickInterval() time.Duration {
	return Duration(c.Quiz.TickInterval, 500*time.Millisecond)
}

func (c Config) CacheTTL() time.Duration {
	return Duration(c.Quiz.CacheTTL, 10*time.Minute)
}

// RedisTTL bounds the session markers in Redis. Zero, the default, keeps them until the quiz is gone.
func (c Config) RedisTTL() time.Duration {
	return Duration(c.Redis.TTL, 0)
}

// Duration parses a duration string or returns the fallback if empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
