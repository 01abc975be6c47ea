package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   HTTPServerConfig `json:"server"`
	LLM      LLMConfig        `json:"llm"`
	Template TemplateConfig   `json:"template"`
	Mongo    MongoConfig      `json:"mongo"`
	Metrics  MetricsConfig    `json:"metrics"`
}

type HTTPServerConfig struct {
	Host         string        `json:"host" default:"0.0.0.0"`
	Port         int           `json:"port" default:"8080"`
	ReadTimeout  time.Duration `json:"read_timeout" default:"120s"`
	WriteTimeout time.Duration `json:"write_timeout" default:"120s"`
}

type LLMConfig struct {
	APIKey  string        `json:"api_key" required:"true"`
	BaseURL string        `json:"base_url" default:"https://api.openai.com/v1"`
	Model   string        `json:"model" default:"gpt-4-0314"`
	Timeout time.Duration `json:"timeout" default:"60s"`
}

type TemplateConfig struct {
	Dir  string `json:"dir" default:"./templates"`
	Name string `json:"name" default:"adder.rs"`
}

// MongoConfig enables the generation history when URI is set.
type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database" default:"contractgen"`
}

func (c MongoConfig) Enabled() bool {
	return c.URI != ""
}

type MetricsConfig struct {
	Addr string `json:"addr" default:":2112"`
}

func Default() *Config {
	return &Config{
		Server: HTTPServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  120 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4-0314",
			Timeout: 60 * time.Second,
		},
		Template: TemplateConfig{
			Dir:  "./templates",
			Name: "adder.rs",
		},
		Mongo: MongoConfig{
			Database: "contractgen",
		},
		Metrics: MetricsConfig{
			Addr: ":2112",
		},
	}
}

// Load builds the configuration from defaults, then the optional HCL file at
// path, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY env variable is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm timeout must be positive, got %s", c.LLM.Timeout))
	}
	if c.Template.Name == "" {
		errs = append(errs, errors.New("template name is required"))
	}
	if c.Mongo.Enabled() && c.Mongo.Database == "" {
		errs = append(errs, errors.New("mongo database is required when mongo uri is set"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() error {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.Template.Dir = getEnv("TEMPLATE_DIR", c.Template.Dir)
	c.Template.Name = getEnv("TEMPLATE_NAME", c.Template.Name)
	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DB", c.Mongo.Database)
	c.Metrics.Addr = getEnv("METRICS_ADDR", c.Metrics.Addr)

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("OPENAI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse OPENAI_TIMEOUT: %w", err)
		}
		c.LLM.Timeout = d
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
