// Package config loads settings for the gsearch binaries from an optional
// YAML file, then applies environment overrides and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gsearch/common"
	"gsearch/internal/models"
)

// EnvConfigPath names the variable holding the YAML file path.
const EnvConfigPath = "GSEARCH_CONFIG"

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Search SearchConfig `yaml:"search"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Redis  RedisConfig  `yaml:"redis"`
	Neo4j  Neo4jConfig  `yaml:"neo4j"`
	API    APIConfig    `yaml:"api"`
	Worker WorkerConfig `yaml:"worker"`
	Graph  GraphConfig  `yaml:"graph"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type SearchConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Language     string        `yaml:"language"`
	Referer      string        `yaml:"referer"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	ProxyURL     string        `yaml:"proxy_url"`
	ProxyPool    string        `yaml:"proxy_pool"`
	DefaultCount int           `yaml:"default_count"`
	// MaxPerCall overrides the per-type page ceiling, keyed by search type.
	MaxPerCall map[string]int `yaml:"max_per_call"`
	Breaker    BreakerConfig  `yaml:"breaker"`
}

type BreakerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MaxRequests  uint32        `yaml:"max_requests"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	MinRequests  uint32        `yaml:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio"`
}

type KafkaConfig struct {
	Broker       string `yaml:"broker"`
	JobsTopic    string `yaml:"jobs_topic"`
	ResultsTopic string `yaml:"results_topic"`
	DLQTopic     string `yaml:"dlq_topic"`
	WorkerGroup  string `yaml:"worker_group"`
	GraphGroup   string `yaml:"graph_group"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	StatusTTL time.Duration `yaml:"status_ttl"`
	DedupeTTL time.Duration `yaml:"dedupe_ttl"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

type WorkerConfig struct {
	ConcurrentJobs int           `yaml:"concurrent_jobs"`
	JobTimeout     time.Duration `yaml:"job_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
	MetricsAddr    string        `yaml:"metrics_addr"`
}

type GraphConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load reads path (or $GSEARCH_CONFIG when path is empty), applies
// environment overrides, then fills defaults. A missing path is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = common.GetEnv(EnvConfigPath, "")
	}
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg = cfg.withEnv().WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withEnv() Config {
	c.Log.Level = common.GetEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Development = common.ParseBool(common.GetEnv("LOG_DEVELOPMENT", ""), c.Log.Development)

	c.Search.BaseURL = common.GetEnv("GSEARCH_BASE_URL", c.Search.BaseURL)
	c.Search.APIKey = common.GetEnv("GSEARCH_API_KEY", c.Search.APIKey)
	c.Search.Language = common.GetEnv("GSEARCH_LANGUAGE", c.Search.Language)
	c.Search.Referer = common.GetEnv("GSEARCH_REFERER", c.Search.Referer)
	c.Search.Timeout = common.ParseDuration(common.GetEnv("GSEARCH_TIMEOUT", ""), c.Search.Timeout)
	c.Search.ProxyURL = common.GetEnv("PROXY_URL", c.Search.ProxyURL)
	c.Search.ProxyPool = common.GetEnv("PROXY_POOL", c.Search.ProxyPool)
	c.Search.Breaker.Enabled = common.ParseBool(common.GetEnv("GSEARCH_BREAKER", ""), c.Search.Breaker.Enabled)

	c.Kafka.Broker = common.GetEnv("KAFKA_BROKER", c.Kafka.Broker)
	c.Kafka.JobsTopic = common.GetEnv("KAFKA_JOBS_TOPIC", c.Kafka.JobsTopic)
	c.Kafka.ResultsTopic = common.GetEnv("KAFKA_RESULTS_TOPIC", c.Kafka.ResultsTopic)
	c.Kafka.DLQTopic = common.GetEnv("KAFKA_DLQ_TOPIC", c.Kafka.DLQTopic)
	c.Kafka.WorkerGroup = common.GetEnv("KAFKA_GROUP_ID", c.Kafka.WorkerGroup)
	c.Kafka.GraphGroup = common.GetEnv("KAFKA_RESULTS_GROUP", c.Kafka.GraphGroup)

	c.Redis.Addr = common.GetEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.StatusTTL = common.ParseDuration(common.GetEnv("STATUS_TTL", ""), c.Redis.StatusTTL)
	c.Redis.DedupeTTL = common.ParseDuration(common.GetEnv("DEDUPE_TTL", ""), c.Redis.DedupeTTL)

	c.Neo4j.URI = common.GetEnv("NEO4J_URI", c.Neo4j.URI)
	c.Neo4j.User = common.GetEnv("NEO4J_USER", c.Neo4j.User)
	c.Neo4j.Password = common.GetEnv("NEO4J_PASSWORD", c.Neo4j.Password)

	c.API.Addr = common.GetEnv("API_ADDR", c.API.Addr)

	c.Worker.ConcurrentJobs = common.ParseInt(common.GetEnv("CONCURRENT_JOBS", ""), c.Worker.ConcurrentJobs)
	c.Worker.JobTimeout = common.ParseDuration(common.GetEnv("JOB_TIMEOUT", ""), c.Worker.JobTimeout)
	c.Worker.PublishTimeout = common.ParseDuration(common.GetEnv("PUBLISH_TIMEOUT", ""), c.Worker.PublishTimeout)
	c.Worker.MetricsAddr = common.GetEnv("METRICS_ADDR", c.Worker.MetricsAddr)
	c.Graph.MetricsAddr = common.GetEnv("GRAPH_METRICS_ADDR", c.Graph.MetricsAddr)
	return c
}

// WithDefaults fills every unset field.
func (c Config) WithDefaults() Config {
	setDefault(&c.Log.Level, "info")

	setDefault(&c.Search.UserAgent, "gsearch/1.0")
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 30 * time.Second
	}
	if c.Search.DefaultCount <= 0 {
		c.Search.DefaultCount = 8
	}
	c.Search.Breaker = c.Search.Breaker.withDefaults()

	setDefault(&c.Kafka.Broker, "localhost:9092")
	setDefault(&c.Kafka.JobsTopic, "gsearch.search.jobs")
	setDefault(&c.Kafka.ResultsTopic, "gsearch.search.results")
	setDefault(&c.Kafka.DLQTopic, "gsearch.search.dlq")
	setDefault(&c.Kafka.WorkerGroup, "gsearch-worker")
	setDefault(&c.Kafka.GraphGroup, "gsearch-graph-results")

	setDefault(&c.Redis.Addr, "localhost:6379")
	if c.Redis.StatusTTL <= 0 {
		c.Redis.StatusTTL = 24 * time.Hour
	}
	if c.Redis.DedupeTTL <= 0 {
		c.Redis.DedupeTTL = 24 * time.Hour
	}

	setDefault(&c.Neo4j.URI, "neo4j://localhost:7687")
	setDefault(&c.Neo4j.User, "neo4j")
	setDefault(&c.Neo4j.Password, "neo4j")

	setDefault(&c.API.Addr, ":8080")

	if c.Worker.ConcurrentJobs < 1 {
		c.Worker.ConcurrentJobs = 5
	}
	if c.Worker.JobTimeout <= 0 {
		c.Worker.JobTimeout = 5 * time.Minute
	}
	if c.Worker.PublishTimeout <= 0 {
		c.Worker.PublishTimeout = 90 * time.Second
	}
	setDefault(&c.Worker.MetricsAddr, ":9090")
	setDefault(&c.Graph.MetricsAddr, ":9091")
	return c
}

func (b BreakerConfig) withDefaults() BreakerConfig {
	if b.MaxRequests == 0 {
		b.MaxRequests = 1
	}
	if b.Interval <= 0 {
		b.Interval = 30 * time.Second
	}
	if b.Timeout <= 0 {
		b.Timeout = 15 * time.Second
	}
	if b.MinRequests == 0 {
		b.MinRequests = 5
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		b.FailureRatio = 0.6
	}
	return b
}

// Validate rejects settings that cannot be used.
func (c Config) Validate() error {
	var errs []error
	for name, n := range c.Search.MaxPerCall {
		if _, ok := models.ParseSearchType(name); !ok {
			errs = append(errs, fmt.Errorf("search.max_per_call: unknown search type %q", name))
			continue
		}
		if n <= 0 {
			errs = append(errs, fmt.Errorf("search.max_per_call.%s: must be positive", name))
		}
	}
	if c.Search.ProxyURL != "" && !strings.Contains(c.Search.ProxyURL, "://") {
		errs = append(errs, fmt.Errorf("search.proxy_url: %q is not a URL", c.Search.ProxyURL))
	}
	return errors.Join(errs...)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
