package engine

import (
	"net/http"
	"time"
)

// ProviderConfig describes one configured ATS source.
type ProviderConfig struct {
	Kind   string   // greenhouse, lever, workday, generic
	Name   string   // registry name, unique
	Trust  int      // higher wins cross-provider dedup
	Boards []string // board tokens or career-page URLs, provider-specific
	Rate   float64  // requests per second, 0 = adapter default
}

// Config holds all engine configuration, injected from main.
type Config struct {
	HTTPClient      *http.Client
	UserAgent       string
	ProviderTimeout time.Duration // per (field, provider) task
	RequestDeadline time.Duration // whole aggregation request
	DedupeWindow    time.Duration // cross-provider "near-identical posting date" window
	MaxJobs         int           // cap on merged listings returned
	Providers       []ProviderConfig

	EnrichURL     string // Ollama-style endpoint, "" = disabled
	EnrichModel   string
	EnrichTimeout time.Duration

	CacheTTL        time.Duration
	CacheRedisURL   string // "" = L1 only
	CacheMaxEntries int
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (resume, ats, enrich).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.UserAgent == "" {
		c.UserAgent = UserAgentBot
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = 10 * time.Second
	}
	if c.RequestDeadline <= 0 {
		c.RequestDeadline = 25 * time.Second
	}
	if c.DedupeWindow <= 0 {
		c.DedupeWindow = 72 * time.Hour
	}
	if c.MaxJobs <= 0 {
		c.MaxJobs = 200
	}
	cfg = c
	Cfg = &cfg
}
