package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/karjudev/dbgm/anonymize"
	"github.com/karjudev/dbgm/keywords"
)

// Config is the dbgm service configuration, loaded from YAML with
// environment overrides applied in main.
type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`

	DocumentsDB string `yaml:"documents_db"`
	SearchDB    string `yaml:"search_db"`
	Dictionary  string `yaml:"dictionary"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	NER struct {
		Endpoint string        `yaml:"endpoint"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"ner"`

	Anonymize struct {
		// Pointers so an omitted key means "redact", never "keep".
		RedactDates *bool `yaml:"redact_dates"`
		RedactMisc  *bool `yaml:"redact_misc"`
	} `yaml:"anonymize"`

	Keywords keywords.Options `yaml:"keywords"`

	Reconcile struct {
		Interval time.Duration `yaml:"interval"`
		Grace    time.Duration `yaml:"grace"`
	} `yaml:"reconcile"`

	// Users authorized to upload, list and delete. Password hashes are
	// bcrypt.
	Users []User `yaml:"users"`
}

// User is one Basic Auth principal.
type User struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DocumentsDB == "" {
		c.DocumentsDB = "db/documents.db"
	}
	if c.SearchDB == "" {
		c.SearchDB = "db/search.db"
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 32 * 1024 * 1024
	}
	if c.NER.Timeout <= 0 {
		c.NER.Timeout = 30 * time.Second
	}
	if c.Reconcile.Interval <= 0 {
		c.Reconcile.Interval = time.Hour
	}
	if c.Reconcile.Grace <= 0 {
		c.Reconcile.Grace = 10 * time.Minute
	}
}

// Policy returns the redaction policy; omitted keys redact.
func (c *Config) Policy() anonymize.Policy {
	p := anonymize.DefaultPolicy()
	if c.Anonymize.RedactDates != nil {
		p.RedactDates = *c.Anonymize.RedactDates
	}
	if c.Anonymize.RedactMisc != nil {
		p.RedactMisc = *c.Anonymize.RedactMisc
	}
	return p
}

// Validate checks the parts that must be present before startup.
func (c *Config) Validate() error {
	if c.NER.Endpoint == "" {
		return fmt.Errorf("ner.endpoint is required")
	}
	if c.Dictionary == "" {
		return fmt.Errorf("dictionary is required")
	}
	return nil
}

// LoadConfig reads a YAML config file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.defaults()
	return cfg, nil
}
