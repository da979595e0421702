package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/natefinch/atomic"
	"github.com/pelletier/go-toml/v2"
)

type GoogleConfig struct {
	// Service account key used for the Sheets API.
	CredentialsFile string
	SpreadsheetID   string
	// Sheet the match and prepare commands work on.
	ActiveSheet string
	// Reported to Flow PTR as the user running the sync. Falls back to the
	// service account's client_email.
	UserEmail string
}

type FlowConfig struct {
	SyncURL string
	// Zero leaves the HTTP transport's own limits in charge.
	TimeoutSeconds int
}

type ServerConfig struct {
	ListenAddress string
}

type configStore struct {
	Google         GoogleConfig
	Flow           FlowConfig
	Server         ServerConfig
	PropertiesFile string
}

type Config struct {
	Filename string
	Store    configStore
}

// Save replaces the config file in one step, a crash mid-write leaves the
// previous file in place.
func (c *Config) Save() error {
	b, err := toml.Marshal(c.Store)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := atomic.WriteFile(c.Filename, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("write config %s: %w", c.Filename, err)
	}
	return nil
}

// Load reads the config file. Unknown keys are rejected so a misspelled
// setting is reported instead of silently falling back to its default.
func (c *Config) Load() error {
	b, err := os.ReadFile(c.Filename)
	if err != nil {
		return err
	}
	dec := toml.NewDecoder(bytes.NewReader(b)).DisallowUnknownFields()
	if err := dec.Decode(&c.Store); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config %s: %s", c.Filename, strict.String())
		}
		return fmt.Errorf("config %s: %w", c.Filename, err)
	}
	return nil
}

func (c *Config) Google() GoogleConfig { return c.Store.Google }
func (c *Config) Flow() FlowConfig     { return c.Store.Flow }
func (c *Config) Server() ServerConfig { return c.Store.Server }

func (c *Config) PropertiesFile() string { return c.Store.PropertiesFile }

func (c *Config) SyncTimeout() time.Duration {
	return time.Duration(c.Store.Flow.TimeoutSeconds) * time.Second
}

// New loads filename, writing a default file if none exists, then applies
// environment overrides and defaults.
func New(filename string) (*Config, error) {
	c := &Config{
		Filename: filename,
	}
	if err := c.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		c.setDefaults()
		if err := c.Save(); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	c.setDefaults()
	return c, nil
}

func (c *Config) setDefaults() {
	if c.Store.Google.ActiveSheet == "" {
		c.Store.Google.ActiveSheet = "Notes Back"
	}
	if c.Store.Server.ListenAddress == "" {
		c.Store.Server.ListenAddress = ":80"
	}
	if c.Store.PropertiesFile == "" {
		c.Store.PropertiesFile = "bakedtools.properties.toml"
	}
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"GOOGLE_APPLICATION_CREDENTIALS", &c.Store.Google.CredentialsFile},
		{"SPREADSHEET_ID", &c.Store.Google.SpreadsheetID},
		{"BAKED_USER_EMAIL", &c.Store.Google.UserEmail},
		{"FLOW_SYNC_URL", &c.Store.Flow.SyncURL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}
