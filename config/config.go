package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/systemcmd0122/developer-bot/version"
)

var cfg *Cfg

type Cfg struct {
	AppName string `yaml:"app_name"`
	Version string `yaml:"version"`
	Verbose bool   `yaml:"verbose"`

	Discord  Discord  `yaml:"discord"`
	Store    Store    `yaml:"store"`
	Gemini   Gemini   `yaml:"gemini"`
	Valorant Valorant `yaml:"valorant"`
	Health   Health   `yaml:"health"`
	Registry Registry `yaml:"registry"`
	Session  Session  `yaml:"session"`
}

type Discord struct {
	Token   string `yaml:"token"`
	GuildID string `yaml:"guild_id"`
	Verbose bool   `yaml:"verbose"`
	DryRun  bool   `yaml:"dry_run"`
}

type Store struct {
	// Engine selects the persistence backend: memory, redict or postgres.
	Engine   string   `yaml:"engine"`
	Redict   Redict   `yaml:"redict"`
	Postgres Postgres `yaml:"postgres"`
}

type Redict struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix"`
	TTL     int    `yaml:"ttl"`
}

type Postgres struct {
	URL string `yaml:"url"`
}

type Gemini struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type Valorant struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type Health struct {
	Port int `yaml:"port"`
}

type Registry struct {
	// RetentionHours is how long interaction records are kept before
	// the cleanup sweep drops them.
	RetentionHours int `yaml:"retention_hours"`
	// SweepIntervalMinutes is the cadence of the cleanup ticker.
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

type Session struct {
	// TimeoutSeconds is the default lifetime of an ephemeral session.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func Read(path string) error {
	_ = godotenv.Load()

	c := &Cfg{}

	fp, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err == nil {
		defer fp.Close()
		if err := yaml.NewDecoder(fp).Decode(c); err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	c.applyEnv()
	c.applyDefaults()

	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required")
	}

	cfg = c
	return nil
}

func Get() *Cfg {
	return cfg
}

func (c *Cfg) applyEnv() {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("GUILD_ID"); v != "" {
		c.Discord.GuildID = v
	}
	if v := os.Getenv("STORE_ENGINE"); v != "" {
		c.Store.Engine = v
	}
	if v := os.Getenv("REDICT_ADDRESS"); v != "" {
		c.Store.Redict.Address = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.Postgres.URL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("VALORANT_API_KEY"); v != "" {
		c.Valorant.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Health.Port = port
		}
	}
}

func (c *Cfg) applyDefaults() {
	if c.AppName == "" {
		c.AppName = "developer-bot"
	}
	if c.Version == "" {
		c.Version = version.Version()
	}
	if c.Store.Engine == "" {
		c.Store.Engine = "memory"
	}
	if c.Store.Redict.Prefix == "" {
		c.Store.Redict.Prefix = "devbot"
	}
	if c.Store.Redict.TTL == 0 {
		c.Store.Redict.TTL = 24 * 60
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Valorant.BaseURL == "" {
		c.Valorant.BaseURL = "https://api.henrikdev.xyz/valorant"
	}
	if c.Health.Port == 0 {
		c.Health.Port = 8080
	}
	if c.Registry.RetentionHours == 0 {
		c.Registry.RetentionHours = 24
	}
	if c.Registry.SweepIntervalMinutes == 0 {
		c.Registry.SweepIntervalMinutes = 60
	}
	if c.Session.TimeoutSeconds == 0 {
		c.Session.TimeoutSeconds = 300
	}
}
