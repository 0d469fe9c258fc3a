package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig  `json:"server"`
	PRPC    PRPCConfig    `json:"prpc"`
	Credits CreditsConfig `json:"credits"`
	Polling PollingConfig `json:"polling"`
	Cache   CacheConfig   `json:"cache"`
	Redis   RedisConfig   `json:"redis"`
	GeoIP   GeoIPConfig   `json:"geoip"`
	MongoDB MongoDBConfig `json:"mongodb"`
	Summary SummaryConfig `json:"summary"`
	Discord DiscordConfig `json:"discord"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// PRPCConfig points at the seed-node JSON-RPC proxies, one per network.
type PRPCConfig struct {
	MainnetEndpoint string `json:"mainnet_endpoint"`
	DevnetEndpoint  string `json:"devnet_endpoint"`
	Timeout         int    `json:"timeout_seconds"`
	MaxRetries      int    `json:"max_retries"`
	BackoffBase     int    `json:"backoff_base_seconds"`
	BackoffCap      int    `json:"backoff_cap_seconds"`
}

type CreditsConfig struct {
	MainnetEndpoint string `json:"mainnet_endpoint"`
	DevnetEndpoint  string `json:"devnet_endpoint"`
	Timeout         int    `json:"timeout_seconds"`
	RefreshInterval int    `json:"refresh_interval_seconds"`
}

type PollingConfig struct {
	CycleInterval    int `json:"cycle_interval_seconds"`
	SnapshotInterval int `json:"snapshot_interval_seconds"`
}

type CacheConfig struct {
	TTL int `json:"ttl_seconds"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Enabled  bool   `json:"enabled"`
	UseTLS   bool   `json:"use_tls"`
}

type GeoIPConfig struct {
	DBPath string `json:"db_path"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
	Enabled  bool   `json:"enabled"`
}

type SummaryConfig struct {
	TTL int `json:"ttl_seconds"`
}

type DiscordConfig struct {
	BotToken  string `json:"bot_token"`
	ChannelID string `json:"channel_id"`
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		PRPC: PRPCConfig{
			MainnetEndpoint: "",
			DevnetEndpoint:  "",
			Timeout:         30,
			MaxRetries:      3,
			BackoffBase:     1,
			BackoffCap:      8,
		},
		Credits: CreditsConfig{
			MainnetEndpoint: "https://podcredits.xandeum.network/api/pods-credits",
			DevnetEndpoint:  "https://podcredits-devnet.xandeum.network/api/pods-credits",
			Timeout:         10,
			RefreshInterval: 30,
		},
		Polling: PollingConfig{
			CycleInterval:    30,
			SnapshotInterval: 300,
		},
		Cache: CacheConfig{
			TTL: 30,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			DB:      0,
			Enabled: false,
			UseTLS:  false,
		},
		GeoIP: GeoIPConfig{
			DBPath: "",
		},
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017",
			Database: "pnodewatch",
			Enabled:  false,
		},
		Summary: SummaryConfig{
			TTL: 3600,
		},
	}

	// Load from config file if exists
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err == nil {
			defer file.Close()
			decoder := json.NewDecoder(file)
			if err := decoder.Decode(cfg); err != nil {
				fmt.Printf("Warning: Failed to decode config file: %v\n", err)
			}
		}
	}

	// Environment variables override the config file
	loadEnv(cfg)

	// Command-line flags override everything
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var serverPort int
	var serverHost string

	fs.IntVar(&serverPort, "port", 0, "Server port")
	fs.StringVar(&serverHost, "host", "", "Server host")

	_ = fs.Parse(os.Args[1:])

	if isFlagPassed(fs, "port") {
		cfg.Server.Port = serverPort
	}
	if isFlagPassed(fs, "host") {
		cfg.Server.Host = serverHost
	}

	return cfg, nil
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadEnv(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.Server.AllowedOrigins = parts
	}

	if val := os.Getenv("PRPC_MAINNET_ENDPOINT"); val != "" {
		cfg.PRPC.MainnetEndpoint = val
	}
	if val := os.Getenv("PRPC_DEVNET_ENDPOINT"); val != "" {
		cfg.PRPC.DevnetEndpoint = val
	}
	if val := os.Getenv("PRPC_TIMEOUT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.Timeout = p
		}
	}
	if val := os.Getenv("PRPC_MAX_RETRIES"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.MaxRetries = p
		}
	}

	if val := os.Getenv("CREDITS_MAINNET_ENDPOINT"); val != "" {
		cfg.Credits.MainnetEndpoint = val
	}
	if val := os.Getenv("CREDITS_DEVNET_ENDPOINT"); val != "" {
		cfg.Credits.DevnetEndpoint = val
	}
	if val := os.Getenv("CREDITS_REFRESH_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Credits.RefreshInterval = p
		}
	}

	if val := os.Getenv("CYCLE_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Polling.CycleInterval = p
		}
	}
	if val := os.Getenv("SNAPSHOT_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Polling.SnapshotInterval = p
		}
	}

	if val := os.Getenv("CACHE_TTL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Cache.TTL = p
		}
	}

	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		cfg.Redis.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("REDIS_USE_TLS"); val != "" {
		cfg.Redis.UseTLS = val == "true" || val == "1"
	}

	if val := os.Getenv("GEOIP_DB_PATH"); val != "" {
		cfg.GeoIP.DBPath = val
	}

	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.MongoDB.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.MongoDB.Database = val
	}
	if val := os.Getenv("MONGODB_ENABLED"); val != "" {
		cfg.MongoDB.Enabled = val == "true" || val == "1"
	}

	if val := os.Getenv("SUMMARY_TTL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Summary.TTL = p
		}
	}

	if val := os.Getenv("DISCORD_BOT_TOKEN"); val != "" {
		cfg.Discord.BotToken = val
	}
	if val := os.Getenv("DISCORD_CHANNEL_ID"); val != "" {
		cfg.Discord.ChannelID = val
	}
}

// Helper methods for duration conversion
func (c *Config) PRPCTimeoutDuration() time.Duration {
	return time.Duration(c.PRPC.Timeout) * time.Second
}

func (c *Config) CreditsTimeoutDuration() time.Duration {
	return time.Duration(c.Credits.Timeout) * time.Second
}

func (c *Config) CycleIntervalDuration() time.Duration {
	return time.Duration(c.Polling.CycleInterval) * time.Second
}

func (c *Config) SnapshotIntervalDuration() time.Duration {
	return time.Duration(c.Polling.SnapshotInterval) * time.Second
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

func (c *Config) SummaryTTLDuration() time.Duration {
	return time.Duration(c.Summary.TTL) * time.Second
}

// PRPCEndpoint returns the proxy endpoint for a network filter.
func (c *Config) PRPCEndpoint(network string) string {
	if network == "devnet" {
		return c.PRPC.DevnetEndpoint
	}
	return c.PRPC.MainnetEndpoint
}

// CreditsEndpoint returns the credits API endpoint for a network.
func (c *Config) CreditsEndpoint(network string) string {
	if network == "devnet" {
		return c.Credits.DevnetEndpoint
	}
	return c.Credits.MainnetEndpoint
}
