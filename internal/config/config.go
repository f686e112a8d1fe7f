package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeDev  = "DEV"
	ModeTest = "TEST"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DSN builds a pgx connection string from the config.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name,
	)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type Config struct {
	Mode   string       `yaml:"mode"`
	DB     DBConfig     `yaml:"db"`
	TestDB DBConfig     `yaml:"test_db"`
	Redis  RedisConfig  `yaml:"redis"`
	MQ     MQConfig     `yaml:"mq"`
	JWT    JWTConfig    `yaml:"jwt"`
	Server ServerConfig `yaml:"server"`
}

// Database returns the connection config selected by MODE: the test
// database when MODE=TEST, the main database otherwise.
func (c *Config) Database() DBConfig {
	if c.Mode == ModeTest {
		return c.TestDB
	}
	return c.DB
}

// Load reads the yaml config file and applies environment overrides.
// A .env file in the working directory is loaded first, if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = "config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if mode := os.Getenv("MODE"); mode != "" {
		cfg.Mode = mode
	}

	overrideDB(&cfg.DB, "DB")
	overrideDB(&cfg.TestDB, "TEST_DB")

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
}

func overrideDB(cfg *DBConfig, prefix string) {
	if host := os.Getenv(prefix + "_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv(prefix + "_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv(prefix + "_USER"); user != "" {
		cfg.User = user
	}
	// DB_PASSWORD is accepted as an alias, DB_PASS wins.
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if password := os.Getenv(prefix + "_PASS"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv(prefix + "_NAME"); name != "" {
		cfg.Name = name
	}
}
