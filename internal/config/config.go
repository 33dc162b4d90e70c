// Package config loads runtime settings from the environment.
//
// An optional dotenv file is applied first (variables already present in
// the process environment win), then DB_*, LOG_* and EXPORT_* variables are
// mapped onto Config with koanf and checked with validator struct tags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const DefaultEnvFile = ".env"

type Config struct {
	Database DatabaseConfig `koanf:"db" validate:"required"`
	Log      LogConfig      `koanf:"log" validate:"required"`
	Export   ExportConfig   `koanf:"export" validate:"required"`
}

// DatabaseConfig is read from DB_USERNAME, DB_PASSWORD, DB_HOST, DB_PORT,
// DB_DATABASE and friends. For sqlite, Database is the file path.
type DatabaseConfig struct {
	Driver   string `koanf:"driver" validate:"oneof=postgres mysql mssql sqlite"`
	Username string `koanf:"username" validate:"required_unless=Driver sqlite"`
	Password string `koanf:"password"`
	Host     string `koanf:"host" validate:"required_unless=Driver sqlite"`
	Port     int    `koanf:"port" validate:"min=0,max=65535"`
	Database string `koanf:"database" validate:"required"`
	SSLMode  string `koanf:"sslmode"`
	// Params are extra driver options in query-string form (k=v&k2=v2).
	Params string `koanf:"params"`
}

// Addr is host:port, with IPv6 hosts bracketed.
func (c DatabaseConfig) Addr() string {
	if c.Driver == "sqlite" {
		return c.Database
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

type ExportConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// DefaultPort is the server's standard port, or 0 for sqlite and unknown
// drivers.
func DefaultPort(driver string) int {
	switch driver {
	case "postgres":
		return 5432
	case "mysql":
		return 3306
	case "mssql":
		return 1433
	default:
		return 0
	}
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:  "postgres",
			SSLMode: "disable",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Export: ExportConfig{
			Dir: "results",
		},
	}
}

// Load applies envFile (skipped when it does not exist) and builds a
// validated Config from the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")

	// DB_SSLMODE -> db.sslmode -> Config.Database.SSLMode
	for _, prefix := range []string{"DB_", "LOG_", "EXPORT_"} {
		section := strings.ToLower(strings.TrimSuffix(prefix, "_"))
		err := k.Load(env.Provider(prefix, ".", func(s string) string {
			return section + "." + strings.ToLower(strings.TrimPrefix(s, prefix))
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("read %s* variables: %w", prefix, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultPort(cfg.Database.Driver)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
