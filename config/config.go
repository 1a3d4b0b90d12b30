// Package config loads punchclock settings from defaults, a YAML file, a .env file,
// PUNCHCLOCK_* environment variables and optionally an SSM parameter, in that order.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"axiapac.com/punchclock/core"
	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/infrastructure/devops"
	"axiapac.com/punchclock/utils"
)

const envPrefix = "PUNCHCLOCK_"

type Config struct {
	Timezone string         `yaml:"timezone"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Punch    PunchConfig    `yaml:"punch"`
	Server   ServerConfig   `yaml:"server"`
	Export   ExportConfig   `yaml:"export"`
	Slack    SlackConfig    `yaml:"slack"`
	SSM      SSMConfig      `yaml:"ssm"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	// Driver is one of memory, file, mysql, s3.
	Driver         string `yaml:"driver"`
	Path           string `yaml:"path"`
	DSN            string `yaml:"dsn"`
	Schema         string `yaml:"schema"`
	MaxConnections int    `yaml:"maxConnections"`
	Bucket         string `yaml:"bucket"`
	Prefix         string `yaml:"prefix"`
}

type SecurityConfig struct {
	// TokenSecret is base64 encoded.
	TokenSecret string        `yaml:"tokenSecret"`
	TokenTTL    time.Duration `yaml:"tokenTTL"`
}

type PunchConfig struct {
	LocationTimeout time.Duration `yaml:"locationTimeout"`
	PhotoBucket     string        `yaml:"photoBucket"`
	PhotoPrefix     string        `yaml:"photoPrefix"`
	// Site restricts punches to a radius around a work location.
	Site *geo.Site `yaml:"site"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	AdminUser     string `yaml:"adminUser"`
	AdminPassword string `yaml:"adminPassword"`
	MaxUploadMB   int    `yaml:"maxUploadMB"`
}

type ExportConfig struct {
	Format    string   `yaml:"format"`
	Dir       string   `yaml:"dir"`
	Bucket    string   `yaml:"bucket"`
	Prefix    string   `yaml:"prefix"`
	EmailFrom string   `yaml:"emailFrom"`
	EmailTo   []string `yaml:"emailTo"`
}

type SlackConfig struct {
	Token        string `yaml:"token"`
	InfoChannel  string `yaml:"infoChannel"`
	ErrorChannel string `yaml:"errorChannel"`
}

type SSMConfig struct {
	// Parameter names a YAML document merged over the rest of the configuration.
	Parameter string `yaml:"parameter"`
}

func Default() *Config {
	return &Config{
		Timezone: "Local",
		Log:      LogConfig{Level: "info"},
		Storage: StorageConfig{
			Driver:         "file",
			Path:           "data/punchclock.json",
			MaxConnections: 5,
			Prefix:         "punchclock",
		},
		Punch: PunchConfig{
			LocationTimeout: 5 * time.Second,
			PhotoPrefix:     "photos",
		},
		Server: ServerConfig{Addr: ":8080", MaxUploadMB: 10},
		Export: ExportConfig{Format: "csv", Prefix: "exports"},
	}
}

// Loader reads configuration. The zero value reads the process environment and ./.env.
type Loader struct {
	// Path is an optional YAML file. A missing file is an error only when named explicitly.
	Path string
	// EnvFile defaults to ".env"; missing is fine.
	EnvFile string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Parameters is used for the SSM overlay; nil connects with the default AWS config.
	Parameters devops.ParameterAPI
}

func Load(ctx context.Context, path string) (*Config, error) {
	return Loader{Path: path}.Load(ctx)
}

func (l Loader) Load(ctx context.Context) (*Config, error) {
	cfg := Default()

	if l.Path != "" {
		b, err := os.ReadFile(l.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", l.Path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", l.Path, err)
		}
	}

	getenv, err := l.lookup()
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if cfg.SSM.Parameter != "" {
		client := l.Parameters
		if client == nil {
			if client, err = devops.Connect(ctx); err != nil {
				return nil, err
			}
		}
		if err := devops.LoadYAML(ctx, client, cfg.SSM.Parameter, cfg); err != nil {
			return nil, fmt.Errorf("failed to apply ssm overlay: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// lookup reads the environment first and the .env file second.
func (l Loader) lookup() (func(string) string, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	envFile := l.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv := map[string]string{}
	if _, err := os.Stat(envFile); err == nil {
		if dotenv, err = godotenv.Read(envFile); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
	}

	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"TIMEZONE":            &c.Timezone,
		"LOG_LEVEL":           &c.Log.Level,
		"STORAGE_DRIVER":      &c.Storage.Driver,
		"STORAGE_PATH":        &c.Storage.Path,
		"STORAGE_DSN":         &c.Storage.DSN,
		"STORAGE_SCHEMA":      &c.Storage.Schema,
		"STORAGE_BUCKET":      &c.Storage.Bucket,
		"STORAGE_PREFIX":      &c.Storage.Prefix,
		"TOKEN_SECRET":        &c.Security.TokenSecret,
		"PHOTO_BUCKET":        &c.Punch.PhotoBucket,
		"PHOTO_PREFIX":        &c.Punch.PhotoPrefix,
		"SERVER_ADDR":         &c.Server.Addr,
		"ADMIN_USER":          &c.Server.AdminUser,
		"ADMIN_PASSWORD":      &c.Server.AdminPassword,
		"EXPORT_FORMAT":       &c.Export.Format,
		"EXPORT_DIR":          &c.Export.Dir,
		"EXPORT_BUCKET":       &c.Export.Bucket,
		"EXPORT_PREFIX":       &c.Export.Prefix,
		"EXPORT_EMAIL_FROM":   &c.Export.EmailFrom,
		"SLACK_BOT_TOKEN":     &c.Slack.Token,
		"SLACK_INFO_CHANNEL":  &c.Slack.InfoChannel,
		"SLACK_ERROR_CHANNEL": &c.Slack.ErrorChannel,
		"SSM_PARAMETER":       &c.SSM.Parameter,
	}
	for name, field := range strs {
		if v := getenv(envPrefix + name); v != "" {
			*field = v
		}
	}

	durations := map[string]*time.Duration{
		"TOKEN_TTL":        &c.Security.TokenTTL,
		"LOCATION_TIMEOUT": &c.Punch.LocationTimeout,
	}
	for name, field := range durations {
		if v := getenv(envPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*field = d
		}
	}

	ints := map[string]*int{
		"STORAGE_MAX_CONNECTIONS": &c.Storage.MaxConnections,
		"SERVER_MAX_UPLOAD_MB":    &c.Server.MaxUploadMB,
	}
	for name, field := range ints {
		if v := getenv(envPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*field = n
		}
	}

	if v := getenv(envPrefix + "EXPORT_EMAIL_TO"); v != "" {
		c.Export.EmailTo = utils.Map(strings.Split(v, ","), strings.TrimSpace)
	}
	return nil
}

// Validate checks that each selected driver has what it needs.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory":
	case "file":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the file driver"))
		}
	case "mysql":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the mysql driver"))
		}
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	if c.Security.TokenSecret == "" {
		errs = append(errs, errors.New("security.tokenSecret is required"))
	}
	if c.Security.TokenTTL < 0 {
		errs = append(errs, errors.New("security.tokenTTL must not be negative"))
	}
	if _, err := utils.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, err)
	}
	if (c.Server.AdminUser == "") != (c.Server.AdminPassword == "") {
		errs = append(errs, errors.New("server.adminUser and server.adminPassword must be set together"))
	}
	if len(c.Export.EmailTo) > 0 && c.Export.EmailFrom == "" {
		errs = append(errs, errors.New("export.emailFrom is required when export.emailTo is set"))
	}
	if c.Export.Format != "csv" && c.Export.Format != "xlsx" {
		errs = append(errs, fmt.Errorf("unknown export.format %q", c.Export.Format))
	}
	return errors.Join(errs...)
}

func (c *Config) Location() *time.Location {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) LogLevel() core.LogLevel {
	return core.ParseLogLevel(c.Log.Level)
}

// Logger returns a text logger on stderr at the configured level.
func (c *Config) Logger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
