package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/smith3v/vocab-trainer/pkg/logger"
)

const EnvPrefix = "VOCAB_"

type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Telegram TelegramConfig `koanf:"telegram"`
	Logging  LoggingConfig  `koanf:"logging"`
	Training TrainingConfig `koanf:"training"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver" validate:"oneof=postgres sqlite"`
	Host     string `koanf:"host" validate:"required_if=Driver postgres"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname" validate:"required_if=Driver postgres"`
	Port     int    `koanf:"port" validate:"omitempty,gt=0,lt=65536"`
	SSLMode  string `koanf:"sslmode"`
	Path     string `koanf:"path" validate:"required_if=Driver sqlite"`
}

type TelegramConfig struct {
	Token string `koanf:"token" validate:"required"`
}

type LoggingConfig struct {
	Level     string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Format    string `koanf:"format" validate:"omitempty,oneof=text json"`
	File      string `koanf:"file"`
	GormLevel string `koanf:"gorm_level" validate:"omitempty,oneof=silent error warn info"`
}

type TrainingConfig struct {
	DailyNewCards    int           `koanf:"daily_new_cards" validate:"gte=0"`
	DailyReviewCards int           `koanf:"daily_review_cards" validate:"gte=0"`
	SessionTimeout   time.Duration `koanf:"session_timeout" validate:"gt=0"`
}

// DSN builds the driver-specific connection string.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" port=" + strconv.Itoa(c.Port) +
		" sslmode=" + c.SSLMode
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Path:    "vocab-trainer.db",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			GormLevel: "warn",
		},
		Training: TrainingConfig{
			DailyNewCards:    10,
			DailyReviewCards: 50,
			SessionTimeout:   24 * time.Hour,
		},
	}
}

// RegisterFlags declares the command-line overrides understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "config.json", "path to the configuration file")
	fs.String("database.driver", "", "database driver (postgres or sqlite)")
	fs.String("database.path", "", "sqlite database file")
	fs.String("telegram.token", "", "Telegram bot token")
	fs.String("logging.level", "", "log level (debug, info, warn, error)")
	fs.String("logging.file", "", "additional log file")
	fs.Int("training.daily_new_cards", 0, "default number of new cards per day")
	fs.Int("training.daily_review_cards", 0, "default number of reviews per day")
}

// Load layers defaults, the config file, VOCAB_* environment variables and changed
// flags, in that order, and validates the result. Nested env keys use a double
// underscore: VOCAB_DATABASE__HOST.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if strings.TrimSpace(path) != "" {
		// JSON documents are valid YAML, so config.json loads through the YAML parser.
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			logger.Error("failed to read config file", "path", path, "error", err)
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, changedFlag(flags)), nil); err != nil {
			return nil, fmt.Errorf("read flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

var ErrInvalidConfig = errors.New("invalid config")

func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			errs := make([]error, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// changedFlag keeps unset flags from overriding defaults with their zero values.
func changedFlag(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed || f.Name == "config" {
			return "", nil
		}
		return f.Name, posflag.FlagVal(fs, f)
	}
}
