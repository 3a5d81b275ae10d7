// Package config loads artic-table settings from flags, ARTIC_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/Sternrassler/artic-table/pkg/client"
	"github.com/Sternrassler/artic-table/pkg/logging"
	"github.com/Sternrassler/artic-table/pkg/pagination"
	"github.com/Sternrassler/artic-table/pkg/table"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "ARTIC"

// Keys.
const (
	KeyConfigFile = "config"
	KeyBaseURL    = "base_url"
	KeyUserAgent  = "user_agent"
	KeyTimeout    = "timeout"
	KeyLimit      = "limit"
	KeyRows       = "rows"
	KeyMaxPages   = "max_pages"
	KeyRedisAddr  = "redis_addr"
	KeyRedisDB    = "redis_db"
	KeyLogLevel   = "log_level"
	KeyLogFile    = "log_file"
	KeyLogPretty  = "log_pretty"
	KeyListen     = "listen"
)

// Settings is the validated runtime configuration.
type Settings struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	UserAgent string        `mapstructure:"user_agent" validate:"required"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Limit     int           `mapstructure:"limit" validate:"gte=0,lte=100"`
	Rows      int           `mapstructure:"rows" validate:"gte=1,lte=100"`
	MaxPages  int           `mapstructure:"max_pages" validate:"gte=0"`
	RedisAddr string        `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisDB   int           `mapstructure:"redis_db" validate:"gte=0,lte=15"`
	LogLevel  string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFile   string        `mapstructure:"log_file"`
	LogPretty bool          `mapstructure:"log_pretty"`
	Listen    string        `mapstructure:"listen" validate:"required,hostname_port"`
}

var validate = validator.New()

// errorMessages maps validation tags to messages.
var errorMessages = map[string]string{
	"required":      "%s is required",
	"url":           "%s must be an absolute URL",
	"gt":            "%s must be greater than %s",
	"gte":           "%s must be at least %s",
	"lte":           "%s must be at most %s",
	"oneof":         "%s must be one of [%s]",
	"hostname_port": "%s must be host:port",
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, client.DefaultBaseURL)
	v.SetDefault(KeyUserAgent, "artic-table/0.1.0")
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyLimit, 0)
	v.SetDefault(KeyRows, table.DefaultRows)
	v.SetDefault(KeyMaxPages, 0)
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyLogLevel, string(logging.LevelInfo))
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogPretty, false)
	v.SetDefault(KeyListen, ":8080")
}

// Load resolves settings from v. Flags must already be bound. When the
// config key names a file it is read first; env vars and flags override it.
func Load(v *viper.Viper) (*Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks s and returns one error listing every invalid field.
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	st := reflect.TypeOf(*s)
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := fe.StructField()
		if f, ok := st.FieldByName(fe.StructField()); ok {
			if tag := f.Tag.Get("mapstructure"); tag != "" {
				name = tag
			}
		}
		msgs = append(msgs, parseMessage(name, fe))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func parseMessage(name string, fe validator.FieldError) string {
	msg, ok := errorMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, name, fe.Param())
	}
	return fmt.Sprintf(msg, name)
}

// RedisOptions returns the options for the revalidation store, or nil when
// no address is configured.
func (s *Settings) RedisOptions() *redis.Options {
	if s.RedisAddr == "" {
		return nil
	}
	return &redis.Options{Addr: s.RedisAddr, DB: s.RedisDB}
}

// ClientConfig returns the catalog client configuration. rdb may be nil.
func (s *Settings) ClientConfig(rdb *redis.Client) client.Config {
	cfg := client.DefaultConfig(s.UserAgent)
	cfg.BaseURL = s.BaseURL
	cfg.Timeout = s.Timeout
	cfg.Limit = s.Limit
	cfg.Redis = rdb
	return cfg
}

// TableConfig returns the controller configuration.
func (s *Settings) TableConfig() table.Config {
	return table.Config{
		Rows: s.Rows,
		Walker: pagination.Config{
			MaxPages: s.MaxPages,
			Timeout:  s.Timeout,
		},
	}
}

// LoggingConfig returns the logger configuration.
func (s *Settings) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(s.LogLevel)
	cfg.Pretty = s.LogPretty
	cfg.File = s.LogFile
	return cfg
}
