package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api" validate:"required"`
	Gin      *GinConfig      `mapstructure:"gin" validate:"required"`
	Store    *StoreConfig    `mapstructure:"store" validate:"required"`
	Postgres *PostgresConfig `mapstructure:"postgres" validate:"required"`
	Presence *PresenceConfig `mapstructure:"presence" validate:"required"`
	Chat     *ChatConfig     `mapstructure:"chat" validate:"required"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment" validate:"required,oneof=development staging production"`
	Port               string   `mapstructure:"port" validate:"required,numeric"`
	BaseURL            string   `mapstructure:"base_url" validate:"required"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode" validate:"required,oneof=debug release test"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the keyword/value connection string understood by pgx.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

// PresenceConfig drives the reaper: every ReapInterval it evicts participants
// whose last heartbeat is older than StaleAfter.
type PresenceConfig struct {
	ReapInterval time.Duration `mapstructure:"reap_interval" validate:"gt=0"`
	StaleAfter   time.Duration `mapstructure:"stale_after" validate:"gt=0"`
}

type ChatConfig struct {
	BroadcastTarget string `mapstructure:"broadcast_target" validate:"required"`
	JoinNotice      string `mapstructure:"join_notice" validate:"required"`
	LeaveNotice     string `mapstructure:"leave_notice" validate:"required"`

	// Zero means no upper bound on name length.
	MaxNameLength        int  `mapstructure:"max_name_length" validate:"gte=0"`
	ReserveBroadcastName bool `mapstructure:"reserve_broadcast_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "5000")
	v.SetDefault("api.base_url", "localhost:5000")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("presence.reap_interval", 15*time.Second)
	v.SetDefault("presence.stale_after", 10*time.Second)
	v.SetDefault("chat.broadcast_target", "Todos")
	v.SetDefault("chat.join_notice", "entra na sala...")
	v.SetDefault("chat.leave_notice", "sai da sala...")
	v.SetDefault("chat.max_name_length", 0)
	v.SetDefault("chat.reserve_broadcast_name", false)
}

// Load reads the yaml file at path, overlays environment variables such as
// API_PORT or STORE_DRIVER and validates the result.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if _, err := decode(v); err != nil {
			zap.L().Warn("config file changed but is invalid", zap.String("file", e.Name), zap.Error(err))
			return
		}
		zap.L().Info("config file changed, restart to apply", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return conf, nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var conf AppConfig
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := validator.New().Struct(&conf); err != nil {
		return nil, fmt.Errorf("invalid config -> %w", err)
	}

	return &conf, nil
}
