package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"parceltrack/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	BridgeNone     = "none"
	BridgePostgres = "postgres"
	BridgeRedis    = "redis"
)

type Config struct {
	HTTPPort      string `mapstructure:"http_port"`
	StorageDriver string `mapstructure:"storage_driver"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSslMode  string `mapstructure:"db_sslmode"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	RealtimeBridge   string `mapstructure:"realtime_bridge"`
	RedisAddr        string `mapstructure:"redis_addr"`
	SubscriberBuffer int    `mapstructure:"subscriber_buffer"`

	KafkaBrokers           string `mapstructure:"kafka_brokers"`
	KafkaParcelEventsTopic string `mapstructure:"kafka_parcel_events_topic"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	SMTPFrom     string `mapstructure:"smtp_from"`

	ExportS3Bucket string `mapstructure:"export_s3_bucket"`
	ExportS3Region string `mapstructure:"export_s3_region"`
	ExportS3Prefix string `mapstructure:"export_s3_prefix"`

	IdempotencyTTL           time.Duration `mapstructure:"idempotency_ttl"`
	IdempotencyPurgeSchedule string        `mapstructure:"idempotency_purge_schedule"`
}

var defaults = map[string]any{
	"http_port":                  "8080",
	"storage_driver":             StoragePostgres,
	"db_host":                    "localhost",
	"db_port":                    "5432",
	"db_user":                    "postgres",
	"db_password":                "",
	"db_name":                    "parceltrack",
	"db_sslmode":                 "disable",
	"log_level":                  "info",
	"log_format":                 "json",
	"realtime_bridge":            BridgeNone,
	"redis_addr":                 "localhost:6379",
	"subscriber_buffer":          16,
	"kafka_brokers":              "",
	"kafka_parcel_events_topic":  "parcel-events",
	"smtp_host":                  "",
	"smtp_port":                  587,
	"smtp_user":                  "",
	"smtp_password":              "",
	"smtp_from":                  "",
	"export_s3_bucket":           "",
	"export_s3_region":           "",
	"export_s3_prefix":           "exports",
	"idempotency_ttl":            "24h",
	"idempotency_purge_schedule": "0 0 * * * *",
}

// LoadConfig reads .env (when present) into the process environment, then resolves
// every key from the optional config file and the environment. Environment wins.
func LoadConfig(cfgFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}

	config.StorageDriver = strings.ToLower(strings.TrimSpace(config.StorageDriver))
	config.RealtimeBridge = strings.ToLower(strings.TrimSpace(config.RealtimeBridge))
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.HTTPPort == "" {
		return errs.NewValueIsRequiredError("HTTP_PORT")
	}
	switch c.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return errs.NewValueIsInvalidError("STORAGE_DRIVER")
	}
	switch c.RealtimeBridge {
	case BridgeNone, BridgeRedis:
	case BridgePostgres:
		if c.StorageDriver != StoragePostgres {
			return errs.NewValueIsInvalidErrorWithCause("REALTIME_BRIDGE",
				errors.New("the postgres bridge needs the postgres storage driver"))
		}
	default:
		return errs.NewValueIsInvalidError("REALTIME_BRIDGE")
	}
	if c.IdempotencyTTL <= 0 {
		return errs.NewValueIsInvalidError("IDEMPOTENCY_TTL")
	}
	if c.SubscriberBuffer <= 0 {
		return errs.NewValueIsInvalidError("SUBSCRIBER_BUFFER")
	}
	return nil
}

// DSN is the libpq connection string shared by gorm and the LISTEN connection.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}
