package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SslMode  string
}

// DSN renders the connection string understood by the pgx-based gorm driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SslMode)
}

type Config struct {
	HTTPPort       int
	StorageBackend string
	DB             DBConfig

	// SeedFile is a JSON catalog loaded into the memory backend at startup.
	SeedFile string

	RabbitURL      string
	RabbitExchange string
	MongoURI       string
	MongoDB        string

	MaxDistanceKm       float64
	PlatformDeliveryFee decimal.Decimal
	// EtaSafetyMargin pins the ETA multiplier. Nil draws it from a PCG source seeded with EtaSeed.
	EtaSafetyMargin *float64
	EtaSeed         uint64
	SnapshotTimeout time.Duration
	RetrySchedule   string

	NotifyQueueSize int
	NotifyWorkers   int
	NotifyTimeout   time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration in order: defaults, .env if present, environment,
// then command line flags from args.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Warnf(".env not loaded: %v", err)
	}

	cfg := defaultConfig()
	if err := cfg.fromEnv(); err != nil {
		return Config{}, err
	}

	flags := pflag.NewFlagSet("dispatch", pflag.ContinueOnError)
	flags.IntVarP(&cfg.HTTPPort, "port", "p", cfg.HTTPPort, "port to listen on")
	flags.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "storage backend: postgres or memory")
	flags.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "catalog seed file for the memory backend")
	flags.Float64Var(&cfg.MaxDistanceKm, "max-distance-km", cfg.MaxDistanceKm, "courier search radius")
	flags.StringVar(&cfg.RetrySchedule, "retry-schedule", cfg.RetrySchedule, "cron schedule of the assignment retry job")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	setString(&c.DB.Host, "DB_HOST")
	setString(&c.DB.Port, "DB_PORT")
	setString(&c.DB.User, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")
	setString(&c.DB.Name, "DB_NAME")
	setString(&c.DB.SslMode, "DB_SSLMODE")
	setString(&c.StorageBackend, "STORAGE_BACKEND")
	setString(&c.SeedFile, "SEED_FILE")
	setString(&c.RabbitURL, "RABBIT_URL")
	setString(&c.RabbitExchange, "RABBIT_EXCHANGE")
	setString(&c.MongoURI, "MONGO_URI")
	setString(&c.MongoDB, "MONGO_DB")
	setString(&c.RetrySchedule, "ASSIGNMENT_RETRY_SCHEDULE")

	return errors.Join(
		setParsed(&c.HTTPPort, "HTTP_PORT", strconv.Atoi),
		setParsed(&c.MaxDistanceKm, "ASSIGNMENT_MAX_DISTANCE_KM", parseFloat),
		setParsed(&c.PlatformDeliveryFee, "PLATFORM_DELIVERY_FEE", decimal.NewFromString),
		setParsed(&c.EtaSafetyMargin, "ETA_SAFETY_MARGIN", parseFloatPtr),
		setParsed(&c.EtaSeed, "ETA_SEED", parseUint),
		setParsed(&c.SnapshotTimeout, "SNAPSHOT_TIMEOUT", time.ParseDuration),
		setParsed(&c.NotifyQueueSize, "NOTIFY_QUEUE_SIZE", strconv.Atoi),
		setParsed(&c.NotifyWorkers, "NOTIFY_WORKERS", strconv.Atoi),
		setParsed(&c.NotifyTimeout, "NOTIFY_TIMEOUT", time.ParseDuration),
		setParsed(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT", time.ParseDuration),
	)
}

func (c Config) Validate() error {
	var errList []error

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errList = append(errList, fmt.Errorf("invalid port: %d", c.HTTPPort))
	}
	if c.StorageBackend != BackendPostgres && c.StorageBackend != BackendMemory {
		errList = append(errList, fmt.Errorf("unknown storage backend %q", c.StorageBackend))
	}
	if c.MaxDistanceKm <= 0 {
		errList = append(errList, fmt.Errorf("max distance must be positive, got %v", c.MaxDistanceKm))
	}
	if c.PlatformDeliveryFee.IsNegative() {
		errList = append(errList, fmt.Errorf("platform delivery fee must not be negative, got %s", c.PlatformDeliveryFee))
	}
	if c.NotifyQueueSize <= 0 {
		errList = append(errList, fmt.Errorf("notify queue size must be positive, got %d", c.NotifyQueueSize))
	}

	return errors.Join(errList...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setParsed[T any](dst *T, key string, parse func(string) (T, error)) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}

	parsed, err := parse(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseFloatPtr(s string) (*float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
