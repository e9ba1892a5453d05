package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// expands ${VAR} placeholders and applies defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return build(v)
}

func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	bindLegacyEnv(v)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyWorkerDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// bindLegacyEnv keeps the variable names the leasing deployment already
// exports working alongside the APP-style keys.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("services.leasing.url", "LEASING_URL")
	_ = v.BindEnv("database.postgres.user", "DB_USER")
	_ = v.BindEnv("database.postgres.password", "DB_PASSWORD")
}

func setDefaults(v *viper.Viper) {
	for key, value := range map[string]interface{}{
		"app.name":        "parkingspace-workers",
		"app.health_port": 8080,

		"camunda.max_jobs_active": 10,
		"camunda.timeout":         30000,
		"camunda.request_timeout": 30000,

		"services.leasing.timeout": 10000,

		"database.postgres.port":                      5432,
		"database.postgres.max_connections":           25,
		"database.postgres.max_idle":                  5,
		"database.postgres.sslmode":                   "disable",
		"database.elasticsearch.parking_spaces_index": "parking-spaces",

		"notifications.aws.region": "eu-north-1",

		"offers.expiry_days":                3,
		"offers.sibling_denial_concurrency": 4,
		"offers.guard_ttl_seconds":          60,
		"offers.batch_rate_per_second":      2.0,
		"offers.failure_role":               "dev",

		"scheduler.offer_batches":  "0 6 * * *",
		"scheduler.expired_offers": "*/15 * * * *",

		"logging.level":  "info",
		"logging.format": "json",
		"logging.output": "stdout",
	} {
		v.SetDefault(key, value)
	}
}

func applyWorkerDefaults(cfg *Config) {
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = defaultWorker.MaxJobsActive
		}
		if worker.Timeout == 0 {
			worker.Timeout = defaultWorker.Timeout
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = defaultWorker.MaxRetries
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig reports every missing or out-of-range setting at once.
func validateConfig(cfg *Config) error {
	var errs []error
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	require(cfg.Camunda.BrokerAddress != "", "camunda.broker_address is required")
	require(cfg.Services.Leasing.URL != "", "services.leasing.url is required")
	require(cfg.Database.Postgres.Host != "", "database.postgres.host is required")
	require(cfg.Database.Postgres.Database != "", "database.postgres.database is required")
	require(cfg.Database.Postgres.User != "", "database.postgres.user is required")
	require(cfg.Database.Elasticsearch.GetURL() != "", "database.elasticsearch.addresses or url is required")
	require(cfg.Database.Redis.Address != "", "database.redis.address is required")
	require(cfg.Offers.ExpiryDays >= 0, "offers.expiry_days must not be negative")
	require(cfg.Offers.SiblingDenialConcurrency >= 1, "offers.sibling_denial_concurrency must be at least 1")
	require(cfg.Offers.BatchRatePerSecond >= 0, "offers.batch_rate_per_second must not be negative")

	return errors.Join(errs...)
}

var defaultWorker = WorkerConfig{
	Enabled:       true,
	MaxJobsActive: 5,
	Timeout:       30000,
	MaxRetries:    1,
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return defaultWorker
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
