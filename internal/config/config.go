package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/lift-log/internal/domain"

	"github.com/spf13/viper"
)

// Storage backends accepted by store.backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend      string `mapstructure:"backend"` // memory, redis or mongo
	MemorySizeMB int    `mapstructure:"memory_size_mb"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Enabled reports whether history exports can be uploaded.
func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	Stdout bool   `mapstructure:"stdout"`
	JSON   bool   `mapstructure:"json"`
}

// DefaultExercise is one entry of the catalog every new user starts with.
type DefaultExercise struct {
	Name     string `mapstructure:"name"`
	Category string `mapstructure:"category"`
}

type CatalogConfig struct {
	Defaults []DefaultExercise `mapstructure:"defaults"`
}

// BuiltinDefaultExercises is used when the config does not list catalog defaults.
var BuiltinDefaultExercises = []DefaultExercise{
	{Name: "Ab wheel", Category: "Reps"},
	{Name: "Archer curl", Category: "Arms"},
	{Name: "Arnold press", Category: "Shoulders"},
	{Name: "Assisted chin up", Category: "Back, Arms"},
	{Name: "Assisted Dip", Category: "Chest, Arms"},
	{Name: "Assisted pull up", Category: "Back"},
	{Name: "Back extension", Category: "Lower Back"},
}

// Definitions validates the configured defaults and converts them into
// exercise definitions.
func (c CatalogConfig) Definitions() ([]domain.ExerciseDefinition, error) {
	defaults := c.Defaults
	if len(defaults) == 0 {
		defaults = BuiltinDefaultExercises
	}

	defs := make([]domain.ExerciseDefinition, 0, len(defaults))
	for i, d := range defaults {
		def, err := domain.NewExerciseDefinition(d.Name, d.Category)
		if err != nil {
			return nil, fmt.Errorf("catalog default #%d: %w", i, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Validate checks cross-field constraints viper cannot express.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	return nil
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.memory_size_mb", 16)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "lift_log")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.stdout", true)
	v.SetDefault("log.json", false)

	err = v.ReadInConfig()
	// A missing config file is fine, defaults and env vars still apply.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return config, err
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, err
	}
	config.Store.Backend = strings.ToLower(config.Store.Backend)

	return config, config.Validate()
}
