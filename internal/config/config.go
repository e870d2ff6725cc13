package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	NATS        NATSConfig        `yaml:"nats"`
	MinIO       MinIOConfig       `yaml:"minio"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Vision      VisionConfig      `yaml:"vision"`
	Retention   RetentionConfig   `yaml:"retention"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// RecognitionConfig holds the deployment-tunable policy for the
// recognition and attendance engine.
type RecognitionConfig struct {
	MatchThreshold      float64       `yaml:"match_threshold"`
	MatchCooldown       time.Duration `yaml:"match_cooldown"`
	UnknownFaceThrottle time.Duration `yaml:"unknown_face_throttle"`
	MinDwell            time.Duration `yaml:"min_dwell"`
	Timezone            string        `yaml:"timezone"`
	DescriptorDim       int           `yaml:"descriptor_dim"`
}

// Location resolves the configured IANA zone used for calendar-day keys.
func (r RecognitionConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "UTC" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}

type VisionConfig struct {
	ModelPath   string `yaml:"model_path"`
	InputWidth  int    `yaml:"input_width"`
	InputHeight int    `yaml:"input_height"`
}

type RetentionConfig struct {
	UnknownFacesMaxAge time.Duration `yaml:"unknown_faces_max_age"`
	SweepInterval      time.Duration `yaml:"sweep_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Recognition.MatchThreshold == 0 {
		cfg.Recognition.MatchThreshold = 0.6
	}
	if cfg.Recognition.MatchCooldown == 0 {
		cfg.Recognition.MatchCooldown = 30 * time.Second
	}
	if cfg.Recognition.UnknownFaceThrottle == 0 {
		cfg.Recognition.UnknownFaceThrottle = 30 * time.Second
	}
	if cfg.Recognition.MinDwell == 0 {
		cfg.Recognition.MinDwell = time.Hour
	}
	if cfg.Recognition.Timezone == "" {
		cfg.Recognition.Timezone = "UTC"
	}
	if cfg.Recognition.DescriptorDim == 0 {
		cfg.Recognition.DescriptorDim = 128
	}
	if cfg.Vision.InputWidth == 0 {
		cfg.Vision.InputWidth = 112
	}
	if cfg.Vision.InputHeight == 0 {
		cfg.Vision.InputHeight = 112
	}
	if cfg.Retention.UnknownFacesMaxAge == 0 {
		cfg.Retention.UnknownFacesMaxAge = 30 * 24 * time.Hour
	}
	if cfg.Retention.SweepInterval == 0 {
		cfg.Retention.SweepInterval = time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ATTEND_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ATTEND_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("ATTEND_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("ATTEND_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("ATTEND_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("ATTEND_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("ATTEND_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("ATTEND_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("ATTEND_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("ATTEND_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("ATTEND_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("ATTEND_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("ATTEND_MATCH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Recognition.MatchThreshold = f
		}
	}
	if v := os.Getenv("ATTEND_MATCH_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recognition.MatchCooldown = d
		}
	}
	if v := os.Getenv("ATTEND_UNKNOWN_FACE_THROTTLE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recognition.UnknownFaceThrottle = d
		}
	}
	if v := os.Getenv("ATTEND_MIN_DWELL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recognition.MinDwell = d
		}
	}
	if v := os.Getenv("ATTEND_TIMEZONE"); v != "" {
		cfg.Recognition.Timezone = v
	}
	if v := os.Getenv("ATTEND_MODEL_PATH"); v != "" {
		cfg.Vision.ModelPath = v
	}
}
