package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string     `yaml:"env" env:"ENV" env-default:"local" json:"-"`
	DatabaseDSN string     `yaml:"database_dsn" env:"DATABASE_URL" env-required:"true" json:"-"`
	StaticDir   string     `yaml:"static_dir" env:"STATIC_DIR" env-default:"public" json:"-"`
	HTTPServer  HTTPServer `yaml:"http_server" json:"-"`
	Auth        AuthConfig `yaml:"auth" json:"-"`
	Uploads     Uploads    `yaml:"uploads" json:"uploads"`
	S3          S3Config   `yaml:"s3" json:"-"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8082"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type AuthConfig struct {
	AccessPassword string `yaml:"access_password" env:"ACCESS_PASSWORD" env-required:"true"`
	TokenSecret    string `yaml:"token_secret" env:"TOKEN_SECRET" env-required:"true"`
	SessionTTL     int    `yaml:"session_ttl_hours" env:"SESSION_EXPIRE_HOURS" env-default:"24"`
}

type Uploads struct {
	// 80 MiB unless overridden.
	MaxFileSize int64 `yaml:"max_file_size" env:"MAX_FILE_SIZE" env-default:"83886080" json:"max_file_size"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-required:"true"`
	Region    string `yaml:"region" env:"S3_REGION" env-default:"auto"`
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from env: %s", err)
		}
		return &cfg
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config %s", err)
	}

	return &cfg
}
