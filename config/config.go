package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"minio"`
	Data struct {
		Root string `yaml:"root"`
	} `yaml:"data"`
	OpenAI struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"openai"`
	Harvest struct {
		Subreddits []string `yaml:"subreddits"`
		Limit      int      `yaml:"limit"`
		MinChars   int      `yaml:"min_chars"`
		MaxChars   int      `yaml:"max_chars"`
		Sort       string   `yaml:"sort"`
		Timeframe  string   `yaml:"timeframe"`
	} `yaml:"harvest"`
	Scheduler struct {
		IntervalSeconds int `yaml:"interval_seconds"`
		Concurrency     int `yaml:"concurrency"`
	} `yaml:"scheduler"`
}

var AppConfig *Config

func InitConfig() {
	_ = godotenv.Load()

	path := os.Getenv("FRAMEFORGE_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	AppConfig = &Config{}
	if err := yaml.NewDecoder(f).Decode(AppConfig); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}
	applyDefaults(AppConfig)

	// Env overrides for secrets so the yaml can stay checked in.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		AppConfig.OpenAI.APIKey = v
	}
	if v := os.Getenv("DATA_ROOT"); v != "" {
		AppConfig.Data.Root = v
	}
}

func applyDefaults(c *Config) {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Data.Root == "" {
		c.Data.Root = "/data"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if len(c.Harvest.Subreddits) == 0 {
		c.Harvest.Subreddits = []string{"scarystories", "nosleep", "shortstories"}
	}
	if c.Harvest.Limit <= 0 {
		c.Harvest.Limit = 25
	}
	if c.Harvest.MinChars <= 0 {
		c.Harvest.MinChars = 600
	}
	if c.Harvest.MaxChars <= 0 {
		c.Harvest.MaxChars = 12000
	}
	if c.Harvest.Sort == "" {
		c.Harvest.Sort = "top"
	}
	if c.Harvest.Timeframe == "" {
		c.Harvest.Timeframe = "day"
	}
	if c.Scheduler.IntervalSeconds <= 0 {
		c.Scheduler.IntervalSeconds = 60
	}
	if c.Scheduler.Concurrency <= 0 {
		c.Scheduler.Concurrency = 4
	}
}
