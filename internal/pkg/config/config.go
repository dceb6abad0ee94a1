// internal/pkg/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 聚合了 dashboard 进程的全部配置。
// 先读 YAML 文件，再用环境变量覆盖，保证容器部署时不需要改文件。
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Jaeger JaegerConfig `yaml:"jaeger"`
	Chat   ChatConfig   `yaml:"chat"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MySQLConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type JaegerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

type ChatConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	RateLimit int           `yaml:"rate_limit"`
	RateWin   time.Duration `yaml:"rate_window"`
}

// Default 返回本地开发可以直接跑起来的一套默认值。
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 3000, StaticDir: "public"},
		Log:    LogConfig{Level: "info"},
		MySQL: MySQLConfig{
			DSN:             "root:@tcp(localhost:3306)/decoration_db?parseTime=true&loc=UTC",
			MaxOpenConns:    20,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "dekor.stock-movements"},
		Jaeger: JaegerConfig{
			Endpoint: "http://localhost:14268/api/traces",
		},
		Chat: ChatConfig{
			Endpoint:  "https://api.openai.com/v1/chat/completions",
			Model:     "gpt-4o-mini",
			CacheTTL:  10 * time.Minute,
			RateLimit: 20,
			RateWin:   time.Minute,
		},
	}
}

// Load 读取 path 指向的 YAML 配置。文件不存在时只用默认值加环境变量，
// 这样空目录下也能启动。
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv 用环境变量覆盖文件配置，键名保持和部署脚本一致。
func (c *Config) applyEnv() {
	if v := getEnv("SERVER_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	c.Server.StaticDir = getEnv("STATIC_DIR", c.Server.StaticDir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.MySQL.DSN = getEnv("MYSQL_DSN", c.MySQL.DSN)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", c.Jaeger.Endpoint)
	if v := getEnv("JAEGER_ENABLED", ""); v != "" {
		c.Jaeger.Enabled = v == "true" || v == "1"
	}
	c.Chat.Endpoint = getEnv("CHAT_API_ENDPOINT", c.Chat.Endpoint)
	c.Chat.APIKey = getEnv("CHAT_API_KEY", c.Chat.APIKey)
	c.Chat.Model = getEnv("CHAT_MODEL", c.Chat.Model)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
