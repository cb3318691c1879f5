// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Режимы доставки уведомлений.
const (
	NotificationModeQueue  = "queue"
	NotificationModeDirect = "direct"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	Timezone                string `yaml:"timezone" env:"TIMEZONE" env-default:"America/Bogota"`
	NotificationMode        string `yaml:"notification_mode" env:"NOTIFICATION_MODE" env-default:"queue"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	RabbitMQ                `yaml:"rabbitmq"`
	WhatsApp                `yaml:"whatsapp"`
	Reports                 `yaml:"reports"`
	Referral                `yaml:"referral"`
	JWTToken                `yaml:"jwttoken"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"20"`
	RateBurst   int           `yaml:"rate_burst" env-default:"40"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	LotCacheTTL  time.Duration `yaml:"lot_cache_ttl" env-default:"1m"`
}

// RabbitMQ параметры подключения к брокеру
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// WhatsApp параметры WhatsApp Cloud API
type WhatsApp struct {
	WhatsAppAPIURL        string        `yaml:"api_url" env:"WHATSAPP_API_URL" env-default:"https://graph.facebook.com/v18.0"`
	WhatsAppToken         string        `yaml:"token" env:"WHATSAPP_TOKEN"`
	WhatsAppPhoneNumberID string        `yaml:"phone_number_id" env:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppTimeout       time.Duration `yaml:"timeout" env-default:"10s"`
}

// Reports настройки агрегации отчетов водителей
type Reports struct {
	ReportThreshold int           `yaml:"threshold" env:"REPORT_THRESHOLD" env-default:"5"`
	LockTTL         time.Duration `yaml:"lock_ttl" env-default:"30s"`
	LockWait        time.Duration `yaml:"lock_wait" env-default:"10s"`
	FanOutWorkers   int           `yaml:"fan_out_workers" env-default:"8"`

	// Активация и рассылка переживают отмену запроса, но ограничены сроками.
	ActivationTimeout time.Duration `yaml:"activation_timeout" env-default:"10s"`
	NotifyTimeout     time.Duration `yaml:"notify_timeout" env-default:"20s"`
}

// JWTToken структура для работы с jwt-токеном менеджеров парковок
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Referral настройки реферальной программы
type Referral struct {
	ReferralGrantDays    int `yaml:"grant_days" env:"REFERRAL_GRANT_DAYS" env-default:"7"`
	ReferralCodeLength   int `yaml:"code_length" env-default:"6"`
	ReferralCodeAttempts int `yaml:"code_attempts" env-default:"10"`
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает yaml-файл и переменные окружения.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	if cfg.NotificationMode != NotificationModeQueue && cfg.NotificationMode != NotificationModeDirect {
		return nil, fmt.Errorf("unknown notification_mode %q", cfg.NotificationMode)
	}
	return &cfg, nil
}

// WriteTimeout срок записи ответа. Отчет водителя может дождаться
// активации парковки и рассылки подписчикам, поэтому их сроки входят в него.
func (c *Config) WriteTimeout() time.Duration {
	return c.TimeoutHTTP + c.ActivationTimeout + c.NotifyTimeout
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Timezone: %s\n"+
			"NotificationMode: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"Reports:\n"+
			"  Threshold: %d\n"+
			"Referral:\n"+
			"  GrantDays: %d\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n",
		c.Env,
		c.Timezone,
		c.NotificationMode,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.ReportThreshold,
		c.ReferralGrantDays,
		c.TokenTTL,
	)
}
