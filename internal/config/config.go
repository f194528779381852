// Package config предоставляет структуры и функции для загрузки конфигурации.
//
// Конфиг читается из YAML файла по пути CONFIG_PATH, значения переопределяются
// переменными окружения. Перед чтением подгружается .env файл, если он есть.
// jwt.secret и jwt.maxage обязательны и значений по умолчанию не имеют.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Провайдеры уведомлений.
const (
	NotifierSMTP     = "smtp"
	NotifierPostmark = "postmark"
	NotifierQueue    = "queue"
	NotifierLog      = "log"
)

// Драйверы хранилища пользователей.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env      string          `yaml:"env" env:"ENV" env-default:"local"`
	Storage  Storage         `yaml:"storage"`
	Redis    RedisConnection `yaml:"redis_connection"`
	HTTP     HTTPServer      `yaml:"http_server"`
	JWT      JWT             `yaml:"jwt"`
	Password Password        `yaml:"password"`
	Tokens   Tokens          `yaml:"tokens"`
	Links    Links           `yaml:"links"`
	Notifier Notifier        `yaml:"notifier"`
	SMTP     SMTP            `yaml:"smtp"`
	Postmark Postmark        `yaml:"postmark"`
	RabbitMQ RabbitMQ        `yaml:"rabbitmq"`
	Limits   RateLimit       `yaml:"rate_limit"`
}

// Storage настройки хранилища пользователей.
type Storage struct {
	Driver           string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	ConnectionString string `yaml:"connection_string" env:"DATABASE_URL"`
	MigrationsPath   string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Кэш пользователей включается, только если задан адрес.
type RedisConnection struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env-default:"3s"`
	UserTTL     time.Duration `yaml:"user_ttl" env-default:"1m"`
}

// JWT настройки сессионных токенов.
type JWT struct {
	Secret   string        `yaml:"secret" env:"JWT_SECRET_KEY" env-required:"true"`
	MaxAge   int           `yaml:"maxage" env:"JWT_MAXAGE" env-required:"true"` // минуты
	LoginTTL time.Duration `yaml:"login_ttl" env:"JWT_LOGIN_TTL" env-default:"60m"`
}

// SessionTTL возвращает срок жизни токена, выдаваемого при подтверждении почты.
func (j JWT) SessionTTL() time.Duration {
	return time.Duration(j.MaxAge) * time.Minute
}

// Password параметры argon2id.
type Password struct {
	Memory      uint32 `yaml:"memory_kib" env-default:"19456"`
	Iterations  uint32 `yaml:"iterations" env-default:"2"`
	Parallelism uint8  `yaml:"parallelism" env-default:"1"`
}

// Tokens сроки действия токенов подтверждения почты и сброса пароля.
type Tokens struct {
	VerificationTTL time.Duration `yaml:"verification_ttl" env-default:"24h"`
	ResetTTL        time.Duration `yaml:"reset_ttl" env-default:"30m"`
}

// Links базовые адреса для ссылок в письмах.
type Links struct {
	FrontURL string `yaml:"front_url" env:"FRONT_URL" env-default:"http://localhost:3000"`
	APIURL   string `yaml:"api_url" env:"API_URL" env-default:"http://localhost:8080"`
}

// Notifier выбор провайдера уведомлений.
type Notifier struct {
	Provider string `yaml:"provider" env:"NOTIFIER_PROVIDER" env-default:"smtp"`
}

// SMTP настройки почтового сервера.
type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_SERVER"`
	Port     string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
}

// Postmark настройки Postmark API.
type Postmark struct {
	ServerToken  string `yaml:"server_token" env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `yaml:"account_token" env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `yaml:"sender_email" env:"SENDER_EMAIL"`
	SupportEmail string `yaml:"support_email" env:"SUPPORT_EMAIL"`
}

// RabbitMQ настройки очереди уведомлений.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange   string        `yaml:"exchange" env-default:"notifications"`
	Queue      string        `yaml:"queue" env-default:"notification.email"`
	RoutingKey string        `yaml:"routing_key" env-default:"email"`
}

// RateLimit ограничение частоты запросов к маршрутам, отправляющим письма.
type RateLimit struct {
	MailRPS   float64 `yaml:"mail_rps" env:"MAIL_RATE_LIMIT_RPS" env-default:"1"`
	MailBurst int     `yaml:"mail_burst" env:"MAIL_RATE_LIMIT_BURST" env-default:"3"`
}

// Load читает конфиг из файла path и проверяет его.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if path == "" {
		return nil, fmt.Errorf("%s: config path is empty", op)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	// .env может отсутствовать
	_ = godotenv.Load()

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

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.MaxAge <= 0 {
		errs = append(errs, errors.New("jwt.maxage must be positive"))
	}
	if c.JWT.LoginTTL <= 0 {
		errs = append(errs, errors.New("jwt.login_ttl must be positive"))
	}
	if c.Limits.MailRPS <= 0 || c.Limits.MailBurst <= 0 {
		errs = append(errs, errors.New("rate_limit.mail_rps and rate_limit.mail_burst must be positive"))
	}
	switch c.Storage.Driver {
	case StoragePostgres:
		if c.Storage.ConnectionString == "" {
			errs = append(errs, errors.New("storage.connection_string is required for postgres"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	switch c.Notifier.Provider {
	case NotifierSMTP:
		if c.SMTP.Host == "" {
			errs = append(errs, errors.New("smtp.host is required for smtp notifier"))
		}
	case NotifierPostmark:
		if c.Postmark.ServerToken == "" || c.Postmark.SenderEmail == "" {
			errs = append(errs, errors.New("postmark.server_token and postmark.sender_email are required"))
		}
	case NotifierQueue:
		if c.RabbitMQ.URL == "" {
			errs = append(errs, errors.New("rabbitmq.url is required for queue notifier"))
		}
	case NotifierLog:
	default:
		errs = append(errs, fmt.Errorf("unknown notifier.provider %q", c.Notifier.Provider))
	}
	return errors.Join(errs...)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  ConnectionString: %s\n"+
			"  MigrationsPath: %s\n"+
			"Redis:\n"+
			"  Address: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWT:\n"+
			"  Secret: %s\n"+
			"  MaxAge: %dm\n"+
			"  LoginTTL: %s\n"+
			"Notifier: %s\n"+
			"SMTP:\n"+
			"  Host: %s:%s\n"+
			"  User: %s\n"+
			"  Password: %s\n",
		c.Env,
		c.Storage.Driver,
		mask(c.Storage.ConnectionString),
		c.Storage.MigrationsPath,
		c.Redis.Address,
		mask(c.Redis.Password),
		c.Redis.DB,
		c.HTTP.Address,
		c.HTTP.Timeout,
		c.HTTP.IdleTimeout,
		mask(c.JWT.Secret),
		c.JWT.MaxAge,
		c.JWT.LoginTTL,
		c.Notifier.Provider,
		c.SMTP.Host, c.SMTP.Port,
		c.SMTP.User,
		mask(c.SMTP.Password),
	)
}
