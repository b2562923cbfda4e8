package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	MercadoPago   MercadoPagoConfig   `mapstructure:"mercadopago"`
	Pricing       PricingConfig       `mapstructure:"pricing"`
	TextGen       TextGenConfig       `mapstructure:"textgen"`
	Pdf           PdfConfig           `mapstructure:"pdf"`
	Fulfillment   FulfillmentConfig   `mapstructure:"fulfillment"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

// MercadoPagoConfig carries the provider credential and callback endpoints.
// The credential is validated at startup so a missing token is a fatal
// configuration error instead of a runtime failure on first use.
type MercadoPagoConfig struct {
	APIBaseURL      string        `mapstructure:"api_base_url"`
	AccessToken     string        `mapstructure:"access_token"`
	NotificationURL string        `mapstructure:"notification_url"`
	BackURLBase     string        `mapstructure:"back_url_base"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	Sandbox         bool          `mapstructure:"sandbox"`
}

// PricingConfig is the single source of truth for the product price. The
// client never supplies an amount; it only picks a catalog item.
type PricingConfig struct {
	CvPriceCents int64  `mapstructure:"cv_price_cents"`
	Currency     string `mapstructure:"currency"`
	ItemTitle    string `mapstructure:"item_title"`
}

type TextGenConfig struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type PdfConfig struct {
	ChromePath    string        `mapstructure:"chrome_path"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
}

type FulfillmentConfig struct {
	MaxWorkers   int `mapstructure:"max_workers"`
	JobQueueSize int `mapstructure:"job_queue_size"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- ENV LOADING -----------------

func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			Source:          os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		MercadoPago: MercadoPagoConfig{
			APIBaseURL:      getEnv("MERCADO_PAGO_API_URL", "https://api.mercadopago.com"),
			AccessToken:     os.Getenv("MERCADO_PAGO_ACCESS_TOKEN"),
			NotificationURL: os.Getenv("MERCADO_PAGO_NOTIFICATION_URL"),
			BackURLBase:     getEnv("MERCADO_PAGO_BACK_URL_BASE", getEnv("BASE_URL", "http://localhost:8080")),
			RequestTimeout:  15 * time.Second,
			Sandbox:         os.Getenv("MERCADO_PAGO_SANDBOX") == "true",
		},
		Pricing: PricingConfig{
			CvPriceCents: int64(getEnvAsInt("CV_PRICE_CENTS", 497)),
			Currency:     getEnv("CV_PRICE_CURRENCY", "BRL"),
			ItemTitle:    getEnv("CV_ITEM_TITLE", "Curriculo profissional em PDF"),
		},
		TextGen: TextGenConfig{
			APIBaseURL:     getEnv("OPENAI_API_URL", "https://api.openai.com/v1"),
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o"),
			RequestTimeout: 60 * time.Second,
		},
		Pdf: PdfConfig{
			ChromePath:    os.Getenv("CHROME_PATH"),
			RenderTimeout: 60 * time.Second,
		},
		Fulfillment: FulfillmentConfig{
			MaxWorkers:   getEnvAsInt("FULFILLMENT_MAX_WORKERS", 4),
			JobQueueSize: getEnvAsInt("FULFILLMENT_QUEUE_SIZE", 100),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.MercadoPago.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("mercadopago config: %v", err))
	}

	if err := c.Pricing.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("pricing config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *MercadoPagoConfig) Validate() error {
	if c.Sandbox {
		// the sandbox client needs no credential
		return nil
	}
	if c.AccessToken == "" {
		return errors.New("access_token is required")
	}
	if c.APIBaseURL == "" {
		return errors.New("api_base_url is required")
	}
	if _, err := url.Parse(c.APIBaseURL); err != nil {
		return fmt.Errorf("invalid api_base_url: %w", err)
	}
	if c.NotificationURL == "" {
		return errors.New("notification_url is required")
	}
	return nil
}

func (c *PricingConfig) Validate() error {
	if c.CvPriceCents <= 0 {
		return errors.New("cv_price_cents must be positive")
	}
	if c.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}
