package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	LogLevel  string
	LogFormat string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	SMTP    SMTPConfig
	Gateway GatewayConfig
}

// SMTPConfig configures the outbound mail provider.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// GatewayConfig holds the bank-slip gateway credentials. The client
// certificate is a base64-encoded PKCS#12 blob decoded once at startup;
// missing credentials are a fatal startup error, not a runtime one.
// GATEWAY_DISABLED=true opts a deployment out of the gateway entirely
// (invoice-only billing keeps working).
type GatewayConfig struct {
	Disabled              bool
	Endpoint              string
	ClientID              string
	ClientSecret          string
	ApplicationKey        string
	Covenant              string
	CertificateBase64     string
	CertificatePassphrase string
}

var ErrGatewayConfigIncomplete = errors.New("gateway_config_incomplete")

// Enabled reports whether the gateway should be wired at startup.
func (g GatewayConfig) Enabled() bool {
	return !g.Disabled
}

// Validate fails when the gateway is enabled and any credential is
// missing.
func (g GatewayConfig) Validate() error {
	if g.Disabled {
		return nil
	}
	if g.Endpoint == "" || g.ClientID == "" || g.ClientSecret == "" ||
		g.CertificateBase64 == "" || g.CertificatePassphrase == "" {
		return ErrGatewayConfigIncomplete
	}
	return nil
}

// Load loads configuration from environment variables and .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "snarf"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "snarf"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", ""),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", ""),
		},
		Gateway: GatewayConfig{
			Disabled:              getenvBool("GATEWAY_DISABLED", false),
			Endpoint:              strings.TrimSpace(getenv("GATEWAY_ENDPOINT", "")),
			ClientID:              strings.TrimSpace(getenv("GATEWAY_CLIENT_ID", "")),
			ClientSecret:          strings.TrimSpace(getenv("GATEWAY_CLIENT_SECRET", "")),
			ApplicationKey:        strings.TrimSpace(getenv("GATEWAY_APPLICATION_KEY", "")),
			Covenant:              strings.TrimSpace(getenv("GATEWAY_COVENANT", "")),
			CertificateBase64:     strings.TrimSpace(getenv("GATEWAY_CERTIFICATE", "")),
			CertificatePassphrase: getenv("GATEWAY_CERTIFICATE_PASSPHRASE", ""),
		},
	}

	if err := cfg.Gateway.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
