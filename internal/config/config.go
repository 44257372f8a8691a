package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// APIConfig represents the root element.
type APIConfig struct {
	XMLName        xml.Name             `xml:"API"`
	RequestDump    bool                 `xml:"REQUEST_DUMP,attr"`
	Context        ContextConfig        `xml:"CONTEXT"`
	Authentication AuthenticationConfig `xml:"AUTHENTICATION"`
	RateLimit      RateLimitConfig      `xml:"RATE_LIMIT"`
	Answers        AnswersConfig        `xml:"ANSWERS"`
	Media          MediaConfig          `xml:"MEDIA"`
	Logging        LoggingConfig        `xml:"LOGGING"`
	DB             DBConfig             `xml:"DB"`
}

// ContextConfig holds basic server settings.
type ContextConfig struct {
	Port           int    `xml:"PORT"`
	Host           string `xml:"HOST"`
	// Path mounts every route under a prefix, e.g. /api. Empty or / means the root.
	Path           string `xml:"PATH"`
	MaxConnections int    `xml:"MAX_CONNECTIONS"`
	ReadTimeout    int    `xml:"READ_TIMEOUT"`
	WriteTimeout   int    `xml:"WRITE_TIMEOUT"`
	AllowedOrigins string `xml:"ALLOWED_ORIGINS"`
}

// AuthenticationConfig holds token and password hashing settings.
type AuthenticationConfig struct {
	TokenSecret string `xml:"TOKEN_SECRET"`
	BcryptCost  int    `xml:"BCRYPT_COST"`
}

// RateLimitConfig bounds signup/login attempts per client IP.
type RateLimitConfig struct {
	Enabled           bool `xml:"ENABLED,attr"`
	RequestsPerMinute int  `xml:"REQUESTS_PER_MINUTE"`
	Burst             int  `xml:"BURST"`
}

// AnswersConfig controls answer batch submission.
type AnswersConfig struct {
	Atomic bool `xml:"ATOMIC,attr"`
}

// MediaConfig points at the uploaded video and subtitle files.
type MediaConfig struct {
	Root        string `xml:"ROOT"`
	URL         string `xml:"URL"`
	MaxUploadMB int64  `xml:"MAX_UPLOAD_MB"`
}

// LoggingConfig holds log level and rotation settings.
type LoggingConfig struct {
	Level      string `xml:"LEVEL"`
	File       string `xml:"FILE"`
	MaxSizeMB  int    `xml:"MAX_SIZE_MB"`
	MaxBackups int    `xml:"MAX_BACKUPS"`
	MaxAgeDays int    `xml:"MAX_AGE_DAYS"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Initialize bool         `xml:"INITIALIZE"`
	Server     string       `xml:"SERVER"`
	Host       string       `xml:"HOST"`
	Port       int          `xml:"PORT"`
	Driver     string       `xml:"DRIVER"`
	SSLMode    string       `xml:"SSL_MODE"`
	File       string       `xml:"FILE"`
	Names      DBNames      `xml:"NAMES"`
	Username   string       `xml:"USERNAME"`
	Password   string       `xml:"PASSWORD"`
	Pool       DBPoolConfig `xml:"POOL"`
}

// DBNames holds the names defined in the DB section.
type DBNames struct {
	EXPPRO string `xml:"EXPPRO,attr"`
}

// DBPoolConfig holds database connection pooling settings.
type DBPoolConfig struct {
	MaxOpenConns    int `xml:"MAX_OPEN_CONNS"`
	MaxIdleConns    int `xml:"MAX_IDLE_CONNS"`
	ConnMaxLifetime int `xml:"CONN_MAX_LIFETIME"`
}

// Default returns a configuration suitable for local development on sqlite.
func Default() *APIConfig {
	return &APIConfig{
		Context: ContextConfig{
			Port:           8000,
			Host:           "0.0.0.0",
			MaxConnections: 512,
			ReadTimeout:    15,
			WriteTimeout:   120,
			AllowedOrigins: "*",
		},
		Authentication: AuthenticationConfig{
			TokenSecret: "change-me",
			BcryptCost:  10,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			Burst:             10,
		},
		Media: MediaConfig{
			Root:        "./media",
			URL:         "/media/",
			MaxUploadMB: 2048,
		},
		Logging: LoggingConfig{
			Level:      "INFO",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		DB: DBConfig{
			Initialize: true,
			Driver:     "sqlite",
			File:       "exppro.db",
			Pool: DBPoolConfig{
				MaxOpenConns:    20,
				MaxIdleConns:    5,
				ConnMaxLifetime: 300,
			},
		},
	}
}

// LoadConfig loads and parses the XML configuration from the given file.
// A missing file yields Default(). Values from a .env file and EXPPRO_*
// environment variables are applied on top.
func LoadConfig(xmlPath string) (*APIConfig, error) {
	newCfg := Default()

	f, err := os.Open(xmlPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("open config: %w", err)
	default:
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := xml.Unmarshal(data, newCfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	if err := applyEnv(newCfg); err != nil {
		return nil, err
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}
	return newCfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *APIConfig) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB driver %q", c.DB.Driver)
	}
	if c.Context.Port <= 0 || c.Context.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Context.Port)
	}
	if strings.TrimSpace(c.Authentication.TokenSecret) == "" {
		return errors.New("token secret must not be empty")
	}
	if !strings.HasSuffix(c.Media.URL, "/") {
		c.Media.URL += "/"
	}
	c.Context.Path = strings.TrimSuffix(strings.TrimSpace(c.Context.Path), "/")
	if c.Context.Path != "" && !strings.HasPrefix(c.Context.Path, "/") {
		c.Context.Path = "/" + c.Context.Path
	}
	return nil
}

// Addr returns the host:port pair the server listens on.
func (c *APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Context.Host, c.Context.Port)
}

func applyEnv(c *APIConfig) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("EXPPRO_HOST", &c.Context.Host)
	setString("EXPPRO_TOKEN_SECRET", &c.Authentication.TokenSecret)
	setString("EXPPRO_DB_DRIVER", &c.DB.Driver)
	setString("EXPPRO_DB_HOST", &c.DB.Host)
	setString("EXPPRO_DB_NAME", &c.DB.Names.EXPPRO)
	setString("EXPPRO_DB_USER", &c.DB.Username)
	setString("EXPPRO_DB_PASSWORD", &c.DB.Password)
	setString("EXPPRO_DB_FILE", &c.DB.File)
	setString("EXPPRO_MEDIA_ROOT", &c.Media.Root)
	setString("EXPPRO_LOG_LEVEL", &c.Logging.Level)

	for key, dst := range map[string]*int{
		"EXPPRO_PORT":    &c.Context.Port,
		"EXPPRO_DB_PORT": &c.DB.Port,
	} {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	if v, ok := os.LookupEnv("EXPPRO_ANSWERS_ATOMIC"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EXPPRO_ANSWERS_ATOMIC: %w", err)
		}
		c.Answers.Atomic = b
	}
	return nil
}
