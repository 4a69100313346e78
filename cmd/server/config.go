package main

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const envPrefix = "VISIONBOARD"

type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`
	Server struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Database struct {
		URL         string        `mapstructure:"url"`
		MaxConns    int           `mapstructure:"max_conns"`
		PingTimeout time.Duration `mapstructure:"ping_timeout"`
	} `mapstructure:"database"`
	Log struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"log"`
	Security struct {
		JWTPrivateKey     string `mapstructure:"jwt_private_key"`
		JWTPrivateKeyFile string `mapstructure:"jwt_private_key_file"`
		InternalToken     string `mapstructure:"internal_token"`
		InternalTokenFile string `mapstructure:"internal_token_file"`
		BcryptCost        int    `mapstructure:"bcrypt_cost"`
		CookieSecure      bool   `mapstructure:"cookie_secure"`
	} `mapstructure:"security"`
	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"cors"`
	Board struct {
		Timezone      string `mapstructure:"timezone"`
		RecentLimit   int    `mapstructure:"recent_limit"`
		UpcomingLimit int    `mapstructure:"upcoming_limit"`
	} `mapstructure:"board"`
	RateLimit struct {
		AuthPerIP         int           `mapstructure:"auth_per_ip"`
		AuthPerAccount    int           `mapstructure:"auth_per_account"`
		EngagementPerUser int           `mapstructure:"engagement_per_user"`
		Window            time.Duration `mapstructure:"window"`
	} `mapstructure:"ratelimit"`
	Tracing struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
		ServiceName  string `mapstructure:"service_name"`
		Insecure     bool   `mapstructure:"insecure"`
	} `mapstructure:"tracing"`
}

func (c Config) isDevelopment() bool {
	return strings.EqualFold(c.App.Env, "development")
}

func (c Config) boardLocation() (*time.Location, error) {
	name := strings.TrimSpace(c.Board.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid board.timezone %q: %w", name, err)
	}
	return loc, nil
}

func newViper(configFile string) *viper.Viper {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", envPrefix+"_DATABASE_URL", "DATABASE_URL")

	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.ping_timeout", "3s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("security.jwt_private_key", "")
	v.SetDefault("security.jwt_private_key_file", "")
	v.SetDefault("security.internal_token", "")
	v.SetDefault("security.internal_token_file", "")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.cookie_secure", true)
	v.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("board.timezone", "Local")
	v.SetDefault("board.recent_limit", 5)
	v.SetDefault("board.upcoming_limit", 5)
	v.SetDefault("ratelimit.auth_per_ip", 20)
	v.SetDefault("ratelimit.auth_per_account", 5)
	v.SetDefault("ratelimit.engagement_per_user", 30)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.service_name", "visionboard")
	v.SetDefault("tracing.insecure", true)
	return v
}

func loadConfig(configFile string) (Config, error) {
	v := newViper(configFile)
	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return Config{}, fmt.Errorf("read config file failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config failed: %w", err)
	}

	if err := resolveSecretFile(&cfg.Security.InternalToken, cfg.Security.InternalTokenFile, "security.internal_token_file"); err != nil {
		return Config{}, err
	}
	if err := resolveSecretFile(&cfg.Security.JWTPrivateKey, cfg.Security.JWTPrivateKeyFile, "security.jwt_private_key_file"); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Database.MaxConns <= 0 {
		return errors.New("database.max_conns must be greater than 0")
	}
	if c.Database.PingTimeout <= 0 {
		return errors.New("database.ping_timeout must be greater than 0")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("security.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if len(c.CORS.AllowOrigins) == 0 {
		return errors.New("cors.allow_origins must not be empty")
	}
	for _, origin := range c.CORS.AllowOrigins {
		if strings.TrimSpace(origin) == "*" {
			return errors.New("cors.allow_origins must not contain wildcard *")
		}
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("ratelimit.window must be greater than 0")
	}
	if _, err := c.boardLocation(); err != nil {
		return err
	}
	return nil
}

func resolveSecretFile(target *string, path string, key string) error {
	if strings.TrimSpace(*target) != "" || strings.TrimSpace(path) == "" {
		return nil
	}
	// #nosec G304 -- path is provided by operator config.
	raw, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return fmt.Errorf("read %s failed: %w", key, err)
	}
	*target = strings.TrimSpace(string(raw))
	return nil
}

// loadRSAPrivateKey parses the configured PEM key. Development runs without
// a key get an ephemeral one, so tokens do not survive a restart.
func loadRSAPrivateKey(cfg Config) (*rsa.PrivateKey, bool, error) {
	pem := strings.TrimSpace(cfg.Security.JWTPrivateKey)
	if pem == "" {
		if !cfg.isDevelopment() {
			return nil, false, errors.New("jwt private key not configured")
		}
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, false, fmt.Errorf("generate ephemeral jwt key: %w", err)
		}
		return key, true, nil
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, false, fmt.Errorf("parse jwt private key: %w", err)
	}
	return key, false, nil
}
