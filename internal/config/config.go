package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Referral ReferralConfig `yaml:"referral"`
	Frontend FrontendConfig `yaml:"frontend"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type ReferralConfig struct {
	CodeLength          int  `yaml:"code_length"`
	MaxCodesPerReferrer int  `yaml:"max_codes_per_referrer"`
	MatchWindowMinutes  int  `yaml:"match_window_minutes"`
	ExpiryHours         int  `yaml:"expiry_hours"`
	StrictUAMatch       bool `yaml:"strict_ua_match"`
	MatchEnabled        bool `yaml:"match_enabled"`
	MaxCandidatesPerIP  int  `yaml:"max_candidates_per_ip"`
	UserAgentMaxLength  int  `yaml:"user_agent_max_length"`
}

type FrontendConfig struct {
	BaseURL string `yaml:"base_url"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	// 布尔项默认开启，YAML/环境变量可显式关闭
	cfg.Referral.StrictUAMatch = true
	cfg.Referral.MatchEnabled = true

	// 首先尝试从 YAML 文件加载
	if data, err := os.ReadFile("configs/config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// 然后从环境变量覆盖
	cfg.overrideFromEnv()

	// 设置默认值
	cfg.setDefaults()

	return cfg, nil
}

func (c *Config) overrideFromEnv() {
	// Database
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Database.URL = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Database.Port = port
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.DBName = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Server.Port = port
		}
	}
	if val := os.Getenv("GIN_MODE"); val != "" {
		c.Server.Mode = val
	}

	// Referral
	if val := os.Getenv("REFERRAL_CODE_LENGTH"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Referral.CodeLength = n
		}
	}
	if val := os.Getenv("REFERRAL_MAX_CODES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Referral.MaxCodesPerReferrer = n
		}
	}
	if val := os.Getenv("REFERRAL_MATCH_WINDOW_MINUTES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Referral.MatchWindowMinutes = n
		}
	}
	if val := os.Getenv("REFERRAL_EXPIRY_HOURS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Referral.ExpiryHours = n
		}
	}
	if val := os.Getenv("REFERRAL_STRICT_UA_MATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Referral.StrictUAMatch = b
		}
	}
	if val := os.Getenv("REFERRAL_MATCH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Referral.MatchEnabled = b
		}
	}

	// Frontend
	if val := os.Getenv("FRONTEND_BASE_URL"); val != "" {
		c.Frontend.BaseURL = val
	}
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}

	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.JWT.ExpireHours == 0 {
		c.JWT.ExpireHours = 24
	}

	if c.Referral.CodeLength == 0 {
		c.Referral.CodeLength = 8
	}
	if c.Referral.MaxCodesPerReferrer == 0 {
		c.Referral.MaxCodesPerReferrer = 5
	}
	if c.Referral.MatchWindowMinutes == 0 {
		c.Referral.MatchWindowMinutes = 15
	}
	if c.Referral.ExpiryHours == 0 {
		c.Referral.ExpiryHours = 48
	}
	if c.Referral.MaxCandidatesPerIP == 0 {
		c.Referral.MaxCandidatesPerIP = 10
	}
	if c.Referral.UserAgentMaxLength == 0 {
		c.Referral.UserAgentMaxLength = 256
	}

	if c.Frontend.BaseURL == "" {
		c.Frontend.BaseURL = "http://localhost:3000"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "./logs/app.log"
	}
}

func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}
