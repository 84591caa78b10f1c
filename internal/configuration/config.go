package configuration

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"

	"github.com/ruhidibadli/ucuzbot/internal/logger"
)

type Config struct {
	ServerAddress      string
	DatabaseURI        string
	RedisAddress       string
	CheckInterval      time.Duration
	SearchDeadline     time.Duration
	StoreTimeout       time.Duration
	MaxResultsPerStore int
	EvalConcurrency    int
	SearchCacheTTL     time.Duration
	UserAgent          string
	LogLevel           logger.Level
	LogToFile          bool
	AuthSecretKey      jwk.Key
	AdminEmail         string
	TelegramBotToken   string
	VAPIDPublicKey     string
	VAPIDPrivateKey    string
	VAPIDSubject       string
}

type tomlConfig struct {
	ServerAddress      string `toml:"server_address"`
	DatabaseURI        string `toml:"database_uri"`
	RedisAddress       string `toml:"redis_address"`
	CheckInterval      string `toml:"check_interval"`
	SearchDeadline     string `toml:"search_deadline"`
	StoreTimeout       string `toml:"store_timeout"`
	MaxResultsPerStore int    `toml:"max_results_per_store"`
	EvalConcurrency    int    `toml:"eval_concurrency"`
	SearchCacheTTL     string `toml:"search_cache_ttl"`
	UserAgent          string `toml:"user_agent"`
	LogLevel           string `toml:"log_level"`
	LogToFile          bool   `toml:"log_to_file"`
	AuthSecretKey      string `toml:"auth_secret_key"`
	AdminEmail         string `toml:"admin_email"`
	TelegramBotToken   string `toml:"telegram_bot_token"`
	VAPIDPublicKey     string `toml:"vapid_public_key"`
	VAPIDPrivateKey    string `toml:"vapid_private_key"`
	VAPIDSubject       string `toml:"vapid_subject"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.ServerAddress == "" {
		tc.ServerAddress = "localhost:8000"
	}
	if tc.DatabaseURI == "" {
		tc.DatabaseURI = "mongodb://localhost:27017"
	}
	if tc.RedisAddress == "" {
		tc.RedisAddress = "localhost:6379"
	}

	checkInterval, err := parseDurationDefault(tc.CheckInterval, 4*time.Hour)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse check_interval")
	}
	if checkInterval < time.Minute {
		return nil, errors.Errorf("check_interval too short (%v), minimum interval: 1m", checkInterval)
	}

	searchDeadline, err := parseDurationDefault(tc.SearchDeadline, 120*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse search_deadline")
	}
	storeTimeout, err := parseDurationDefault(tc.StoreTimeout, 15*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse store_timeout")
	}
	if storeTimeout > searchDeadline {
		return nil, errors.Errorf("store_timeout (%v) must not exceed search_deadline (%v)", storeTimeout, searchDeadline)
	}
	cacheTTL, err := parseDurationDefault(tc.SearchCacheTTL, 10*time.Minute)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse search_cache_ttl")
	}

	if tc.MaxResultsPerStore <= 0 {
		tc.MaxResultsPerStore = 10
	}
	if tc.EvalConcurrency <= 0 {
		tc.EvalConcurrency = 3
	}
	if tc.UserAgent == "" {
		tc.UserAgent = defaultUserAgent
	}

	logLevel := logger.LevelInfo
	if tc.LogLevel != "" {
		logLevel, err = logger.ParseLevel(tc.LogLevel)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse log_level")
		}
	}

	if tc.AuthSecretKey == "" {
		return nil, errors.New("auth_secret_key is not set")
	}
	authSecretKey, err := jwk.FromRaw([]byte(tc.AuthSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
	}

	if tc.VAPIDSubject == "" {
		tc.VAPIDSubject = "mailto:admin@ucuzbot.az"
	}

	return &Config{
		ServerAddress:      tc.ServerAddress,
		DatabaseURI:        tc.DatabaseURI,
		RedisAddress:       tc.RedisAddress,
		CheckInterval:      checkInterval,
		SearchDeadline:     searchDeadline,
		StoreTimeout:       storeTimeout,
		MaxResultsPerStore: tc.MaxResultsPerStore,
		EvalConcurrency:    tc.EvalConcurrency,
		SearchCacheTTL:     cacheTTL,
		UserAgent:          tc.UserAgent,
		LogLevel:           logLevel,
		LogToFile:          tc.LogToFile,
		AuthSecretKey:      authSecretKey,
		AdminEmail:         tc.AdminEmail,
		TelegramBotToken:   tc.TelegramBotToken,
		VAPIDPublicKey:     tc.VAPIDPublicKey,
		VAPIDPrivateKey:    tc.VAPIDPrivateKey,
		VAPIDSubject:       tc.VAPIDSubject,
	}, nil
}

func parseDurationDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
