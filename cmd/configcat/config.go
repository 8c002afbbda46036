package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	configcat "github.com/configcat/go-sdk/v9"
	"github.com/configcat/go-sdk/v9/rediscache"
)

// Config holds the settings of the command. Values come from, in
// increasing priority, a config file, CONFIGCAT_* environment variables
// and command line flags.
type Config struct {
	SDKKey         string        `mapstructure:"sdk_key"`
	BaseURL        string        `mapstructure:"base_url"`
	DataGovernance string        `mapstructure:"data_governance"`
	Mode           string        `mapstructure:"mode"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxWait        time.Duration `mapstructure:"max_wait"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	LocalFile      string        `mapstructure:"local_file"`
	LogLevel       string        `mapstructure:"log_level"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
	Redis          RedisConfig   `mapstructure:"redis"`
}

type BreakerConfig struct {
	Threshold uint32        `mapstructure:"threshold"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

func defaultConfig() *Config {
	return &Config{
		DataGovernance: "global",
		Mode:           "auto",
		PollInterval:   configcat.DefaultPollInterval,
		LogLevel:       "warn",
	}
}

// Load reads the configuration into a Config. Environment variables use
// the prefix "CONFIGCAT" and the dot in nested keys is replaced by an
// underscore, so "redis.addr" becomes "CONFIGCAT_REDIS_ADDR".
// A missing config file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("configcat")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("CONFIGCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("cannot decode configuration: %w", err)
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

func (cfg *Config) refreshMode() (configcat.RefreshMode, error) {
	switch strings.ToLower(cfg.Mode) {
	case "auto":
		return configcat.AutoPoll(cfg.PollInterval), nil
	case "lazy":
		return configcat.LazyLoad(cfg.PollInterval, false), nil
	case "manual":
		return configcat.ManualPoll(), nil
	case "always":
		return configcat.AlwaysFetch(), nil
	}
	return nil, fmt.Errorf("unknown mode %q (want auto, lazy, manual or always)", cfg.Mode)
}

func (cfg *Config) dataGovernance() (configcat.DataGovernance, error) {
	switch strings.ToLower(cfg.DataGovernance) {
	case "global", "":
		return configcat.Global, nil
	case "eu", "euonly":
		return configcat.EuOnly, nil
	}
	return 0, fmt.Errorf("unknown data governance %q (want global or eu)", cfg.DataGovernance)
}

// clientConfig turns cfg into the options of a configcat.Client.
// The returned close function releases the Redis connection, if any.
func (cfg *Config) clientConfig() (configcat.ClientConfig, func(), error) {
	noop := func() {}
	if cfg.SDKKey == "" {
		return configcat.ClientConfig{}, noop, fmt.Errorf("no SDK key; set sdk_key, CONFIGCAT_SDK_KEY or --sdk-key")
	}
	mode, err := cfg.refreshMode()
	if err != nil {
		return configcat.ClientConfig{}, noop, err
	}
	governance, err := cfg.dataGovernance()
	if err != nil {
		return configcat.ClientConfig{}, noop, err
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return configcat.ClientConfig{}, noop, err
	}

	config := configcat.ClientConfig{
		Logger:                  configcat.DefaultLogger(level),
		BaseURL:                 cfg.BaseURL,
		DataGovernance:          governance,
		Mode:                    mode,
		MaxWaitTimeForSyncCalls: cfg.MaxWait,
		HTTPTimeout:             cfg.HTTPTimeout,
		LocalFilePath:           cfg.LocalFile,
		CircuitBreakerThreshold: cfg.Breaker.Threshold,
		CircuitBreakerTimeout:   cfg.Breaker.Timeout,
	}
	if cfg.Redis.Addr == "" {
		return config, noop, nil
	}
	db := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	config.Cache = rediscache.New(db, rediscache.Config{
		KeyPrefix: cfg.Redis.KeyPrefix,
		TTL:       cfg.Redis.TTL,
	})
	return config, func() { db.Close() }, nil
}
