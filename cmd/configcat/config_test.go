package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/spf13/viper"

	configcat "github.com/configcat/go-sdk/v9"
)

func TestLoadDefaults(t *testing.T) {
	c := qt.New(t)

	cfg, err := Load(viper.New(), "")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, defaultConfig())
}

func TestLoadEnvOverride(t *testing.T) {
	c := qt.New(t)
	t.Setenv("CONFIGCAT_SDK_KEY", "key-from-env")
	t.Setenv("CONFIGCAT_MODE", "lazy")
	t.Setenv("CONFIGCAT_POLL_INTERVAL", "30s")
	t.Setenv("CONFIGCAT_REDIS_ADDR", "localhost:6379")
	t.Setenv("CONFIGCAT_BREAKER_THRESHOLD", "3")

	cfg, err := Load(viper.New(), "")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.SDKKey, qt.Equals, "key-from-env")
	c.Assert(cfg.Mode, qt.Equals, "lazy")
	c.Assert(cfg.PollInterval, qt.Equals, 30*time.Second)
	c.Assert(cfg.Redis.Addr, qt.Equals, "localhost:6379")
	c.Assert(cfg.Breaker.Threshold, qt.Equals, uint32(3))
}

func TestLoadConfigFile(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "cc.yaml")
	err := os.WriteFile(path, []byte(`
sdk_key: key-from-file
mode: manual
max_wait: 5s
redis:
  addr: redis:6379
  ttl: 1m
`), 0o644)
	c.Assert(err, qt.IsNil)
	t.Setenv("CONFIGCAT_MODE", "always")

	cfg, err := Load(viper.New(), path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.SDKKey, qt.Equals, "key-from-file")
	// The environment wins over the file.
	c.Assert(cfg.Mode, qt.Equals, "always")
	c.Assert(cfg.MaxWait, qt.Equals, 5*time.Second)
	c.Assert(cfg.Redis.Addr, qt.Equals, "redis:6379")
	c.Assert(cfg.Redis.TTL, qt.Equals, time.Minute)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	c := qt.New(t)
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	c.Assert(err, qt.ErrorMatches, `cannot read config file: .*`)
}

func TestRefreshMode(t *testing.T) {
	c := qt.New(t)
	for _, mode := range []string{"auto", "lazy", "manual", "always", "AUTO"} {
		cfg := defaultConfig()
		cfg.Mode = mode
		m, err := cfg.refreshMode()
		c.Assert(err, qt.IsNil, qt.Commentf("mode %s", mode))
		c.Assert(m, qt.Not(qt.IsNil))
	}
	cfg := defaultConfig()
	cfg.Mode = "sometimes"
	_, err := cfg.refreshMode()
	c.Assert(err, qt.ErrorMatches, `unknown mode "sometimes" .*`)
}

func TestDataGovernance(t *testing.T) {
	c := qt.New(t)
	cfg := defaultConfig()
	dg, err := cfg.dataGovernance()
	c.Assert(err, qt.IsNil)
	c.Assert(dg, qt.Equals, configcat.Global)

	cfg.DataGovernance = "EU"
	dg, err = cfg.dataGovernance()
	c.Assert(err, qt.IsNil)
	c.Assert(dg, qt.Equals, configcat.EuOnly)

	cfg.DataGovernance = "mars"
	_, err = cfg.dataGovernance()
	c.Assert(err, qt.ErrorMatches, `unknown data governance "mars" .*`)
}

func TestClientConfig(t *testing.T) {
	c := qt.New(t)
	cfg := defaultConfig()
	_, closeCache, err := cfg.clientConfig()
	c.Assert(err, qt.ErrorMatches, `no SDK key.*`)
	closeCache()

	cfg.SDKKey = "key"
	cfg.LocalFile = "flags.json"
	cfg.Breaker.Threshold = 2
	config, closeCache, err := cfg.clientConfig()
	c.Assert(err, qt.IsNil)
	defer closeCache()
	c.Assert(config.LocalFilePath, qt.Equals, "flags.json")
	c.Assert(config.CircuitBreakerThreshold, qt.Equals, uint32(2))
	c.Assert(config.Cache, qt.IsNil)

	cfg.LogLevel = "loud"
	_, _, err = cfg.clientConfig()
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestParseUser(t *testing.T) {
	c := qt.New(t)
	user, err := parseUser("u1", []string{"Country=Hungary", "plan=pro"})
	c.Assert(err, qt.IsNil)
	c.Assert(user.GetAttribute("Identifier"), qt.Equals, "u1")
	c.Assert(user.GetAttribute("Country"), qt.Equals, "Hungary")
	c.Assert(user.GetAttribute("plan"), qt.Equals, "pro")

	user, err = parseUser("", nil)
	c.Assert(err, qt.IsNil)
	c.Assert(user, qt.IsNil)

	_, err = parseUser("", []string{"a=b"})
	c.Assert(err, qt.ErrorMatches, `--attr requires --user`)
	_, err = parseUser("u1", []string{"novalue"})
	c.Assert(err, qt.ErrorMatches, `invalid attribute "novalue", want name=value`)
}
