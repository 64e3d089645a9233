package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	var c ServerConfig
	c.SetDefaults()
	c.Finalize()
	if c.Port != 8080 || c.MetricsAddr != ":8080" || !c.SharedMetrics() {
		t.Fatalf("unexpected port defaults: %+v", c)
	}
	if c.Message != DefaultMessage {
		t.Fatalf("message = %q", c.Message)
	}
	if c.RequestTimeout != 30*time.Second || c.DrainTimeout != 10*time.Second {
		t.Fatalf("unexpected timeouts: %+v", c)
	}
	if c.ConfigFile == "" {
		t.Fatalf("expected default config path")
	}
}

func TestPrecedenceFileEnvFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	yml := "port: 9000\nmessage: from-file\nredis_addr: redis://file:6379/0\ndrain_timeout: 3s\nallowed_origins:\n  - https://a.example\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STATUS_MESSAGE", "from-env")
	t.Setenv("REQUEST_TIMEOUT", "2.5")

	var c ServerConfig
	c.SetDefaults()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	c.ApplyEnv()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.BindFlagsFromCurrent(fs)
	if err := fs.Parse([]string{"--redis-addr", "localhost:6380", "--allowed-origins", "https://b.example, https://c.example"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	c.Finalize()

	if c.Port != 9000 {
		t.Fatalf("port = %d; want 9000 from file", c.Port)
	}
	if c.MetricsAddr != ":9000" {
		t.Fatalf("metrics addr = %q; want to follow the port", c.MetricsAddr)
	}
	if c.Message != "from-env" {
		t.Fatalf("message = %q; env should override file", c.Message)
	}
	if c.RedisAddr != "localhost:6380" {
		t.Fatalf("redis = %q; flag should override file", c.RedisAddr)
	}
	if c.DrainTimeout != 3*time.Second {
		t.Fatalf("drain timeout = %v", c.DrainTimeout)
	}
	if c.RequestTimeout != 2500*time.Millisecond {
		t.Fatalf("request timeout = %v", c.RequestTimeout)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "https://c.example" {
		t.Fatalf("origins = %#v", c.AllowedOrigins)
	}
}

func TestMetricsPortEnv(t *testing.T) {
	t.Setenv("METRICS_PORT", "9100")
	var c ServerConfig
	c.SetDefaults()
	c.ApplyEnv()
	c.Finalize()
	if c.MetricsAddr != ":9100" || c.SharedMetrics() {
		t.Fatalf("metrics addr = %q shared=%v", c.MetricsAddr, c.SharedMetrics())
	}
}

func TestLoadFileErrors(t *testing.T) {
	var c ServerConfig
	if err := c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [nope"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestConfigFileFromArgs(t *testing.T) {
	cases := []struct {
		args []string
		want string
		ok   bool
	}{
		{[]string{"--config", "/tmp/a.yaml"}, "/tmp/a.yaml", true},
		{[]string{"-port", "1", "--config=/tmp/b.yaml"}, "/tmp/b.yaml", true},
		{[]string{"-config=/tmp/c.yaml"}, "/tmp/c.yaml", true},
		{[]string{"--port", "1"}, "", false},
		{[]string{"--config"}, "", false},
	}
	for _, tc := range cases {
		got, ok := ConfigFileFromArgs(tc.args)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ConfigFileFromArgs(%v) = %q,%v; want %q,%v", tc.args, got, ok, tc.want, tc.ok)
		}
	}
}
