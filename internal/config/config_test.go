package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"VERDICT_MODE", "VERDICT_TOP_N", "VERDICT_THRESHOLD", "LATENCY_MIN_MS", "LATENCY_MAX_MS", "LATENCY_MAX_INCLUSIVE", "WORKERS", "ORDER_BY", "SANITY_PATH", "PINGS_PATH", "GEOCODE_QPS", "IPIP_LANG"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.VerdictMode != ModeStatistical {
		t.Fatalf("VerdictMode = %q, want %q", c.VerdictMode, ModeStatistical)
	}
	if c.VerdictTopN != 30 || c.VerdictThreshold != 0.9 {
		t.Fatalf("verdict defaults = %d/%v, want 30/0.9", c.VerdictTopN, c.VerdictThreshold)
	}
	if c.LatencyMinMs != 3.0 || c.LatencyMaxMs != 130.0 || c.LatencyMaxInclusive {
		t.Fatalf("latency band = [%v,%v] inclusive=%v", c.LatencyMinMs, c.LatencyMaxMs, c.LatencyMaxInclusive)
	}
	if c.Workers < 1 {
		t.Fatalf("Workers = %d, want >= 1", c.Workers)
	}
	if c.GeocodeTimeout != 4*time.Second {
		t.Fatalf("GeocodeTimeout = %v, want 4s", c.GeocodeTimeout)
	}
	if c.PingsPath != filepath.Join("data", "sanity", "pings") {
		t.Fatalf("PingsPath = %q", c.PingsPath)
	}
	if c.GeocodeQPS != 1 || c.IPIPLang != "CN" {
		t.Fatalf("GeocodeQPS/IPIPLang = %d/%q, want 1/CN", c.GeocodeQPS, c.IPIPLang)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VERDICT_MODE", "STRICT")
	t.Setenv("VERDICT_TOP_N", "10")
	t.Setenv("LATENCY_MAX_INCLUSIVE", "true")
	t.Setenv("WORKERS", "-3")
	t.Setenv("VERDICT_THRESHOLD", "not-a-number")
	c := Load()
	if c.VerdictMode != ModeStrict {
		t.Fatalf("VerdictMode = %q, want strict", c.VerdictMode)
	}
	if c.VerdictTopN != 10 {
		t.Fatalf("VerdictTopN = %d, want 10", c.VerdictTopN)
	}
	if !c.LatencyMaxInclusive {
		t.Fatalf("LatencyMaxInclusive should be true")
	}
	if c.Workers != 1 {
		t.Fatalf("Workers = %d, want fallback 1", c.Workers)
	}
	if c.VerdictThreshold != 0.9 {
		t.Fatalf("VerdictThreshold = %v, want default on parse error", c.VerdictThreshold)
	}
}

func TestValidate(t *testing.T) {
	base := Load()
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad mode", mutate: func(c *Config) { c.VerdictMode = "fuzzy" }},
		{name: "bad order", mutate: func(c *Config) { c.OrderBy = "random" }},
		{name: "zero top n", mutate: func(c *Config) { c.VerdictTopN = 0 }},
		{name: "threshold above one", mutate: func(c *Config) { c.VerdictThreshold = 1.5 }},
		{name: "inverted band", mutate: func(c *Config) { c.LatencyMinMs = 200 }},
		{name: "few segments", mutate: func(c *Config) { c.DiskSegments = 4 }},
		{name: "bad anchors source", mutate: func(c *Config) { c.AnchorsSource = "s3" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			c.VerdictMode = ModeStatistical
			c.OrderBy = OrderAuto
			c.AnchorsSource = "file"
			tc.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
