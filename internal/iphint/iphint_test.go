package iphint

import (
	"errors"
	"testing"
)

type stub map[string]string

func (s stub) Country(ip string) (string, bool) {
	c, ok := s[ip]
	return c, ok
}

type fakeXDB map[string]string

func (f fakeXDB) SearchByStr(ip string) (string, error) {
	if r, ok := f[ip]; ok {
		return r, nil
	}
	return "", errors.New("not found")
}

func TestParseRegion(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "中国|0|广东省|深圳市|电信", want: "CN", ok: true},
		{in: "美国|0|加利福尼亚|0|0", want: "US", ok: true},
		{in: "Germany|0|Hesse|Frankfurt|Hetzner", want: "DE", ok: true},
		{in: "中国|广东省|深圳市|电信|CN", want: "CN", ok: true},
		{in: "0|0|0|内网IP|内网IP", want: "", ok: false},
		{in: "Atlantis|0|0|0|0", want: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := parseRegion(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parseRegion(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIP2RegionLookup(t *testing.T) {
	c := &IP2Region{v4: fakeXDB{"1.2.3.4": "日本|0|东京|0|0"}}
	if code, ok := c.Country("1.2.3.4"); !ok || code != "JP" {
		t.Fatalf("Country = %q,%v want JP", code, ok)
	}
	if _, ok := c.Country("5.6.7.8"); ok {
		t.Fatalf("missing ip should not resolve")
	}
	var nilHint *IP2Region
	if _, ok := nilHint.Country("1.2.3.4"); ok {
		t.Fatalf("nil hint should not resolve")
	}
}

func TestChainOrder(t *testing.T) {
	var g *GeoIP
	c := NewChain(stub{"1.1.1.1": "AU"}, stub{"1.1.1.1": "US", "8.8.8.8": "US"})
	if code, _ := c.Country("1.1.1.1"); code != "AU" {
		t.Fatalf("first hint should win, got %q", code)
	}
	if code, _ := c.Country("8.8.8.8"); code != "US" {
		t.Fatalf("fallback hint should answer, got %q", code)
	}
	if _, ok := c.Country("9.9.9.9"); ok {
		t.Fatalf("unknown ip should miss")
	}
	if _, ok := g.Country("1.1.1.1"); ok {
		t.Fatalf("nil GeoIP should miss")
	}
}

func TestOpenEmptyPaths(t *testing.T) {
	g, err := OpenGeoIP("")
	if g != nil || err != nil {
		t.Fatalf("OpenGeoIP(\"\") = %v,%v", g, err)
	}
	r, err := OpenIP2Region("")
	if r != nil || err != nil {
		t.Fatalf("OpenIP2Region(\"\") = %v,%v", r, err)
	}
	d, err := OpenIPDB("", "CN")
	if d != nil || err != nil {
		t.Fatalf("OpenIPDB(\"\") = %v,%v", d, err)
	}
	if _, err := OpenGeoIP("/nonexistent/db.mmdb"); err == nil {
		t.Fatalf("expected error for missing mmdb")
	}
}
