package pings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vpn-geosanity/internal/latency"
)

func TestRead(t *testing.T) {
	body := strings.Join([]string{
		"proxy_name,vpn_provider,ip_v4,cnt,anchor-a,anchor-b,anchor-c",
		"acme,fr-paris-1,203.0.113.5,FR,12.5,,40;38.2",
		"acme,jp-tokyo-1,203.0.113.6,JP,x,250.1",
	}, "\n")
	entries, err := Read(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	e := entries[0]
	if e.Provider != "acme" || e.ProxyName != "fr-paris-1" || e.ProxyIP != "203.0.113.5" || e.Country != "FR" {
		t.Fatalf("unexpected entry %+v", e)
	}
	want := []latency.Sample{
		{AnchorID: "anchor-a", LatencyMs: 12.5, Kind: latency.RoundTrip},
		{AnchorID: "anchor-c", LatencyMs: 40, Kind: latency.RoundTrip},
		{AnchorID: "anchor-c", LatencyMs: 38.2, Kind: latency.RoundTrip},
	}
	if len(e.Samples) != len(want) {
		t.Fatalf("samples = %+v, want %+v", e.Samples, want)
	}
	for i := range want {
		if e.Samples[i] != want[i] {
			t.Fatalf("sample %d = %+v, want %+v", i, e.Samples[i], want[i])
		}
	}
	if len(entries[1].Samples) != 1 || entries[1].Samples[0].AnchorID != "anchor-b" {
		t.Fatalf("second entry samples = %+v", entries[1].Samples)
	}
}

func TestReadRejectsRowsBeforeHeader(t *testing.T) {
	if _, err := Read(strings.NewReader("acme,x,1.2.3.4,FR,10\n")); err == nil {
		t.Fatalf("expected error for headerless file")
	}
}

func TestLatestFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"pings_acme_1700000000.csv",
		"pings_acme_1700000500.5.csv",
		"pings_acme_notatime.csv",
		"pings_other_1800000000.csv",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := LatestFile(dir, "acme")
	if err != nil {
		t.Fatalf("LatestFile: %v", err)
	}
	if filepath.Base(got) != "pings_acme_1700000500.5.csv" {
		t.Fatalf("LatestFile = %s", got)
	}
	if _, err := LatestFile(dir, "nobody"); !errors.Is(err, ErrNoPingFile) {
		t.Fatalf("err = %v, want ErrNoPingFile", err)
	}
}
