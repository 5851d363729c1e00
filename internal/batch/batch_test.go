package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vpn-geosanity/internal/latency"
	"vpn-geosanity/internal/overlap"
	"vpn-geosanity/internal/pings"
	"vpn-geosanity/internal/sanity"
)

// fakeChecker 按国家码给结论；"PANIC" 触发 panic；带随机化的耗时打乱完成顺序
type fakeChecker struct{ calls atomic.Int32 }

func (f *fakeChecker) Check(_ context.Context, c sanity.Claim) sanity.Report {
	n := f.calls.Add(1)
	time.Sleep(time.Duration(n%3) * time.Millisecond)
	rep := sanity.Report{Provider: c.Provider, ProxyName: c.ProxyName, CountryCode: c.CountryCode}
	switch c.CountryCode {
	case "PANIC":
		panic("bad claim")
	case "FR":
		rep.Verdict = overlap.Accept
	case "JP":
		rep.Verdict = overlap.Reject
	default:
		rep.Verdict = overlap.Indeterminate
	}
	return rep
}

type recordingHook struct {
	runID   string
	reports int
}

func (h *recordingHook) Name() string { return "recording" }

func (h *recordingHook) Export(_ context.Context, runID string, reports []sanity.Report) error {
	h.runID, h.reports = runID, len(reports)
	return nil
}

type failingHook struct{}

func (failingHook) Name() string { return "failing" }

func (failingHook) Export(context.Context, string, []sanity.Report) error {
	return errors.New("disk full")
}

func claims(codes ...string) []sanity.Claim {
	out := make([]sanity.Claim, len(codes))
	for i, c := range codes {
		out[i] = sanity.Claim{Provider: "acme", ProxyName: fmt.Sprintf("p%02d", i), CountryCode: c}
	}
	return out
}

func TestRunPreservesOrder(t *testing.T) {
	var codes []string
	for i := 0; i < 40; i++ {
		codes = append(codes, []string{"FR", "JP", "XX"}[i%3])
	}
	hook := &recordingHook{}
	res := NewRunner(&fakeChecker{}, 4, failingHook{}, hook).Run(context.Background(), claims(codes...))

	require.Len(t, res.Reports, 40)
	for i, rep := range res.Reports {
		require.Equal(t, fmt.Sprintf("p%02d", i), rep.ProxyName)
	}
	require.Len(t, res.Accepted, 14)
	require.Equal(t, "p00.ovpn", res.Accepted[0])
	require.Equal(t, 13, res.Rejected)
	require.Equal(t, 13, res.Indeterminate)
	require.NotEmpty(t, res.RunID)
	require.Equal(t, res.RunID, hook.runID)
	require.Equal(t, 40, hook.reports)
}

func TestRunIsolatesPanics(t *testing.T) {
	res := NewRunner(&fakeChecker{}, 2).Run(context.Background(), claims("FR", "PANIC", "FR"))
	require.Equal(t, overlap.Accept, res.Reports[0].Verdict)
	require.Equal(t, overlap.Indeterminate, res.Reports[1].Verdict)
	require.Equal(t, sanity.ReasonInternalError, res.Reports[1].Reason)
	require.Error(t, res.Reports[1].Err)
	require.Equal(t, overlap.Accept, res.Reports[2].Verdict)
	require.Equal(t, []string{"p00.ovpn", "p02.ovpn"}, res.Accepted)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewRunner(&fakeChecker{}, 1).Run(ctx, claims("FR", "FR"))
	for _, rep := range res.Reports {
		require.Equal(t, overlap.Indeterminate, rep.Verdict)
		require.ErrorIs(t, rep.Err, context.Canceled)
	}
	require.Empty(t, res.Accepted)
}

func TestNewRunnerDefaultsWorkers(t *testing.T) {
	require.Positive(t, NewRunner(&fakeChecker{}, 0).Workers)
}

func TestClaimsFromEntries(t *testing.T) {
	entries := []pings.Entry{{
		Provider: "acme", ProxyName: "fr-1", ProxyIP: "198.51.100.7", Country: "FR",
		Samples: []latency.Sample{{AnchorID: "a", LatencyMs: 20}},
	}}
	got := Claims(entries)
	require.Len(t, got, 1)
	require.Equal(t, "FR", got[0].CountryCode)
	require.Equal(t, "198.51.100.7", got[0].ProxyIP)
	require.Len(t, got[0].Samples, 1)
}
