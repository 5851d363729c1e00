// 包 batch：一批出口节点的并发校验与结果汇总
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vpn-geosanity/internal/export"
	"vpn-geosanity/internal/logger"
	"vpn-geosanity/internal/metrics"
	"vpn-geosanity/internal/overlap"
	"vpn-geosanity/internal/pings"
	"vpn-geosanity/internal/sanity"
)

// Checker 单个节点的校验；sanity.Checker 实现该接口
type Checker interface {
	Check(ctx context.Context, claim sanity.Claim) sanity.Report
}

// Runner：固定大小的 worker 池
type Runner struct {
	Checker Checker
	Workers int
	Hooks   []export.Hook
	log     *slog.Logger
}

// Result：一次批量运行的输出
// 约束：Reports 与输入顺序一致
type Result struct {
	RunID         string
	Reports       []sanity.Report
	Accepted      []string
	Rejected      int
	Indeterminate int
	Duration      time.Duration
}

func NewRunner(c Checker, workers int, hooks ...export.Hook) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Runner{Checker: c, Workers: workers, Hooks: hooks, log: logger.For("batch")}
}

// 文档注释：并发校验全部声明并执行导出钩子
// 背景：每个结果写入自己的槽位，无需加锁；单个声明 panic 只影响该声明。
// 约束：ctx 取消后未开始的声明记为 indeterminate（internal_error），已完成的保留。
func (r *Runner) Run(ctx context.Context, claims []sanity.Claim) Result {
	t0 := time.Now()
	res := Result{RunID: uuid.NewString(), Reports: make([]sanity.Report, len(claims))}
	r.log.Info("batch_start", "run", res.RunID, "claims", len(claims), "workers", r.Workers)

	var g errgroup.Group
	g.SetLimit(r.Workers)
	for i := range claims {
		i := i
		if ctx.Err() != nil {
			res.Reports[i] = cancelled(claims[i], ctx.Err())
			continue
		}
		g.Go(func() error {
			res.Reports[i] = r.checkOne(ctx, claims[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, rep := range res.Reports {
		switch rep.Verdict {
		case overlap.Accept:
			res.Accepted = append(res.Accepted, rep.ProxyName+".ovpn")
		case overlap.Reject:
			res.Rejected++
		default:
			res.Indeterminate++
		}
	}
	res.Duration = time.Since(t0)
	r.log.Info("batch_done", "run", res.RunID, "accepted", len(res.Accepted), "rejected", res.Rejected,
		"indeterminate", res.Indeterminate, "duration_ms", res.Duration.Milliseconds())

	export.RunAll(ctx, r.Hooks, res.RunID, res.Reports)
	return res
}

func (r *Runner) checkOne(ctx context.Context, claim sanity.Claim) (rep sanity.Report) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("claim_panic", "proxy", claim.ProxyName, "panic", p)
			metrics.IndeterminateTotal.WithLabelValues(sanity.ReasonInternalError).Inc()
			rep = sanity.Report{
				Provider:    claim.Provider,
				ProxyName:   claim.ProxyName,
				ProxyIP:     claim.ProxyIP,
				CountryCode: claim.CountryCode,
				Verdict:     overlap.Indeterminate,
				Reason:      sanity.ReasonInternalError,
				Err:         fmt.Errorf("panic: %v", p),
			}
		}
	}()
	return r.Checker.Check(ctx, claim)
}

func cancelled(claim sanity.Claim, err error) sanity.Report {
	return sanity.Report{
		Provider:     claim.Provider,
		ProxyName:    claim.ProxyName,
		ProxyIP:      claim.ProxyIP,
		CountryCode:  claim.CountryCode,
		Verdict:      overlap.Indeterminate,
		Reason:       sanity.ReasonInternalError,
		Err:          err,
		TotalSamples: len(claim.Samples),
	}
}

// Claims 结果文件条目 → 校验输入
func Claims(entries []pings.Entry) []sanity.Claim {
	out := make([]sanity.Claim, 0, len(entries))
	for _, e := range entries {
		out = append(out, sanity.Claim{
			Provider:    e.Provider,
			ProxyName:   e.ProxyName,
			ProxyIP:     e.ProxyIP,
			CountryCode: e.Country,
			Samples:     e.Samples,
		})
	}
	return out
}
