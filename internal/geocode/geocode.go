// 包 geocode：声明国家的代表坐标查询（外部、可缓存、可失败）
package geocode

import (
	"context"

	"vpn-geosanity/internal/metrics"
)

// Status 查询结果状态
type Status int

const (
	NotFound Status = iota
	Found
	ServiceError
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case ServiceError:
		return "service_error"
	}
	return "not_found"
}

// Result：Found 时 Lat/Lon 有效
type Result struct {
	Status Status  `json:"status"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Source string  `json:"source"`
}

// Locator：ISO alpha-2 代码 → 代表坐标
// 约束：不得无限阻塞；调用方通过 ctx 施加超时
type Locator interface {
	Locate(ctx context.Context, iso string) Result
}

// Chain：依次尝试，第一个 Found 生效；全部未命中时，存在服务错误则返回 ServiceError
type Chain []Locator

func (c Chain) Locate(ctx context.Context, iso string) Result {
	out := Result{Status: NotFound}
	for _, l := range c {
		if l == nil {
			continue
		}
		if ctx.Err() != nil {
			return Result{Status: ServiceError, Source: "timeout"}
		}
		r := l.Locate(ctx, iso)
		metrics.GeocodeRequestsTotal.WithLabelValues(r.Source, r.Status.String()).Inc()
		if r.Status == Found {
			return r
		}
		if r.Status == ServiceError {
			out.Status = ServiceError
		}
	}
	return out
}
