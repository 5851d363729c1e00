package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vpn-geosanity/internal/logger"
	"vpn-geosanity/internal/metrics"
)

// DefaultNominatimURL 公共 Nominatim 实例
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// 文档注释：Nominatim 搜索响应条目
// 背景：仅解析坐标字段；Nominatim 以字符串返回经纬度。
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Nominatim：按国家代码查询代表坐标（REST）
type Nominatim struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Limit     *TokenBucket
}

// NewNominatim baseURL 为空时使用公共实例；client 为空时使用 5s 超时的默认客户端
func NewNominatim(baseURL, userAgent string, client *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if userAgent == "" {
		userAgent = "vpn-geosanity"
	}
	return &Nominatim{BaseURL: strings.TrimRight(baseURL, "/"), UserAgent: userAgent, Client: client}
}

// 文档注释：查询单个国家的代表坐标
// 参数：ctx 控制超时与取消；iso 为 alpha-2 代码。
// 返回：空结果 → NotFound；网络/状态码/解码错误 → ServiceError（不缓存）。
func (n *Nominatim) Locate(ctx context.Context, iso string) Result {
	l := logger.For("geocode")
	q := url.Values{}
	q.Set("country", iso)
	q.Set("format", "json")
	q.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Result{Status: ServiceError, Source: "nominatim"}
	}
	if err := n.Limit.Wait(ctx); err != nil {
		l.Warn("nominatim_rate_wait", "iso", iso, "err", err)
		return Result{Status: ServiceError, Source: "nominatim"}
	}
	req.Header.Set("User-Agent", n.UserAgent)
	req.Header.Set("Accept", "application/json")
	t0 := time.Now()
	l.Debug("nominatim_req", "iso", iso)
	resp, err := n.Client.Do(req)
	if err != nil {
		l.Warn("nominatim_http_error", "iso", iso, "err", err)
		return Result{Status: ServiceError, Source: "nominatim"}
	}
	defer resp.Body.Close()
	metrics.GeocodeDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if resp.StatusCode != http.StatusOK {
		l.Warn("nominatim_status", "iso", iso, "code", resp.StatusCode)
		return Result{Status: ServiceError, Source: "nominatim"}
	}
	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		l.Warn("nominatim_decode_error", "iso", iso, "err", err)
		return Result{Status: ServiceError, Source: "nominatim"}
	}
	if len(places) == 0 {
		l.Debug("nominatim_empty", "iso", iso)
		return Result{Status: NotFound, Source: "nominatim"}
	}
	lat, err1 := strconv.ParseFloat(places[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(places[0].Lon, 64)
	if err1 != nil || err2 != nil {
		l.Warn("nominatim_bad_coord", "iso", iso, "lat", places[0].Lat, "lon", places[0].Lon)
		return Result{Status: ServiceError, Source: "nominatim"}
	}
	l.Debug("nominatim_resp", "iso", iso, "place", places[0].DisplayName, "duration_ms", time.Since(t0).Milliseconds())
	return Result{Status: Found, Lat: lat, Lon: lon, Source: "nominatim"}
}

func (n *Nominatim) String() string { return fmt.Sprintf("nominatim(%s)", n.BaseURL) }
