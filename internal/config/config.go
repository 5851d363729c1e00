// 包 config：集中读取 .env 与环境变量，构造批量校验所需的只读配置
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 判定模式
const (
	ModeStatistical = "statistical"
	ModeStrict      = "strict"
)

// 锚点排序策略；auto 表示有声明坐标时按距离，否则按时延
const (
	OrderAuto     = "auto"
	OrderDistance = "distance"
	OrderLatency  = "latency"
)

// Config：一次批量运行的全部参数
// 约束：Load 之后只读，worker 间共享
type Config struct {
	SanityPath     string
	PingsPath      string
	Provider       string
	BoundariesPath string
	AnchorsSource  string // file|db
	AnchorsPath    string

	VerdictMode      string
	VerdictTopN      int
	VerdictThreshold float64
	OrderBy          string

	LatencyMinMs        float64
	LatencyMaxMs        float64
	LatencyMaxInclusive bool

	DiskSegments      int
	RegionSimplifyDeg float64

	Workers int

	GeocodeURL       string
	GeocodeTimeout   time.Duration
	GeocodeCacheTTL  time.Duration
	GeocodeUserAgent string
	GeocodeQPS       int
	RedisEnabled     bool

	ExportDB     bool
	ExportDetail bool
	ResultsPath  string

	GeoIPPath       string
	IP2RegionV4Path string
	IPIPPath        string
	IPIPLang        string

	MetricsAddr string
}

// LoadDotEnv：按顺序加载 .env 与 data/env/.env；文件缺失时静默跳过
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：从环境变量读取配置并填充默认值
// 背景：默认值对齐原始工具（30 个最近锚点、90% 阈值、[3,130) ms 单程时延）
func Load() Config {
	c := Config{
		SanityPath:          getEnv("SANITY_PATH", filepath.Join("data", "sanity")),
		Provider:            os.Getenv("VPN_PROVIDER"),
		AnchorsSource:       strings.ToLower(getEnv("ANCHORS_SOURCE", "file")),
		VerdictMode:         strings.ToLower(getEnv("VERDICT_MODE", ModeStatistical)),
		VerdictTopN:         getEnvInt("VERDICT_TOP_N", 30),
		VerdictThreshold:    getEnvFloat("VERDICT_THRESHOLD", 0.9),
		OrderBy:             strings.ToLower(getEnv("ORDER_BY", OrderAuto)),
		LatencyMinMs:        getEnvFloat("LATENCY_MIN_MS", 3.0),
		LatencyMaxMs:        getEnvFloat("LATENCY_MAX_MS", 130.0),
		LatencyMaxInclusive: getEnvBool("LATENCY_MAX_INCLUSIVE", false),
		DiskSegments:        getEnvInt("DISK_SEGMENTS", 64),
		RegionSimplifyDeg:   getEnvFloat("REGION_SIMPLIFY_DEG", 0),
		Workers:             getEnvInt("WORKERS", runtime.NumCPU()),
		GeocodeURL:          os.Getenv("GEOCODE_URL"),
		GeocodeTimeout:      time.Duration(getEnvInt("GEOCODE_TIMEOUT_MS", 4000)) * time.Millisecond,
		GeocodeCacheTTL:     time.Duration(getEnvInt("GEOCODE_CACHE_TTL_S", 86400)) * time.Second,
		GeocodeUserAgent:    getEnv("GEOCODE_USER_AGENT", "vpn-geosanity/1.0"),
		GeocodeQPS:          getEnvInt("GEOCODE_QPS", 1),
		RedisEnabled:        getEnvBool("REDIS_ENABLE", false),
		ExportDB:            getEnvBool("EXPORT_DB", false),
		ExportDetail:        getEnvBool("EXPORT_DETAIL", false),
		GeoIPPath:           os.Getenv("GEOIP_PATH"),
		IP2RegionV4Path:     os.Getenv("IP2REGION_V4_PATH"),
		IPIPPath:            os.Getenv("IPIP_PATH"),
		IPIPLang:            getEnv("IPIP_LANG", "CN"),
		MetricsAddr:         os.Getenv("METRICS_ADDR"),
	}
	c.BoundariesPath = getEnv("BOUNDARIES_PATH", filepath.Join(c.SanityPath, "ne_10m_admin_0_countries.geojson"))
	c.AnchorsPath = getEnv("ANCHORS_PATH", filepath.Join(c.SanityPath, "anchors.json"))
	c.PingsPath = getEnv("PINGS_PATH", filepath.Join(c.SanityPath, "pings"))
	c.ResultsPath = getEnv("RESULTS_PATH", filepath.Join(c.SanityPath, "results"))
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

// Validate：启动前的参数检查；错误直接返回给入口，由入口退出进程
func (c Config) Validate() error {
	var errs []error
	if c.VerdictMode != ModeStatistical && c.VerdictMode != ModeStrict {
		errs = append(errs, fmt.Errorf("VERDICT_MODE must be %q or %q, got %q", ModeStatistical, ModeStrict, c.VerdictMode))
	}
	if c.OrderBy != OrderAuto && c.OrderBy != OrderDistance && c.OrderBy != OrderLatency {
		errs = append(errs, fmt.Errorf("ORDER_BY must be auto, distance or latency, got %q", c.OrderBy))
	}
	if c.VerdictTopN <= 0 {
		errs = append(errs, errors.New("VERDICT_TOP_N must be positive"))
	}
	if c.VerdictThreshold <= 0 || c.VerdictThreshold > 1 {
		errs = append(errs, errors.New("VERDICT_THRESHOLD must be in (0,1]"))
	}
	if c.LatencyMinMs < 0 || c.LatencyMaxMs <= c.LatencyMinMs {
		errs = append(errs, errors.New("latency band must satisfy 0 <= LATENCY_MIN_MS < LATENCY_MAX_MS"))
	}
	if c.DiskSegments < 8 {
		errs = append(errs, errors.New("DISK_SEGMENTS must be at least 8"))
	}
	if c.AnchorsSource != "file" && c.AnchorsSource != "db" {
		errs = append(errs, fmt.Errorf("ANCHORS_SOURCE must be file or db, got %q", c.AnchorsSource))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
