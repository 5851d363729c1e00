// 包 logger：统一初始化与获取日志器，批量校验各阶段共享同一输出；通过环境变量控制日志级别与输出格式
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 默认日志器：进程级复用，worker 协程并发读取
var (
	defaultLogger *slog.Logger
	once          sync.Once
)

// Setup：初始化默认日志器
// 背景：集中化日志配置，批处理入口与工具命令共用一套级别与格式
// 约束：输出目标固定为标准错误；标准输出保留给结果列表（.ovpn 清单）
func Setup() *slog.Logger {
	lvl := parseLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h).With("service", "geosanity")
	return defaultLogger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// L：获取默认日志器；未初始化时回退到 Setup（只执行一次）
func L() *slog.Logger {
	once.Do(func() {
		if defaultLogger == nil {
			Setup()
		}
	})
	return defaultLogger
}

// For：带组件名的子日志器，用于区分 feasibility/overlap/batch 等阶段
func For(component string) *slog.Logger { return L().With("component", component) }
