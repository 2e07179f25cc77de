// 包 logger：统一初始化与获取日志器；通过环境变量控制日志级别、格式与源码位置
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
)

// ParseLevel 将 LOG_LEVEL 文本转换为 slog 级别，未知值回退 info。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// 文档注释：初始化默认日志器
// 背景：进程级复用同一日志器，避免各模块输出格式不一致。
// 约束：输出固定到标准错误；LOG_FORMAT=json 时输出 JSON，否则为 text；LOG_SOURCE=true 附带源码位置。
func Setup() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(os.Getenv("LOG_LEVEL")),
		AddSource: os.Getenv("LOG_SOURCE") == "true",
	}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	l := slog.New(h).With("service", "playground-api")
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return l
}

// L：获取默认日志器，未初始化时先 Setup
func L() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		return Setup()
	}
	return l
}

// Component 返回携带 component 属性的子日志器。
func Component(name string) *slog.Logger { return L().With("component", name) }
