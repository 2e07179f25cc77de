package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"playground-api/internal/geo"
)

// Env 读取环境变量，空值返回 def。
func Env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// EnvInt 读取整数，缺失或非法时返回 def。
func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// EnvDuration 接受 Go 时长（"6h"）或整秒数（"3600"）。
func EnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

// 文档注释：从环境变量构造聚合器
// 背景：REDUCER_STRATEGY 选择代表点策略，AGGREGATE_WORKERS 控制并发扫描（默认 1，即串行），
// DISTRICT_KEY_PATHS / FEATURE_NAME_PATHS 为逗号分隔的属性路径，缺省使用内置规则。
// PREVIEW_CAP 只能把预览上限调到 3 以下。
// 返回：策略名非法时报错，其余非法值回退默认。
func AggregatorFromEnv() (*geo.Aggregator, error) {
	strategy, err := geo.ParseStrategy(os.Getenv("REDUCER_STRATEGY"))
	if err != nil {
		return nil, fmt.Errorf("REDUCER_STRATEGY: %w", err)
	}
	return geo.NewAggregator(
		geo.WithStrategy(strategy),
		geo.WithWorkers(EnvInt("AGGREGATE_WORKERS", 1)),
		geo.WithPreviewCap(EnvInt("PREVIEW_CAP", geo.PreviewCap)),
		geo.WithKeyRules(geo.ParseKeyRules(os.Getenv("DISTRICT_KEY_PATHS"), geo.DefaultDistrictKeys)),
		geo.WithNameRules(geo.ParseKeyRules(os.Getenv("FEATURE_NAME_PATHS"), geo.DefaultFeatureNames)),
	), nil
}
