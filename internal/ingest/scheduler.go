package ingest

import (
	"context"
	"time"

	"playground-api/internal/logger"
	"playground-api/internal/metrics"
)

// 文档注释：周期刷新
// 背景：启动时立即执行一次，此后按 interval 周期执行；错误只记录日志，调度继续，上一份快照保持可用。
// 约束：ctx 取消后退出；interval<=0 时只执行首次刷新。
func StartPeriodic(ctx context.Context, interval time.Duration, run func(context.Context) error) {
	l := logger.Component("ingest")
	once := func() {
		t0 := time.Now()
		err := run(ctx)
		metrics.IngestDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
		if err != nil {
			metrics.IngestTotal.WithLabelValues("fail").Inc()
			l.Error("ingest_error", "err", err)
			return
		}
		metrics.IngestTotal.WithLabelValues("ok").Inc()
		l.Info("ingest_done", "ms", time.Since(t0).Milliseconds())
	}
	go func() {
		once()
		if interval <= 0 {
			return
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				once()
			}
		}
	}()
}
