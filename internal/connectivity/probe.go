package connectivity

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ProbeMonitor 定时请求 admin API 的健康检查接口判断在线状态
type ProbeMonitor struct {
	*state
	client   *resty.Client
	path     string
	interval time.Duration
	logger   *zap.Logger
}

// NewProbeMonitor 初始状态为在线，首次 Check 后以实际结果为准
func NewProbeMonitor(client *resty.Client, path string, interval time.Duration, logger *zap.Logger) *ProbeMonitor {
	if path == "" {
		path = "/health"
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &ProbeMonitor{
		state:    newState(true),
		client:   client,
		path:     path,
		interval: interval,
		logger:   logger,
	}
}

// Check 探测一次并更新状态
func (p *ProbeMonitor) Check(ctx context.Context) bool {
	online := false
	resp, err := p.client.R().SetContext(ctx).Get(p.path)
	if err == nil && resp.StatusCode() < 500 {
		online = true
	}
	if p.set(online) {
		fields := []zap.Field{zap.Bool("online", online), zap.String("source", "probe")}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		p.logger.Info("Connectivity changed", fields...)
	}
	return online
}

// Run 周期探测直到 ctx 取消
func (p *ProbeMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}
