package httpapi

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Navigation 引擎在本次请求中发出的跳转
type Navigation struct {
	Mode string `json:"mode"` // push | replace
	Path string `json:"path"`
}

// interaction 收集一次请求内的跳转与确认框，随响应一起返回
type interaction struct {
	confirm bool

	mu            sync.Mutex
	navigations   []Navigation
	confirmations []string
}

type interactionKey struct{}

func withInteraction(ctx context.Context, confirm bool) (context.Context, *interaction) {
	in := &interaction{confirm: confirm}
	return context.WithValue(ctx, interactionKey{}, in), in
}

func interactionFrom(ctx context.Context) *interaction {
	in, _ := ctx.Value(interactionKey{}).(*interaction)
	return in
}

func (in *interaction) snapshot() ([]Navigation, []string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]Navigation(nil), in.navigations...), append([]string(nil), in.confirmations...)
}

// requestNavigator / requestConfirmer 实现 listscreen.Navigator/Confirmer
// 请求之外（如重连后的后台刷新）产生的跳转只记日志
type requestNavigator struct {
	logger *zap.Logger
}

func (n requestNavigator) Push(ctx context.Context, path string) {
	n.record(ctx, "push", path)
}

func (n requestNavigator) Replace(ctx context.Context, path string) {
	n.record(ctx, "replace", path)
}

func (n requestNavigator) record(ctx context.Context, mode, path string) {
	in := interactionFrom(ctx)
	if in == nil {
		n.logger.Debug("Navigation outside of a request", zap.String("mode", mode), zap.String("path", path))
		return
	}
	in.mu.Lock()
	in.navigations = append(in.navigations, Navigation{Mode: mode, Path: path})
	in.mu.Unlock()
}

// requestConfirmer 以 ?confirm=true 作为用户的确认结果
type requestConfirmer struct{}

func (requestConfirmer) Confirm(ctx context.Context, message string) bool {
	in := interactionFrom(ctx)
	if in == nil {
		return false
	}
	in.mu.Lock()
	in.confirmations = append(in.confirmations, message)
	in.mu.Unlock()
	return in.confirm
}
