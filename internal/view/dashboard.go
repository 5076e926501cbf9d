package view

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
)

// DashboardBackend 仪表盘依赖的后端能力
type DashboardBackend interface {
	GetDashboard(ctx context.Context, days int) (models.Dashboard, error)
}

// DashboardView 仪表盘：整体来自服务端预聚合，客户端不重算任何指标
type DashboardView struct {
	backend  DashboardBackend
	bus      *refresh.Bus
	notifier Notifier
	logger   *zap.Logger
	days     int

	gen atomic.Int64

	mu     sync.Mutex
	data   models.Dashboard
	loaded bool
}

// NewDashboardView 创建仪表盘视图
func NewDashboardView(backend DashboardBackend, bus *refresh.Bus, notifier Notifier, logger *zap.Logger, days int) *DashboardView {
	return &DashboardView{
		backend:  backend,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
		days:     days,
	}
}

// Refresh 重新拉取仪表盘数据
func (v *DashboardView) Refresh(ctx context.Context) error {
	gen := v.gen.Add(1)

	data, err := v.backend.GetDashboard(ctx, v.days)
	if err != nil {
		v.logger.Warn("Dashboard fetch failed, keeping last known state", zap.Error(err))
		v.notifier.Error("Failed to load dashboard")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen.Load() != gen {
		return nil
	}
	v.data = data
	v.loaded = true
	return nil
}

// Snapshot 当前仪表盘数据；loaded 为 false 表示还没有任何成功拉取
func (v *DashboardView) Snapshot() (models.Dashboard, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data, v.loaded
}

// Watch 跟随刷新总线重新拉取，直到 ctx 结束
func (v *DashboardView) Watch(ctx context.Context) {
	watchBus(ctx, v.bus, func(ctx context.Context) {
		_ = v.Refresh(ctx)
	})
}
