package view

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/api"
	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
)

// HomeBackend 首页依赖的后端能力
type HomeBackend interface {
	ListInspections(ctx context.Context, completedLimit int) (completed, ongoing []models.Inspection, err error)
	CreateInspection(ctx context.Context, ins models.Inspection) (models.Inspection, error)
}

// HomeView 首页：进行中与最近完成的巡检列表，以及新建巡检入口
type HomeView struct {
	backend        HomeBackend
	bus            *refresh.Bus
	notifier       Notifier
	logger         *zap.Logger
	completedLimit int

	gen atomic.Int64

	mu         sync.Mutex
	completed  []models.Inspection
	ongoing    []models.Inspection
	optimistic map[string]models.Inspection // 已创建但尚未出现在列表拉取里的巡检
}

// NewHomeView 创建首页视图
func NewHomeView(backend HomeBackend, bus *refresh.Bus, notifier Notifier, logger *zap.Logger, completedLimit int) *HomeView {
	return &HomeView{
		backend:        backend,
		bus:            bus,
		notifier:       notifier,
		logger:         logger,
		completedLimit: completedLimit,
		optimistic:     map[string]models.Inspection{},
	}
}

// Refresh 重新拉取列表并调和乐观条目
func (v *HomeView) Refresh(ctx context.Context) error {
	gen := v.gen.Add(1)

	completed, ongoing, err := v.backend.ListInspections(ctx, v.completedLimit)
	if err != nil {
		v.logger.Warn("Home list fetch failed, keeping last known state", zap.Error(err))
		v.notifier.Error("Failed to load inspections")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen.Load() != gen {
		// 已有更新的请求，丢弃本次结果
		return nil
	}

	// 拉取结果里已出现的乐观条目视为确认
	for _, ins := range completed {
		delete(v.optimistic, ins.ID)
	}
	for _, ins := range ongoing {
		delete(v.optimistic, ins.ID)
	}
	v.completed = completed
	v.ongoing = ongoing
	return nil
}

// Snapshot 当前展示状态；乐观条目并入进行中列表
func (v *HomeView) Snapshot() (completed, ongoing []models.Inspection) {
	v.mu.Lock()
	defer v.mu.Unlock()

	completed = append([]models.Inspection(nil), v.completed...)
	ongoing = append([]models.Inspection(nil), v.ongoing...)
	for _, ins := range v.optimistic {
		ongoing = append(ongoing, ins)
	}
	return completed, ongoing
}

// StartInspection 新建一次巡检：客户端生成 id，条目快照取自场馆定义
// 成功后采用服务端回读的元数据并广播刷新信号；失败回滚乐观条目
func (v *HomeView) StartInspection(ctx context.Context, venue models.Venue, createdBy string) (models.Inspection, error) {
	ins := models.Inspection{
		ID:        api.NewInspectionID(),
		VenueID:   venue.ID,
		VenueName: venue.Name,
		Status:    models.InspectionInProgress,
		CreatedBy: createdBy,
	}
	for _, room := range venue.Rooms {
		for _, def := range room.Items {
			ins.Items = append(ins.Items, models.InspectionItem{
				ID:       def.ID,
				Name:     def.Name,
				Status:   models.StatusPending,
				RoomID:   room.ID,
				RoomName: room.Name,
			})
		}
	}

	v.mu.Lock()
	v.optimistic[ins.ID] = ins
	v.mu.Unlock()

	created, err := v.backend.CreateInspection(ctx, ins)
	if err != nil {
		v.mu.Lock()
		delete(v.optimistic, ins.ID)
		v.mu.Unlock()
		v.logger.Error("Failed to create inspection",
			zap.String("venue_id", venue.ID),
			zap.Error(err),
		)
		v.notifier.Error("Failed to create inspection")
		return models.Inspection{}, err
	}

	v.mu.Lock()
	delete(v.optimistic, ins.ID)
	v.optimistic[created.ID] = created
	v.mu.Unlock()

	v.bus.Notify()
	return created, nil
}

// Watch 跟随刷新总线重新拉取，直到 ctx 结束
func (v *HomeView) Watch(ctx context.Context) {
	watchBus(ctx, v.bus, func(ctx context.Context) {
		_ = v.Refresh(ctx)
	})
}
