package view

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/api"
	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/progress"
	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
)

// RoomListBackend 房间列表依赖的后端能力
type RoomListBackend interface {
	GetInspection(ctx context.Context, inspectionID, roomID string) ([]models.InspectionItem, error)
	GetInspectionSummary(ctx context.Context, inspectionID string) (models.Summary, error)
}

// RoomProgress 某房间的展示态进度
type RoomProgress struct {
	Room      models.Room
	Counts    models.StatusCounts
	Inspected bool
	Percent   float64
}

// RoomListView 某次巡检的房间导航列表：逐房间的完成度进度
//
// 数据来源优先级：完整条目记录（本地重算）→ 服务端缓存汇总（按房间
// 合并）→ 上一次已知状态。服务端明确表示"没有汇总"时转为占位态
// （各房间 —/—），而不是继续展示陈旧计数。
type RoomListView struct {
	backend      RoomListBackend
	bus          *refresh.Bus
	notifier     Notifier
	logger       *zap.Logger
	inspectionID string
	venue        models.Venue

	gen atomic.Int64

	mu          sync.Mutex
	byRoom      map[string]models.StatusCounts
	totals      models.StatusCounts
	placeholder bool
}

// NewRoomListView 创建房间列表视图
// 初始状态用场馆定义的期望总数播种，避免首屏闪空
func NewRoomListView(backend RoomListBackend, bus *refresh.Bus, notifier Notifier, logger *zap.Logger, inspectionID string, venue models.Venue) *RoomListView {
	return &RoomListView{
		backend:      backend,
		bus:          bus,
		notifier:     notifier,
		logger:       logger,
		inspectionID: inspectionID,
		venue:        venue,
		byRoom:       progress.CountByRoom(nil, venue),
		totals:       progress.ExpectedTotals(venue),
	}
}

// Refresh 并发拉取条目记录与服务端汇总并调和
func (v *RoomListView) Refresh(ctx context.Context) error {
	gen := v.gen.Add(1)

	var (
		wg         sync.WaitGroup
		items      []models.InspectionItem
		itemsErr   error
		summary    models.Summary
		summaryErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		items, itemsErr = v.backend.GetInspection(ctx, v.inspectionID, "")
	}()
	go func() {
		defer wg.Done()
		summary, summaryErr = v.backend.GetInspectionSummary(ctx, v.inspectionID)
	}()
	wg.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen.Load() != gen {
		return nil
	}

	switch {
	case itemsErr == nil:
		// 完整条目在手，本地重算是权威
		v.byRoom = progress.CountByRoom(items, v.venue)
		v.totals = progress.Totals(v.byRoom)
		v.placeholder = false
		return nil

	case summaryErr == nil:
		v.byRoom = progress.MergeSummaryByRoom(summary.ByRoom, v.venue)
		if summary.Totals != nil {
			v.totals = *summary.Totals
		} else {
			v.totals = progress.Totals(v.byRoom)
		}
		v.placeholder = false
		v.logger.Warn("Item fetch failed, using cached summary",
			zap.String("inspection_id", v.inspectionID),
			zap.Error(itemsErr),
		)
		return nil

	case errors.Is(summaryErr, api.ErrNoSummary):
		// 服务端明确没有汇总：占位，不展示陈旧计数
		v.placeholder = true
		v.byRoom = nil
		v.totals = models.StatusCounts{}
		return nil

	default:
		v.logger.Warn("Room list fetch failed, keeping last known state",
			zap.String("inspection_id", v.inspectionID),
			zap.Error(itemsErr),
		)
		v.notifier.Error("Failed to load inspection progress")
		return itemsErr
	}
}

// Placeholder 是否处于"无汇总"占位态
func (v *RoomListView) Placeholder() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.placeholder
}

// Totals 当前聚合计数
func (v *RoomListView) Totals() models.StatusCounts {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totals
}

// Rooms 逐房间的展示态进度，顺序与场馆定义一致
func (v *RoomListView) Rooms() []RoomProgress {
	v.mu.Lock()
	defer v.mu.Unlock()

	rooms := make([]RoomProgress, 0, len(v.venue.Rooms))
	for _, room := range v.venue.Rooms {
		counts := v.byRoom[room.ID]
		rooms = append(rooms, RoomProgress{
			Room:      room,
			Counts:    counts,
			Inspected: progress.RoomInspected(counts),
			Percent:   progress.Percent(counts),
		})
	}
	return rooms
}

// Watch 跟随刷新总线重新拉取，直到 ctx 结束
func (v *RoomListView) Watch(ctx context.Context) {
	watchBus(ctx, v.bus, func(ctx context.Context) {
		_ = v.Refresh(ctx)
	})
}
