package view

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
)

// HistoryBackend 历史列表依赖的后端能力
type HistoryBackend interface {
	ListInspections(ctx context.Context, completedLimit int) (completed, ongoing []models.Inspection, err error)
	DeleteInspection(ctx context.Context, inspectionID string, cascade bool) error
}

// HistoryView 巡检历史：全量列表加本地筛选与删除
//
// 筛选条件（搜索词、日期区间）只在已拉取数据上重新推导，
// 改变条件不触发网络请求。
type HistoryView struct {
	backend   HistoryBackend
	bus       *refresh.Bus
	notifier  Notifier
	confirmer Confirmer
	logger    *zap.Logger

	gen atomic.Int64

	mu          sync.Mutex
	inspections []models.Inspection
	query       string
	dateFrom    string
	dateTo      string
}

// NewHistoryView 创建历史视图
func NewHistoryView(backend HistoryBackend, bus *refresh.Bus, notifier Notifier, confirmer Confirmer, logger *zap.Logger) *HistoryView {
	return &HistoryView{
		backend:   backend,
		bus:       bus,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    logger,
	}
}

// Refresh 全量拉取（已完成不设上限），已完成在前
func (v *HistoryView) Refresh(ctx context.Context) error {
	gen := v.gen.Add(1)

	completed, ongoing, err := v.backend.ListInspections(ctx, -1)
	if err != nil {
		v.logger.Warn("History fetch failed, keeping last known state", zap.Error(err))
		v.notifier.Error("Failed to load inspection history")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen.Load() != gen {
		return nil
	}
	v.inspections = append(append([]models.Inspection(nil), completed...), ongoing...)
	return nil
}

// SetQuery 设置搜索词（按场馆/房间名匹配，不区分大小写）
func (v *HistoryView) SetQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = strings.ToLower(strings.TrimSpace(query))
}

// SetDateRange 设置日期区间（ISO 日期字符串，空串表示不限）
func (v *HistoryView) SetDateRange(from, to string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dateFrom = from
	v.dateTo = to
}

// Snapshot 当前筛选条件下的展示列表
func (v *HistoryView) Snapshot() []models.Inspection {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]models.Inspection, 0, len(v.inspections))
	for _, ins := range v.inspections {
		if v.matches(ins) {
			out = append(out, ins)
		}
	}
	return out
}

func (v *HistoryView) matches(ins models.Inspection) bool {
	if v.query != "" {
		haystack := strings.ToLower(ins.VenueName + " " + ins.RoomName + " " + ins.CreatedBy)
		if !strings.Contains(haystack, v.query) {
			return false
		}
	}
	// ISO-8601 时间戳按字典序比较即按时间序比较
	when := ins.CompletedAt
	if when == "" {
		when = ins.CreatedAt
	}
	if v.dateFrom != "" && when != "" && when < v.dateFrom {
		return false
	}
	if v.dateTo != "" && when != "" && when[:min(len(when), len(v.dateTo))] > v.dateTo {
		return false
	}
	return true
}

// Delete 删除一次巡检（级联删除照片）
// 先弹确认，确认后乐观移除；服务端拒绝时恢复原位置并提示
func (v *HistoryView) Delete(ctx context.Context, inspectionID string) error {
	if !v.confirmer.Confirm("Delete this inspection and its photos?") {
		return nil
	}

	v.mu.Lock()
	idx := -1
	var removed models.Inspection
	for i, ins := range v.inspections {
		if ins.ID == inspectionID {
			idx = i
			removed = ins
			break
		}
	}
	if idx >= 0 {
		v.inspections = append(v.inspections[:idx], v.inspections[idx+1:]...)
	}
	v.mu.Unlock()

	if err := v.backend.DeleteInspection(ctx, inspectionID, true); err != nil {
		if idx >= 0 {
			// 在途期间总线触发的刷新可能已替换整个列表：
			// 旧下标不再可用，插入位置夹到当前长度，重复条目不再插入
			v.mu.Lock()
			present := false
			for _, ins := range v.inspections {
				if ins.ID == inspectionID {
					present = true
					break
				}
			}
			if !present {
				pos := idx
				if pos > len(v.inspections) {
					pos = len(v.inspections)
				}
				v.inspections = append(v.inspections, models.Inspection{})
				copy(v.inspections[pos+1:], v.inspections[pos:])
				v.inspections[pos] = removed
			}
			v.mu.Unlock()
		}
		v.logger.Error("Failed to delete inspection",
			zap.String("inspection_id", inspectionID),
			zap.Error(err),
		)
		v.notifier.Error("Failed to delete inspection")
		return err
	}

	v.notifier.Info("Inspection deleted")
	v.bus.Notify()
	return nil
}

// Watch 跟随刷新总线重新拉取，直到 ctx 结束
func (v *HistoryView) Watch(ctx context.Context) {
	watchBus(ctx, v.bus, func(ctx context.Context) {
		_ = v.Refresh(ctx)
	})
}
