package view

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
)

// VenuesBackend 场馆管理依赖的后端能力
type VenuesBackend interface {
	GetVenues(ctx context.Context) ([]models.Venue, error)
	SaveVenue(ctx context.Context, venue models.Venue, update bool) (models.Venue, error)
	DeleteVenue(ctx context.Context, venueID string) error
}

// VenuesView 场馆管理：列表与增删改
type VenuesView struct {
	backend   VenuesBackend
	bus       *refresh.Bus
	notifier  Notifier
	confirmer Confirmer
	logger    *zap.Logger

	gen atomic.Int64

	mu     sync.Mutex
	venues []models.Venue
}

// NewVenuesView 创建场馆管理视图
func NewVenuesView(backend VenuesBackend, bus *refresh.Bus, notifier Notifier, confirmer Confirmer, logger *zap.Logger) *VenuesView {
	return &VenuesView{
		backend:   backend,
		bus:       bus,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    logger,
	}
}

// Refresh 重新拉取场馆列表
func (v *VenuesView) Refresh(ctx context.Context) error {
	gen := v.gen.Add(1)

	venues, err := v.backend.GetVenues(ctx)
	if err != nil {
		v.logger.Warn("Venue list fetch failed, keeping last known state", zap.Error(err))
		v.notifier.Error("Failed to load venues")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen.Load() != gen {
		return nil
	}
	v.venues = venues
	return nil
}

// Snapshot 当前场馆列表
func (v *VenuesView) Snapshot() []models.Venue {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Venue(nil), v.venues...)
}

// Save 新建或更新场馆，成功后采用服务端回读并广播刷新
func (v *VenuesView) Save(ctx context.Context, venue models.Venue, update bool) (models.Venue, error) {
	saved, err := v.backend.SaveVenue(ctx, venue, update)
	if err != nil {
		v.logger.Error("Failed to save venue", zap.String("venue_id", venue.ID), zap.Error(err))
		v.notifier.Error("Failed to save venue")
		return models.Venue{}, err
	}

	v.mu.Lock()
	replaced := false
	for i := range v.venues {
		if v.venues[i].ID == saved.ID {
			v.venues[i] = saved
			replaced = true
			break
		}
	}
	if !replaced {
		v.venues = append(v.venues, saved)
	}
	v.mu.Unlock()

	v.bus.Notify()
	return saved, nil
}

// Delete 删除场馆（关联数据由服务端级联处理）
// 先弹确认，确认后乐观移除；服务端拒绝时恢复原位置并提示
func (v *VenuesView) Delete(ctx context.Context, venueID string) error {
	if !v.confirmer.Confirm("Delete this venue?") {
		return nil
	}

	v.mu.Lock()
	idx := -1
	var removed models.Venue
	for i, venue := range v.venues {
		if venue.ID == venueID {
			idx = i
			removed = venue
			break
		}
	}
	if idx >= 0 {
		v.venues = append(v.venues[:idx], v.venues[idx+1:]...)
	}
	v.mu.Unlock()

	if err := v.backend.DeleteVenue(ctx, venueID); err != nil {
		if idx >= 0 {
			// 在途期间总线触发的刷新可能已替换整个列表：
			// 旧下标不再可用，插入位置夹到当前长度，重复条目不再插入
			v.mu.Lock()
			present := false
			for _, venue := range v.venues {
				if venue.ID == venueID {
					present = true
					break
				}
			}
			if !present {
				pos := idx
				if pos > len(v.venues) {
					pos = len(v.venues)
				}
				v.venues = append(v.venues, models.Venue{})
				copy(v.venues[pos+1:], v.venues[pos:])
				v.venues[pos] = removed
			}
			v.mu.Unlock()
		}
		v.logger.Error("Failed to delete venue", zap.String("venue_id", venueID), zap.Error(err))
		v.notifier.Error("Failed to delete venue")
		return err
	}

	v.notifier.Info("Venue deleted")
	v.bus.Notify()
	return nil
}

// Watch 跟随刷新总线重新拉取，直到 ctx 结束
func (v *VenuesView) Watch(ctx context.Context) {
	watchBus(ctx, v.bus, func(ctx context.Context) {
		_ = v.Refresh(ctx)
	})
}
