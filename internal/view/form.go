package view

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/api"
	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
)

// FormBackend 巡检表单依赖的后端能力
type FormBackend interface {
	SaveInspection(ctx context.Context, ins models.Inspection) (api.SaveResult, error)
	DeleteImageDB(ctx context.Context, inspectionID, imageID string) error
	DeleteS3ByDBEntry(ctx context.Context, inspectionID, imageID string) error
}

// PhotoUploader 保存前的照片上传流水线
type PhotoUploader interface {
	UploadPending(ctx context.Context, ins *models.Inspection, uploadedBy string) (int, error)
}

// Form 单次巡检的逐项打分表单
//
// 状态点击是幂等的设值操作：重复点击已选中的 pass/fail/na 不回退为
// pending。巡检已完成时表单只读，状态/备注/照片的修改是静默空操作。
type Form struct {
	backend   FormBackend
	uploader  PhotoUploader
	bus       *refresh.Bus
	notifier  Notifier
	confirmer Confirmer
	logger    *zap.Logger
	editedBy  string

	mu     sync.Mutex
	ins    models.Inspection
	saving bool
}

// NewForm 创建表单；editedBy 写入 updatedBy 和照片的 uploadedBy
func NewForm(backend FormBackend, uploader PhotoUploader, bus *refresh.Bus, notifier Notifier, confirmer Confirmer, logger *zap.Logger, ins models.Inspection, editedBy string) *Form {
	return &Form{
		backend:   backend,
		uploader:  uploader,
		bus:       bus,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    logger,
		editedBy:  editedBy,
		ins:       ins,
	}
}

// ReadOnly 表单是否只读。只认服务端写下的 completed 状态：宽松的
// 全 pass 判定（progress.InspectionComplete）不能用在这里，否则最后
// 一项打完 pass 表单就会在保存之前把自己锁死。
func (f *Form) ReadOnly() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readOnlyLocked()
}

func (f *Form) readOnlyLocked() bool {
	return f.ins.Status == models.InspectionCompleted
}

// Inspection 当前表单状态的快照
func (f *Form) Inspection() models.Inspection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ins
}

func (f *Form) item(itemID string) *models.InspectionItem {
	for i := range f.ins.Items {
		if f.ins.Items[i].ID == itemID {
			return &f.ins.Items[i]
		}
	}
	return nil
}

// SetStatus 设置某条目的状态（设值语义，重复点击是空操作）
func (f *Form) SetStatus(itemID, status string) {
	if !models.ValidItemStatus(status) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readOnlyLocked() {
		return
	}
	if item := f.item(itemID); item != nil {
		item.Status = status
	}
}

// SetNotes 设置某条目的备注
func (f *Form) SetNotes(itemID, notes string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readOnlyLocked() {
		return
	}
	if item := f.item(itemID); item != nil {
		item.Notes = notes
	}
}

// AttachPhoto 给某条目挂一张待上传照片（只存在于本地，保存时才上传）
func (f *Form) AttachPhoto(itemID, filename, contentType string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readOnlyLocked() {
		return
	}
	item := f.item(itemID)
	if item == nil {
		return
	}
	item.Photos = append(item.Photos, models.Photo{
		ID:          api.NewPhotoID(),
		Filename:    filename,
		ContentType: contentType,
		Status:      models.PhotoPending,
		Data:        data,
	})
}

// RemovePhoto 移除某条目的照片
// 待上传的照片直接丢弃；已上传的需要确认，然后删对象再删记录
func (f *Form) RemovePhoto(ctx context.Context, itemID, photoID string) error {
	f.mu.Lock()
	if f.readOnlyLocked() {
		f.mu.Unlock()
		return nil
	}
	item := f.item(itemID)
	if item == nil {
		f.mu.Unlock()
		return nil
	}
	idx := -1
	for i, p := range item.Photos {
		if p.ID == photoID {
			idx = i
			break
		}
	}
	if idx < 0 {
		f.mu.Unlock()
		return nil
	}
	photo := item.Photos[idx]
	if photo.Status == models.PhotoPending {
		item.Photos = append(item.Photos[:idx], item.Photos[idx+1:]...)
		f.mu.Unlock()
		return nil
	}
	inspectionID := f.ins.ID
	f.mu.Unlock()

	if !f.confirmer.Confirm("Delete this photo?") {
		return nil
	}

	imageID := photo.ImageID
	if imageID == "" {
		imageID = photo.ID
	}
	if err := f.backend.DeleteS3ByDBEntry(ctx, inspectionID, imageID); err != nil {
		f.notifier.Error("Failed to delete photo")
		return err
	}
	if err := f.backend.DeleteImageDB(ctx, inspectionID, imageID); err != nil {
		f.notifier.Error("Failed to delete photo record")
		return err
	}

	f.mu.Lock()
	if item := f.item(itemID); item != nil {
		for i, p := range item.Photos {
			if p.ID == photoID {
				item.Photos = append(item.Photos[:i], item.Photos[i+1:]...)
				break
			}
		}
	}
	f.mu.Unlock()
	return nil
}

func cloneItems(items []models.InspectionItem) []models.InspectionItem {
	if items == nil {
		return nil
	}
	out := make([]models.InspectionItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Photos != nil {
			photos := make([]models.Photo, len(out[i].Photos))
			copy(photos, out[i].Photos)
			out[i].Photos = photos
		}
	}
	return out
}

// mergeUploadedPhotos 把工作副本里已完成上传的照片状态写回表单，
// 按条目 ID 和照片 ID 匹配，不覆盖上传期间的其他本地编辑
func mergeUploadedPhotos(dst, uploaded []models.InspectionItem) {
	for i := range uploaded {
		for _, p := range uploaded[i].Photos {
			if p.Status != models.PhotoUploaded {
				continue
			}
			for j := range dst {
				if dst[j].ID != uploaded[i].ID {
					continue
				}
				for k := range dst[j].Photos {
					if dst[j].Photos[k].ID == p.ID {
						dst[j].Photos[k] = p
					}
				}
				break
			}
		}
	}
}

// Save 保存整个条目列表（全量覆盖）
// 顺序固定：先把所有待上传照片走完 sign → upload → register，
// 任何一张失败立即中止且不发保存请求；照片全部就绪后才发送
// save_inspection，是否转为 completed 由服务端决定。
// 同一时刻至多一次保存在途，多余的调用返回 ErrSaveInFlight。
func (f *Form) Save(ctx context.Context) (api.SaveResult, error) {
	f.mu.Lock()
	if f.readOnlyLocked() {
		f.mu.Unlock()
		return api.SaveResult{}, ErrReadOnly
	}
	if f.saving {
		f.mu.Unlock()
		return api.SaveResult{}, ErrSaveInFlight
	}
	f.saving = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.saving = false
		f.mu.Unlock()
	}()

	// 照片在前：把待上传照片全部传完并注册，失败则整次保存放弃。
	// 工作副本必须深拷贝条目和照片，上传期间的并发编辑不能写进
	// 同一底层数组，也不能被保存请求带走。
	f.mu.Lock()
	working := f.ins
	working.Items = cloneItems(f.ins.Items)
	f.mu.Unlock()
	if _, err := f.uploader.UploadPending(ctx, &working, f.editedBy); err != nil {
		f.notifier.Error("Photo upload failed, inspection was not saved")
		return api.SaveResult{}, err
	}
	f.mu.Lock()
	mergeUploadedPhotos(f.ins.Items, working.Items)
	f.mu.Unlock()

	working.UpdatedBy = f.editedBy
	result, err := f.backend.SaveInspection(ctx, working)
	if err != nil {
		f.logger.Error("Failed to save inspection",
			zap.String("inspection_id", working.ID),
			zap.Error(err),
		)
		f.notifier.Error("Failed to save inspection")
		return api.SaveResult{}, err
	}

	// 采用服务端回读的权威元数据（状态、completedAt、缓存汇总）
	f.mu.Lock()
	if result.Inspection != nil {
		f.ins.Status = result.Inspection.Status
		f.ins.CompletedAt = result.Inspection.CompletedAt
		f.ins.UpdatedAt = result.Inspection.UpdatedAt
		f.ins.UpdatedBy = result.Inspection.UpdatedBy
		f.ins.Totals = result.Inspection.Totals
		f.ins.ByRoom = result.Inspection.ByRoom
	}
	f.mu.Unlock()

	f.notifier.Info("Inspection saved")
	f.bus.Notify()
	return result, nil
}
