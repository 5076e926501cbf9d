// Package uploader 实现保存前的照片上传流水线。
// 顺序固定：sign-upload → 对象上传 → register-image，任何一张照片
// 失败立即中止，整次保存不得继续（避免出现指向不存在对象的记录）。
package uploader

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/api"
	"github.com/jt0826/inspectionapp-sub000/internal/models"
)

// Backend 上传流水线依赖的后端能力
type Backend interface {
	SignUpload(ctx context.Context, req api.SignUploadRequest) (api.SignUploadResult, error)
	UploadObject(ctx context.Context, sign api.SignUploadResult, contentType, filename string, data []byte) error
	RegisterImage(ctx context.Context, req api.RegisterImageRequest) (models.Photo, error)
}

// Uploader 照片上传流水线
type Uploader struct {
	backend Backend
	logger  *zap.Logger
}

// NewUploader 创建照片上传流水线
func NewUploader(backend Backend, logger *zap.Logger) *Uploader {
	return &Uploader{backend: backend, logger: logger}
}

// UploadPending 上传巡检里所有待上传照片并原地更新其状态。
// 返回错误时调用方必须放弃本次保存；已成功的照片保持 uploaded 状态,
// 下次保存不会重复上传。
func (u *Uploader) UploadPending(ctx context.Context, ins *models.Inspection, uploadedBy string) (int, error) {
	uploaded := 0
	for i := range ins.Items {
		item := &ins.Items[i]
		for j := range item.Photos {
			photo := &item.Photos[j]
			if photo.Status != models.PhotoPending || len(photo.Data) == 0 {
				continue
			}
			if err := u.uploadOne(ctx, ins, item, photo, uploadedBy); err != nil {
				u.logger.Error("Photo upload failed, aborting save",
					zap.String("inspection_id", ins.ID),
					zap.String("item_id", item.ID),
					zap.String("photo_id", photo.ID),
					zap.Error(err),
				)
				return uploaded, err
			}
			uploaded++
		}
	}
	return uploaded, nil
}

func (u *Uploader) uploadOne(ctx context.Context, ins *models.Inspection, item *models.InspectionItem, photo *models.Photo, uploadedBy string) error {
	sign, err := u.backend.SignUpload(ctx, api.SignUploadRequest{
		InspectionID: ins.ID,
		VenueID:      ins.VenueID,
		RoomID:       item.RoomID,
		ItemID:       item.ID,
		Filename:     photo.Filename,
		ContentType:  photo.ContentType,
		FileSize:     int64(len(photo.Data)),
		UploadedBy:   uploadedBy,
	})
	if err != nil {
		return fmt.Errorf("sign upload for %s: %w", photo.Filename, err)
	}

	if err := u.backend.UploadObject(ctx, sign, photo.ContentType, photo.Filename, photo.Data); err != nil {
		return fmt.Errorf("upload %s: %w", photo.Filename, err)
	}

	// 注册必须发生在对象上传成功之后
	registered, err := u.backend.RegisterImage(ctx, api.RegisterImageRequest{
		ImageID:      photo.ID,
		Key:          sign.Key,
		InspectionID: ins.ID,
		VenueID:      ins.VenueID,
		RoomID:       item.RoomID,
		ItemID:       item.ID,
		Filename:     photo.Filename,
		ContentType:  photo.ContentType,
		Filesize:     int64(len(photo.Data)),
		UploadedBy:   uploadedBy,
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", photo.Filename, err)
	}

	photo.Status = models.PhotoUploaded
	photo.S3Key = sign.Key
	photo.Data = nil
	if registered.ImageID != "" {
		photo.ImageID = registered.ImageID
	}
	if registered.UploadedAt != "" {
		photo.UploadedAt = registered.UploadedAt
	}

	u.logger.Debug("Photo uploaded",
		zap.String("inspection_id", ins.ID),
		zap.String("photo_id", photo.ID),
		zap.String("key", sign.Key),
	)
	return nil
}
