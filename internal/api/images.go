package api

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/normalize"
)

// MaxUploadBytes 后端 sign-upload 的单文件大小上限
const MaxUploadBytes = 5 * 1024 * 1024

// SignUploadRequest 上传授权请求
type SignUploadRequest struct {
	InspectionID string `json:"inspectionId"`
	VenueID      string `json:"venueId"`
	RoomID       string `json:"roomId"`
	ItemID       string `json:"itemId"`
	Filename     string `json:"filename"`
	ContentType  string `json:"contentType"`
	FileSize     int64  `json:"fileSize"`
	UploadedBy   string `json:"uploadedBy"`
}

// SignUploadResult 上传授权结果
// 预签名 PUT 时只有 UploadURL/Key；预签名 POST 表单时带 Fields
type SignUploadResult struct {
	UploadURL string            `json:"uploadUrl"`
	Key       string            `json:"key"`
	ExpiresIn int               `json:"expiresIn"`
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
}

// SignUpload 向后端请求一次上传授权（目标 key 由服务端生成）
func (c *Client) SignUpload(ctx context.Context, req SignUploadRequest) (SignUploadResult, error) {
	if req.FileSize > MaxUploadBytes {
		return SignUploadResult{}, fmt.Errorf("sign-upload: %w", ErrFileTooLarge)
	}
	var out SignUploadResult
	if err := c.postJSON(ctx, c.endpoints.SignUploadURL, req, &out); err != nil {
		return SignUploadResult{}, fmt.Errorf("sign-upload: %w", err)
	}
	return out, nil
}

// UploadObject 把二进制内容上传到授权的目标
// 自动区分预签名 POST 表单与预签名 PUT
func (c *Client) UploadObject(ctx context.Context, sign SignUploadResult, contentType, filename string, data []byte) error {
	if len(sign.Fields) > 0 {
		url := sign.URL
		if url == "" {
			url = sign.UploadURL
		}
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetFormData(sign.Fields).
			SetFileReader("file", filename, bytes.NewReader(data)).
			Post(url)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		if resp.IsError() {
			return &StatusError{Code: resp.StatusCode(), Message: "object upload rejected"}
		}
		return nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Put(sign.UploadURL)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Message: "object upload rejected"}
	}
	return nil
}

// RegisterImageRequest 注册已上传照片元数据的请求
// 把 Photo → Item → Room → Inspection 的归属写入后端
type RegisterImageRequest struct {
	ImageID      string `json:"imageId"`
	Key          string `json:"key"`
	InspectionID string `json:"inspectionId"`
	VenueID      string `json:"venueId"`
	RoomID       string `json:"roomId"`
	ItemID       string `json:"itemId"`
	Filename     string `json:"filename"`
	ContentType  string `json:"contentType"`
	Filesize     int64  `json:"filesize"`
	UploadedBy   string `json:"uploadedBy"`
}

// RegisterImage 注册照片元数据（上传成功之后才允许调用）
func (c *Client) RegisterImage(ctx context.Context, req RegisterImageRequest) (models.Photo, error) {
	if err := ValidateID(req.ImageID, "photo"); err != nil {
		return models.Photo{}, fmt.Errorf("register-image: %w", err)
	}
	var out struct {
		ImageID string         `json:"imageId"`
		Item    map[string]any `json:"item"`
	}
	if err := c.postJSON(ctx, c.endpoints.RegisterImageURL, req, &out); err != nil {
		return models.Photo{}, fmt.Errorf("register-image: %w", err)
	}
	if out.Item != nil {
		return normalize.Photo(out.Item), nil
	}
	return models.Photo{ID: out.ImageID, ImageID: out.ImageID, Status: models.PhotoUploaded}, nil
}

// ListImages 列出某次巡检的照片记录
// signed 为 true 时返回带时效的查看 URL（Preview 字段）
func (c *Client) ListImages(ctx context.Context, inspectionID, roomID string, signed bool) ([]models.Photo, error) {
	var out struct {
		Images []map[string]any `json:"images"`
	}
	body := map[string]any{"inspectionId": inspectionID, "signed": signed}
	if roomID != "" {
		body["roomId"] = roomID
	}
	if err := c.postJSON(ctx, c.endpoints.ListImagesURL, body, &out); err != nil {
		return nil, fmt.Errorf("list-images-db: %w", err)
	}

	photos := make([]models.Photo, 0, len(out.Images))
	for _, raw := range out.Images {
		photos = append(photos, normalize.Photo(raw))
	}
	return photos, nil
}

// DeleteImageDB 删除照片的数据库记录
func (c *Client) DeleteImageDB(ctx context.Context, inspectionID, imageID string) error {
	body := map[string]any{"inspectionId": inspectionID, "imageId": imageID}
	if err := c.postJSON(ctx, c.endpoints.DeleteImageDBURL, body, nil); err != nil {
		return fmt.Errorf("delete-image-db: %w", err)
	}
	return nil
}

// DeleteS3ByDBEntry 按数据库记录删除对象存储里的照片内容
func (c *Client) DeleteS3ByDBEntry(ctx context.Context, inspectionID, imageID string) error {
	body := map[string]any{"inspectionId": inspectionID, "imageId": imageID}
	if err := c.postJSON(ctx, c.endpoints.DeleteS3URL, body, nil); err != nil {
		return fmt.Errorf("delete-s3-by-db-entry: %w", err)
	}
	return nil
}
