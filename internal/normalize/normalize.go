// Package normalize 把后端各种历史形态的原始记录翻译为 internal/models 的
// 规范形态。字段名漂移（snake_case/camelCase/旧字段）只允许在这里出现：
// 每个实体维护一张显式的字段优先级表，调用方不得自行做字段回退。
package normalize

import (
	"strconv"
	"strings"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
)

// 字段优先级表（顺序即优先级，取第一个非空值）
var (
	venueIDKeys     = []string{"venueId", "venue_id", "id"}
	venueNameKeys   = []string{"name", "venueName", "venue_name"}
	addressKeys     = []string{"address"}
	roomIDKeys      = []string{"roomId", "room_id", "id", "room"}
	roomNameKeys    = []string{"roomName", "room_name", "name"}
	itemIDKeys      = []string{"itemId", "id", "item", "ItemId"}
	itemNameKeys    = []string{"itemName", "name", "item"}
	notesKeys       = []string{"notes", "comments"}
	inspectionKeys  = []string{"inspection_id", "inspectionId", "id"}
	createdAtKeys   = []string{"createdAt", "created_at", "timestamp"}
	updatedAtKeys   = []string{"updatedAt", "updated_at"}
	completedAtKeys = []string{"completedAt", "completed_at"}
	createdByKeys   = []string{"createdBy", "created_by"}
	updatedByKeys   = []string{"updatedBy", "updated_by"}
	imageIDKeys     = []string{"imageId", "image_id", "id"}
	s3KeyKeys       = []string{"s3Key", "key"}
	previewKeys     = []string{"preview", "signedUrl", "url"}
	byRoomKeys      = []string{"byRoom", "by_room"}
)

// pickString 按优先级表取第一个非空字符串字段
// 数值会被格式化为字符串（历史记录里偶见数值化的 id）
func pickString(raw map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

// pickInt 按优先级表取第一个数值字段
func pickInt(raw map[string]any, keys ...string) int {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case string:
			if parsed, err := strconv.Atoi(n); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// Status 规范化条目状态：小写，pending 与 null/缺失/未知值统一为 pending
func Status(raw any) string {
	s, _ := raw.(string)
	s = strings.ToLower(strings.TrimSpace(s))
	if !models.ValidItemStatus(s) {
		return models.StatusPending
	}
	return s
}

// InspectionStatus 规范化巡检单状态：小写，缺失视为 in-progress
func InspectionStatus(raw any) string {
	s, _ := raw.(string)
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case models.InspectionDraft, models.InspectionInProgress, models.InspectionCompleted:
		return s
	case "":
		return models.InspectionInProgress
	default:
		return models.InspectionInProgress
	}
}

// ItemDefinition 规范化场馆检查项定义
func ItemDefinition(raw map[string]any) models.ItemDefinition {
	return models.ItemDefinition{
		ID:   pickString(raw, itemIDKeys),
		Name: pickString(raw, itemNameKeys),
	}
}

// Room 规范化房间定义
func Room(raw map[string]any) models.Room {
	room := models.Room{
		ID:   pickString(raw, roomIDKeys),
		Name: pickString(raw, roomNameKeys),
	}
	for _, el := range asSlice(raw["items"]) {
		if m, ok := asMap(el); ok {
			room.Items = append(room.Items, ItemDefinition(m))
		}
	}
	return room
}

// Venue 规范化场馆记录
func Venue(raw map[string]any) models.Venue {
	v := models.Venue{
		ID:        pickString(raw, venueIDKeys),
		Name:      pickString(raw, venueNameKeys),
		Address:   pickString(raw, addressKeys),
		CreatedAt: pickString(raw, createdAtKeys),
		UpdatedAt: pickString(raw, updatedAtKeys),
		CreatedBy: pickString(raw, createdByKeys),
	}
	for _, el := range asSlice(raw["rooms"]) {
		if m, ok := asMap(el); ok {
			v.Rooms = append(v.Rooms, Room(m))
		}
	}
	return v
}

// InspectionItem 规范化巡检条目记录
// 没有任何条目标识的记录是元数据行（__meta__ 等），返回 ok=false，
// 必须在计数前被过滤掉
func InspectionItem(raw map[string]any) (models.InspectionItem, bool) {
	id := pickString(raw, itemIDKeys)
	if id == "" {
		return models.InspectionItem{}, false
	}
	return models.InspectionItem{
		ID:       id,
		Name:     pickString(raw, itemNameKeys),
		Status:   Status(raw["status"]),
		Notes:    pickString(raw, notesKeys),
		RoomID:   pickString(raw, []string{"roomId", "room_id", "room"}),
		RoomName: pickString(raw, []string{"roomName", "room_name"}),
	}, true
}

// Counts 规范化一组状态计数
// total 缺失时按四个分量之和补齐，保持 total == pass+fail+na+pending
func Counts(raw map[string]any) models.StatusCounts {
	c := models.StatusCounts{
		Pass:    pickInt(raw, "pass"),
		Fail:    pickInt(raw, "fail"),
		NA:      pickInt(raw, "na"),
		Pending: pickInt(raw, "pending"),
		Total:   pickInt(raw, "total"),
	}
	if c.Total == 0 {
		c.Total = c.Pass + c.Fail + c.NA + c.Pending
	}
	return c
}

// ByRoom 规范化按房间的计数字典
func ByRoom(raw any) map[string]models.StatusCounts {
	m, ok := asMap(raw)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]models.StatusCounts, len(m))
	for roomID, v := range m {
		if cm, ok := asMap(v); ok {
			out[roomID] = Counts(cm)
		}
	}
	return out
}

// Inspection 规范化巡检元数据记录（list_inspections / inspectionData 返回形态）
func Inspection(raw map[string]any) models.Inspection {
	ins := models.Inspection{
		ID:          pickString(raw, inspectionKeys),
		VenueID:     pickString(raw, []string{"venueId", "venue_id"}),
		VenueName:   pickString(raw, []string{"venueName", "venue_name"}),
		RoomID:      pickString(raw, []string{"roomId", "room_id"}),
		RoomName:    pickString(raw, []string{"roomName", "room_name"}),
		Status:      InspectionStatus(raw["status"]),
		CreatedAt:   pickString(raw, createdAtKeys),
		CreatedBy:   pickString(raw, createdByKeys),
		UpdatedAt:   pickString(raw, updatedAtKeys),
		UpdatedBy:   pickString(raw, updatedByKeys),
		CompletedAt: pickString(raw, completedAtKeys),
	}
	// completedAt 存在也视为已完成（旧记录 status 可能缺失）
	if ins.CompletedAt != "" {
		ins.Status = models.InspectionCompleted
	}
	if tm, ok := asMap(raw["totals"]); ok {
		c := Counts(tm)
		ins.Totals = &c
	}
	for _, k := range byRoomKeys {
		if br := ByRoom(raw[k]); br != nil {
			ins.ByRoom = br
			break
		}
	}
	for _, el := range asSlice(raw["items"]) {
		if m, ok := asMap(el); ok {
			if item, real := InspectionItem(m); real {
				ins.Items = append(ins.Items, item)
			}
		}
	}
	return ins
}

// Photo 规范化照片记录（list-images-db 返回形态）
func Photo(raw map[string]any) models.Photo {
	return models.Photo{
		ID:          pickString(raw, imageIDKeys),
		ImageID:     pickString(raw, imageIDKeys),
		S3Key:       pickString(raw, s3KeyKeys),
		Preview:     pickString(raw, previewKeys),
		Filename:    pickString(raw, []string{"filename"}),
		ContentType: pickString(raw, []string{"contentType", "content_type"}),
		Filesize:    int64(pickInt(raw, "filesize", "fileSize", "size")),
		UploadedBy:  pickString(raw, []string{"uploadedBy", "uploaded_by"}),
		UploadedAt:  pickString(raw, []string{"uploadedAt", "uploaded_at"}),
		Status:      models.PhotoUploaded,
	}
}

// Summary 规范化汇总响应
func Summary(raw map[string]any) models.Summary {
	s := models.Summary{
		InspectionID: pickString(raw, inspectionKeys),
		UpdatedAt:    pickString(raw, updatedAtKeys),
		UpdatedBy:    pickString(raw, updatedByKeys),
	}
	if tm, ok := asMap(raw["totals"]); ok {
		c := Counts(tm)
		s.Totals = &c
	}
	for _, k := range byRoomKeys {
		if br := ByRoom(raw[k]); br != nil {
			s.ByRoom = br
			break
		}
	}
	return s
}
