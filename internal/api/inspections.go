package api

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/normalize"
)

// 后端 id_utils 的校验规则：前缀 + 合法字符 + 长度范围
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewInspectionID 生成客户端侧的巡检 id（后端要求 inspection_ 前缀）
func NewInspectionID() string {
	return "inspection_" + uuid.New().String()
}

// NewPhotoID 生成客户端侧的照片 id（后端要求 photo_ 前缀）
func NewPhotoID() string {
	return "photo_" + uuid.New().String()
}

// ValidateID 按后端规则预校验 id，避免一次注定失败的网络往返
func ValidateID(id, prefix string) error {
	if id == "" {
		return fmt.Errorf("id must be a non-empty string")
	}
	if len(id) < 6 || len(id) > 250 {
		return fmt.Errorf("id length out of range")
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("id contains invalid characters")
	}
	for _, p := range []string{prefix + "_", prefix + "-", prefix[:1] + "-"} {
		if len(id) > len(p) && id[:len(p)] == p {
			return nil
		}
	}
	return fmt.Errorf("id must start with %s_ or %s-", prefix, prefix)
}

// CompletenessResult 服务端完成度判定结果
type CompletenessResult struct {
	Complete       bool             `json:"complete"`
	Reason         string           `json:"reason,omitempty"`
	Missing        []map[string]any `json:"missing,omitempty"`
	TotalExpected  int              `json:"total_expected,omitempty"`
	CompletedCount int              `json:"completed_count,omitempty"`
}

// SaveResult save_inspection 的结果
// Inspection 是服务端保存后回读的权威元数据（状态、completedAt、缓存汇总）
type SaveResult struct {
	Written    int
	Complete   *CompletenessResult
	Inspection *models.Inspection
}

// CreateInspection 创建巡检（id 由客户端生成并通过校验）
func (c *Client) CreateInspection(ctx context.Context, ins models.Inspection) (models.Inspection, error) {
	if err := ValidateID(ins.ID, "inspection"); err != nil {
		return models.Inspection{}, fmt.Errorf("create_inspection: %w", err)
	}
	var out struct {
		InspectionID   string         `json:"inspection_id"`
		InspectionData map[string]any `json:"inspectionData"`
	}
	body := map[string]any{"action": "create_inspection", "inspection": ins}
	if err := c.postJSON(ctx, c.endpoints.CreateInspectionURL, body, &out); err != nil {
		return models.Inspection{}, fmt.Errorf("create_inspection: %w", err)
	}
	if out.InspectionData != nil {
		return normalize.Inspection(out.InspectionData), nil
	}
	ins.ID = out.InspectionID
	return ins, nil
}

// SaveInspection 全量覆盖保存某房间的条目列表（不是增量 patch）
// 是否转为 completed 由服务端决定
func (c *Client) SaveInspection(ctx context.Context, ins models.Inspection) (SaveResult, error) {
	var out struct {
		Written        int             `json:"written"`
		Complete       json.RawMessage `json:"complete"`
		InspectionData map[string]any  `json:"inspectionData"`
	}
	body := map[string]any{"action": "save_inspection", "inspection": ins}
	if err := c.postJSON(ctx, c.endpoints.InspectionsURL, body, &out); err != nil {
		return SaveResult{}, fmt.Errorf("save_inspection: %w", err)
	}

	result := SaveResult{Written: out.Written}
	if len(out.Complete) > 0 && string(out.Complete) != "null" {
		var comp CompletenessResult
		if err := json.Unmarshal(out.Complete, &comp); err == nil {
			result.Complete = &comp
		}
	}
	if out.InspectionData != nil {
		meta := normalize.Inspection(out.InspectionData)
		result.Inspection = &meta
	}
	return result, nil
}

// ListInspections 拉取巡检列表
// completedLimit：>0 限制已完成数量，-1 不限制，0 跳过已完成
// 兼容两种响应形态：分区的 {completed, ongoing} 和平铺的 {inspections}
// （平铺形态按状态在客户端分区）
func (c *Client) ListInspections(ctx context.Context, completedLimit int) (completed, ongoing []models.Inspection, err error) {
	var out struct {
		Completed   []map[string]any `json:"completed"`
		Ongoing     []map[string]any `json:"ongoing"`
		Inspections []map[string]any `json:"inspections"`
	}
	body := map[string]any{"action": "list_inspections", "completed_limit": completedLimit}
	if err := c.postJSON(ctx, c.endpoints.InspectionsURL, body, &out); err != nil {
		return nil, nil, fmt.Errorf("list_inspections: %w", err)
	}

	if out.Completed != nil || out.Ongoing != nil {
		for _, raw := range out.Completed {
			completed = append(completed, normalize.Inspection(raw))
		}
		for _, raw := range out.Ongoing {
			ongoing = append(ongoing, normalize.Inspection(raw))
		}
		return completed, ongoing, nil
	}

	for _, raw := range out.Inspections {
		ins := normalize.Inspection(raw)
		if ins.Status == models.InspectionCompleted {
			completed = append(completed, ins)
		} else {
			ongoing = append(ongoing, ins)
		}
	}
	return completed, ongoing, nil
}

// GetInspection 拉取某次巡检的条目记录（roomID 非空时按房间过滤）
// 元数据行在规范化时被过滤，不会出现在返回值里
func (c *Client) GetInspection(ctx context.Context, inspectionID, roomID string) ([]models.InspectionItem, error) {
	var out struct {
		Items []map[string]any `json:"items"`
	}
	body := map[string]any{"action": "get_inspection", "inspection_id": inspectionID}
	if roomID != "" {
		body["roomId"] = roomID
	}
	if err := c.postJSON(ctx, c.endpoints.InspectionsURL, body, &out); err != nil {
		return nil, fmt.Errorf("get_inspection: %w", err)
	}

	items := make([]models.InspectionItem, 0, len(out.Items))
	for _, raw := range out.Items {
		if item, ok := normalize.InspectionItem(raw); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// GetInspectionSummary 拉取服务端缓存的汇总
// 服务端明确返回空汇总时返回 ErrNoSummary
func (c *Client) GetInspectionSummary(ctx context.Context, inspectionID string) (models.Summary, error) {
	var out map[string]any
	body := map[string]any{"action": "get_inspection_summary", "inspection_id": inspectionID}
	if err := c.postJSON(ctx, c.endpoints.InspectionsURL, body, &out); err != nil {
		return models.Summary{}, fmt.Errorf("get_inspection_summary: %w", err)
	}

	summary := normalize.Summary(out)
	if summary.Totals == nil {
		return models.Summary{}, fmt.Errorf("get_inspection_summary: %w", ErrNoSummary)
	}
	return summary, nil
}

// CheckInspectionComplete 触发服务端完成度判定（诊断用）
func (c *Client) CheckInspectionComplete(ctx context.Context, inspectionID, venueID string) (CompletenessResult, error) {
	var out CompletenessResult
	body := map[string]any{
		"action":        "check_inspection_complete",
		"inspection_id": inspectionID,
		"venueId":       venueID,
	}
	if err := c.postJSON(ctx, c.endpoints.InspectionsURL, body, &out); err != nil {
		return CompletenessResult{}, fmt.Errorf("check_inspection_complete: %w", err)
	}
	return out, nil
}

// DeleteInspection 删除巡检；cascade 为 true 时同时删除关联照片
func (c *Client) DeleteInspection(ctx context.Context, inspectionID string, cascade bool) error {
	body := map[string]any{
		"action":        "delete_inspection",
		"inspection_id": inspectionID,
		"cascade":       cascade,
	}
	if err := c.postJSON(ctx, c.endpoints.DeleteInspectionURL, body, nil); err != nil {
		return fmt.Errorf("delete_inspection: %w", err)
	}
	return nil
}
