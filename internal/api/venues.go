package api

import (
	"context"
	"fmt"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/normalize"
)

// GetVenues 拉取全部场馆定义
func (c *Client) GetVenues(ctx context.Context) ([]models.Venue, error) {
	var out struct {
		Venues []map[string]any `json:"venues"`
	}
	body := map[string]any{"action": "get_venues"}
	if err := c.postJSON(ctx, c.endpoints.VenuesURL, body, &out); err != nil {
		return nil, fmt.Errorf("get_venues: %w", err)
	}

	venues := make([]models.Venue, 0, len(out.Venues))
	for _, raw := range out.Venues {
		venues = append(venues, normalize.Venue(raw))
	}
	return venues, nil
}

// SaveVenue 创建或更新场馆（update 为 true 且带 venueId 时为覆盖更新）
func (c *Client) SaveVenue(ctx context.Context, venue models.Venue, update bool) (models.Venue, error) {
	action := "create_venue"
	if update {
		action = "update_venue"
	}
	var out struct {
		Venue map[string]any `json:"venue"`
	}
	body := map[string]any{"action": action, "venue": venue}
	if err := c.postJSON(ctx, c.endpoints.VenuesURL, body, &out); err != nil {
		return models.Venue{}, fmt.Errorf("%s: %w", action, err)
	}
	return normalize.Venue(out.Venue), nil
}

// DeleteVenue 删除场馆（服务端级联删除关联巡检）
func (c *Client) DeleteVenue(ctx context.Context, venueID string) error {
	body := map[string]any{"action": "delete_venue", "venueId": venueID}
	if err := c.postJSON(ctx, c.endpoints.VenuesURL, body, nil); err != nil {
		return fmt.Errorf("delete_venue: %w", err)
	}
	return nil
}
