package api

import (
	"context"
	"fmt"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
)

// GetDashboard 拉取仪表盘聚合数据
// days 为统计窗口天数，指标全部由服务端计算，客户端不做二次推导
func (c *Client) GetDashboard(ctx context.Context, days int) (models.Dashboard, error) {
	body := map[string]any{"action": "get_dashboard", "days": days}
	var out models.Dashboard
	if err := c.postJSON(ctx, c.endpoints.DashboardURL, body, &out); err != nil {
		return models.Dashboard{}, fmt.Errorf("get dashboard: %w", err)
	}
	return out, nil
}
