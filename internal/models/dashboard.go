package models

// Dashboard 仪表盘数据（服务端预聚合，客户端不得自行重算）
type Dashboard struct {
	Metrics              DashboardMetrics       `json:"metrics"`
	RecentCompleted      []int                  `json:"recentCompleted"`
	RecentInspections    []RecentInspection     `json:"recentInspections"`
	VenueAnalytics       []VenueAnalytics       `json:"venueAnalytics"`
	InspectorPerformance []InspectorPerformance `json:"inspectorPerformance"`
	CompletionTrend30d   []int                  `json:"completionTrend30d"`
}

// DashboardMetrics 顶部指标卡
// FailRate 在没有任何已统计条目时为 nil
type DashboardMetrics struct {
	TotalInspections int      `json:"totalInspections"`
	Ongoing          int      `json:"ongoing"`
	Completed        int      `json:"completed"`
	FailRate         *float64 `json:"failRate"`
	ImagesCount      int      `json:"imagesCount"`
}

// RecentInspection 最近完成的巡检（仪表盘列表）
type RecentInspection struct {
	InspectionID string `json:"inspection_id"`
	VenueName    string `json:"venueName"`
	RoomName     string `json:"roomName"`
	CompletedAt  string `json:"completedAt"`
}

// VenueAnalytics 按场馆聚合的统计
type VenueAnalytics struct {
	Venue          string   `json:"venue"`
	VenueID        string   `json:"venueId"`
	Inspections    int      `json:"inspections"`
	FailRate       float64  `json:"failRate"`
	TotalFails     int      `json:"totalFails"`
	TotalItems     int      `json:"totalItems"`
	ExpectedItems  int      `json:"expectedItems"`
	CompletionRate *float64 `json:"completionRate"`
}

// InspectorPerformance 按巡检员聚合的统计
type InspectorPerformance struct {
	Inspector    string  `json:"inspector"`
	Completed    int     `json:"completed"`
	PassRate     float64 `json:"passRate"`
	AvgTimeHours float64 `json:"avgTimeHours"`
}
