package models

// 巡检条目状态（与后端约定的四态，小写）
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusNA      = "na"
	StatusPending = "pending"
)

// 巡检单整体状态
// completed 只能由后端写入（服务端权威），客户端只读
const (
	InspectionDraft      = "draft"
	InspectionInProgress = "in-progress"
	InspectionCompleted  = "completed"
)

// ValidItemStatus 判断是否为合法的条目状态
func ValidItemStatus(s string) bool {
	switch s {
	case StatusPass, StatusFail, StatusNA, StatusPending:
		return true
	}
	return false
}

// StatusCounts 状态计数（按房间或整单汇总）
// 不变式：Total == Pass + Fail + NA + Pending，所有字段非负
type StatusCounts struct {
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	NA      int `json:"na"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

// ItemDefinition 场馆静态检查项定义（归属于一个 Room）
type ItemDefinition struct {
	ID   string `json:"itemId"`
	Name string `json:"itemName"`
}

// Room 房间定义（归属于一个 Venue）
type Room struct {
	ID    string           `json:"roomId"`
	Name  string           `json:"roomName"`
	Items []ItemDefinition `json:"items"`
}

// Venue 场馆定义（巡检的静态检查表结构）
type Venue struct {
	ID        string `json:"venueId"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Rooms     []Room `json:"rooms"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
}

// ItemCount 场馆全部房间的检查项总数
func (v Venue) ItemCount() int {
	n := 0
	for _, r := range v.Rooms {
		n += len(r.Items)
	}
	return n
}

// Photo 条目照片
// Status 为 pending 时是仅存在于本地的待上传照片（Data 持有原始内容，
// Preview 为客户端生成的预览地址）；上传并注册成功后替换为服务端身份
type Photo struct {
	ID          string `json:"id"`
	ImageID     string `json:"imageId,omitempty"`
	S3Key       string `json:"s3Key,omitempty"`
	Preview     string `json:"preview,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Filesize    int64  `json:"filesize,omitempty"`
	UploadedBy  string `json:"uploadedBy,omitempty"`
	UploadedAt  string `json:"uploadedAt,omitempty"`
	Status      string `json:"status"` // "pending" | "uploaded"

	// 待上传的原始内容，不进入任何保存/注册载荷
	Data []byte `json:"-"`
}

// PhotoPending Photo.Status 的本地待上传值
const PhotoPending = "pending"

// PhotoUploaded Photo.Status 的已上传值
const PhotoUploaded = "uploaded"

// InspectionItem 单次巡检中某个检查项的记录
type InspectionItem struct {
	ID       string  `json:"itemId"`
	Name     string  `json:"itemName"`
	Status   string  `json:"status"`
	Notes    string  `json:"notes"`
	RoomID   string  `json:"roomId,omitempty"`
	RoomName string  `json:"roomName,omitempty"`
	Photos   []Photo `json:"photos,omitempty"`
}

// Assessed 条目是否已被评估（pending 与缺失状态都视为未完成）
func (it InspectionItem) Assessed() bool {
	switch it.Status {
	case StatusPass, StatusFail, StatusNA:
		return true
	}
	return false
}

// Inspection 一次巡检（某场馆的一次走检实例）
// Totals / ByRoom 来自服务端在保存时缓存的汇总，列表接口可能不带（为 nil）
type Inspection struct {
	ID          string                  `json:"inspection_id"`
	VenueID     string                  `json:"venueId"`
	VenueName   string                  `json:"venueName"`
	RoomID      string                  `json:"roomId,omitempty"`
	RoomName    string                  `json:"roomName,omitempty"`
	Items       []InspectionItem        `json:"items,omitempty"`
	Status      string                  `json:"status"`
	CreatedAt   string                  `json:"createdAt,omitempty"`
	CreatedBy   string                  `json:"createdBy,omitempty"`
	UpdatedAt   string                  `json:"updatedAt,omitempty"`
	UpdatedBy   string                  `json:"updatedBy,omitempty"`
	CompletedAt string                  `json:"completedAt,omitempty"`
	Totals      *StatusCounts           `json:"totals,omitempty"`
	ByRoom      map[string]StatusCounts `json:"byRoom,omitempty"`
}

// Summary get_inspection_summary 的结果
type Summary struct {
	InspectionID string                  `json:"inspection_id"`
	Totals       *StatusCounts           `json:"totals"`
	ByRoom       map[string]StatusCounts `json:"byRoom"`
	UpdatedAt    string                  `json:"updatedAt,omitempty"`
	UpdatedBy    string                  `json:"updatedBy,omitempty"`
}
