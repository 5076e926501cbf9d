package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 巡检客户端配置
// 各 Lambda 端点是独立的 URL（见 API 网关部署形态），逐个配置
type Config struct {
	API  APIConfig
	HTTP HTTPConfig
	Auth AuthConfig
	Home HomeConfig
	Log  LogConfig
}

// APIConfig 后端端点地址
type APIConfig struct {
	VenuesURL           string `envconfig:"VENUES_URL"`
	InspectionsURL      string `envconfig:"INSPECTIONS_URL"`
	CreateInspectionURL string `envconfig:"CREATE_INSPECTION_URL"`
	DeleteInspectionURL string `envconfig:"DELETE_INSPECTION_URL"`
	SignUploadURL       string `envconfig:"SIGN_UPLOAD_URL"`
	RegisterImageURL    string `envconfig:"REGISTER_IMAGE_URL"`
	ListImagesURL       string `envconfig:"LIST_IMAGES_URL"`
	DeleteImageDBURL    string `envconfig:"DELETE_IMAGE_DB_URL"`
	DeleteS3URL         string `envconfig:"DELETE_S3_URL"`
	DashboardURL        string `envconfig:"DASHBOARD_URL"`
}

// HTTPConfig HTTP 客户端行为
type HTTPConfig struct {
	Timeout          time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	RetryCount       int           `envconfig:"HTTP_RETRY_COUNT" default:"3"`
	RetryWaitTime    time.Duration `envconfig:"HTTP_RETRY_WAIT" default:"1s"`
	RetryMaxWaitTime time.Duration `envconfig:"HTTP_RETRY_MAX_WAIT" default:"5s"`
}

// AuthConfig 认证提供方签发的 ID Token（客户端只解码身份展示字段，
// 校验是后端/提供方的职责）
type AuthConfig struct {
	IDToken string `envconfig:"ID_TOKEN"`
}

// HomeConfig 首页行为
type HomeConfig struct {
	// 首页展示的已完成巡检数量上限；-1 表示不限制，0 表示不取已完成
	CompletedLimit int `envconfig:"COMPLETED_LIMIT" default:"6"`
	// 仪表盘趋势天数（1..365）
	DashboardDays int `envconfig:"DASHBOARD_DAYS" default:"7"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load 加载配置：先读 .env（存在时），再读 INSPECTION_ 前缀的环境变量
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("inspection", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if cfg.Home.DashboardDays <= 0 || cfg.Home.DashboardDays > 365 {
		cfg.Home.DashboardDays = 7
	}
	return cfg, nil
}
