package models

import "time"

// WorkTopic verknüpft ein Werk mit einem Thema. Pro (work_id, topic_id)
// existiert genau eine Zeile; die erste Beobachtung gewinnt.
type WorkTopic struct {
	WorkID  string `json:"work_id" gorm:"column:work_id;uniqueIndex:idx_work_topic;not null"`
	TopicID string `json:"topic_id" gorm:"column:topic_id;uniqueIndex:idx_work_topic;not null"`

	Score     *float64 `json:"score,omitempty"`
	IsPrimary bool     `json:"is_primary" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName legt den Tabellennamen für WorkTopic fest.
func (WorkTopic) TableName() string {
	return "work_topics"
}
