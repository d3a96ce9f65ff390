package model

import "time"

const TableNamePreference = "preference"

// Preference mapped from table <preference>
type Preference struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id" form:"id"`
	Key       string    `gorm:"column:key;size:128;not null;uniqueIndex:idx_preference_key" json:"key" form:"key"`
	Value     string    `gorm:"column:value;type:text" json:"value" form:"value"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt" form:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt" form:"updatedAt"`
}

// TableName Preference's table name
func (*Preference) TableName() string {
	return TableNamePreference
}
