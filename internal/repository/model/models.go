package model

import "time"

type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;index:idx_messages_room_id,priority:2"`
	Room      string    `gorm:"size:255;not null;index:idx_messages_room_id,priority:1"`
	Username  string    `gorm:"size:24;not null"`
	Text      string    `gorm:"size:1000;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
