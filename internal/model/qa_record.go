package model

import "time"

type QARecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     uint      `gorm:"not null;index" json:"session_id"`
	DocumentID    uint      `gorm:"not null;index" json:"document_id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Question      string    `gorm:"type:text;not null" json:"question"`
	Answer        string    `gorm:"type:text;not null" json:"answer"`
	Context       string    `gorm:"type:text;not null" json:"context"`
	ContextIndex  int       `gorm:"not null" json:"context_index"`
	Score         float64   `gorm:"not null" json:"score"`
	LowConfidence bool      `gorm:"not null;default:false" json:"low_confidence"`
	CreatedAt     time.Time `json:"created_at"`
}
