package model

import "time"

// Document is the current document of a session. RawText is kept so the
// in-memory index can be rebuilt after a restart.
type Document struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	SessionID         uint      `gorm:"not null;uniqueIndex" json:"session_id"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	Name              string    `gorm:"size:256;not null" json:"name"`
	ContentHash       string    `gorm:"size:64;not null;index" json:"content_hash"`
	RawText           string    `gorm:"type:longtext;not null" json:"-"`
	ChunkCount        int       `gorm:"not null" json:"chunk_count"`
	SummaryChunkCount int       `gorm:"not null" json:"summary_chunk_count"`
	Summary           string    `gorm:"type:text" json:"summary,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
