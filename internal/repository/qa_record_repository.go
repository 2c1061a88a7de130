package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
)

type QARecordRepository struct {
	db *gorm.DB
}

func NewQARecordRepository(db *gorm.DB) *QARecordRepository {
	return &QARecordRepository{db: db}
}

func (r *QARecordRepository) Create(ctx context.Context, record *model.QARecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("create qa record failed: %w", err)
	}
	return nil
}

func (r *QARecordRepository) ListBySessionID(ctx context.Context, sessionID uint, limit int) ([]model.QARecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var records []model.QARecord
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list qa records failed: %w", err)
	}
	return records, nil
}
