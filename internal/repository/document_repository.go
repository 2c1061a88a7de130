package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Replace stores doc as the only document of its session.
func (r *DocumentRepository) Replace(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", doc.SessionID).Delete(&model.Document{}).Error; err != nil {
			return fmt.Errorf("delete previous document failed: %w", err)
		}
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("create document failed: %w", err)
		}
		return nil
	})
}

func (r *DocumentRepository) GetBySessionID(ctx context.Context, sessionID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) UpdateSummary(ctx context.Context, id uint, summary string) error {
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Update("summary", summary).Error; err != nil {
		return fmt.Errorf("update document summary failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteBySessionID(ctx context.Context, sessionID uint) error {
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
