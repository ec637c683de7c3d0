package repositories

import (
	"context"

	"hangspot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	Toggle(ctx context.Context, userID uint, kind models.UpdateKind, updateID uint) (bool, error)
	LikedIDs(ctx context.Context, userID uint, kind models.UpdateKind, updateIDs []uint) (map[uint]bool, error)
}

// GormLikeRepository implements LikeRepository with gorm
type GormLikeRepository struct {
	db *gorm.DB
}

func NewGormLikeRepository(db *gorm.DB) *GormLikeRepository {
	return &GormLikeRepository{db: db}
}

// Toggle 点赞/取消点赞。已点赞则删除，否则新增；返回操作后的状态。
// 查询和写入在同一个事务里完成，唯一索引保证并发下不会出现重复行。
func (r *GormLikeRepository) Toggle(ctx context.Context, userID uint, kind models.UpdateKind, updateID uint) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(modelFor(kind)).Where("id = ?", updateID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		col := likeColumn(kind)
		res := tx.Where("user_id = ? AND "+col+" = ?", userID, updateID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		like := models.NewLike(userID, kind, updateID)
		if err := tx.Omit(clause.Associations).Create(&like).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	return liked, err
}

// LikedIDs reports which of the given updates the user has liked.
func (r *GormLikeRepository) LikedIDs(ctx context.Context, userID uint, kind models.UpdateKind, updateIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if len(updateIDs) == 0 {
		return result, nil
	}

	col := likeColumn(kind)
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND "+col+" IN ?", userID, updateIDs).
		Pluck(col, &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
