package repositories

import (
	"context"
	"fmt"
	"strings"

	"hangspot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateRepository defines the interface for Wifi / Hangout update operations.
// All reads return aggregated rows: author username and like count included.
type UpdateRepository interface {
	Create(ctx context.Context, kind models.UpdateKind, userID uint, spot models.Spot, wifiStrength int) (uint, error)
	Update(ctx context.Context, kind models.UpdateKind, id uint, spot models.Spot, wifiStrength int) error
	Delete(ctx context.Context, kind models.UpdateKind, id uint) error
	Find(ctx context.Context, kind models.UpdateKind, id uint) (*models.FeedItem, error)
	Count(ctx context.Context, kind models.UpdateKind) (int64, error)
	List(ctx context.Context, kind models.UpdateKind, offset, limit int) ([]models.FeedItem, error)
	ListByUser(ctx context.Context, kind models.UpdateKind, userID uint) ([]models.FeedItem, error)
}

// GormUpdateRepository implements UpdateRepository with gorm
type GormUpdateRepository struct {
	db *gorm.DB
}

func NewGormUpdateRepository(db *gorm.DB) *GormUpdateRepository {
	return &GormUpdateRepository{db: db}
}

func tableFor(kind models.UpdateKind) string {
	if kind == models.KindWifi {
		return "wifi_updates"
	}
	return "hangout_updates"
}

// likeColumn 返回 likes 表中指向该类型分享的外键列
func likeColumn(kind models.UpdateKind) string {
	if kind == models.KindWifi {
		return "wifi_id"
	}
	return "hangout_id"
}

func modelFor(kind models.UpdateKind) interface{} {
	if kind == models.KindWifi {
		return &models.WifiUpdate{}
	}
	return &models.HangoutUpdate{}
}

// feedQuery builds
//
//	SELECT t.*, users.username AS updater, COUNT(likes.id) AS likes_count
//	FROM t LEFT JOIN likes ... LEFT JOIN users ...
//	GROUP BY t.id, users.username
func (r *GormUpdateRepository) feedQuery(ctx context.Context, kind models.UpdateKind) *gorm.DB {
	t := tableFor(kind)
	cols := []string{"id", "name", "address", "opening_time", "closing_time", "description", "image", "available_days", "user_id"}
	if kind == models.KindWifi {
		cols = append(cols, "wifi_strength")
	}
	for i, c := range cols {
		cols[i] = t + "." + c
	}

	return r.db.WithContext(ctx).
		Table(t).
		Select(strings.Join(cols, ", ")+", users.username AS updater, COUNT(likes.id) AS likes_count").
		Joins(fmt.Sprintf("LEFT JOIN likes ON likes.%s = %s.id", likeColumn(kind), t)).
		Joins(fmt.Sprintf("LEFT JOIN users ON users.id = %s.user_id", t)).
		Group(t + ".id, users.username").
		Order(t + ".id ASC")
}

func withKind(items []models.FeedItem, kind models.UpdateKind) []models.FeedItem {
	for i := range items {
		items[i].Kind = kind
	}
	return items
}

func (r *GormUpdateRepository) Create(ctx context.Context, kind models.UpdateKind, userID uint, spot models.Spot, wifiStrength int) (uint, error) {
	tx := r.db.WithContext(ctx).Omit(clause.Associations)
	if kind == models.KindWifi {
		update := models.WifiUpdate{Spot: spot, WifiStrength: wifiStrength, UserID: userID}
		if err := tx.Create(&update).Error; err != nil {
			return 0, err
		}
		return update.ID, nil
	}

	update := models.HangoutUpdate{Spot: spot, UserID: userID}
	if err := tx.Create(&update).Error; err != nil {
		return 0, err
	}
	return update.ID, nil
}

// Update overwrites the editable fields of an existing row in place.
func (r *GormUpdateRepository) Update(ctx context.Context, kind models.UpdateKind, id uint, spot models.Spot, wifiStrength int) error {
	values := map[string]interface{}{
		"name":           spot.Name,
		"address":        spot.Address,
		"opening_time":   spot.OpeningTime,
		"closing_time":   spot.ClosingTime,
		"description":    spot.Description,
		"image":          spot.Image,
		"available_days": spot.AvailableDays,
	}
	if kind == models.KindWifi {
		values["wifi_strength"] = wifiStrength
	}

	res := r.db.WithContext(ctx).Model(modelFor(kind)).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the update and every like pointing at it in one transaction.
func (r *GormUpdateRepository) Delete(ctx context.Context, kind models.UpdateKind, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(likeColumn(kind)+" = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}

		res := tx.Delete(modelFor(kind), id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormUpdateRepository) Find(ctx context.Context, kind models.UpdateKind, id uint) (*models.FeedItem, error) {
	var items []models.FeedItem
	err := r.feedQuery(ctx, kind).
		Where(tableFor(kind)+".id = ?", id).
		Limit(1).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &withKind(items, kind)[0], nil
}

func (r *GormUpdateRepository) Count(ctx context.Context, kind models.UpdateKind) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(modelFor(kind)).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormUpdateRepository) List(ctx context.Context, kind models.UpdateKind, offset, limit int) ([]models.FeedItem, error) {
	items := []models.FeedItem{}
	if limit <= 0 {
		return items, nil
	}
	if err := r.feedQuery(ctx, kind).Offset(offset).Limit(limit).Scan(&items).Error; err != nil {
		return nil, err
	}
	return withKind(items, kind), nil
}

func (r *GormUpdateRepository) ListByUser(ctx context.Context, kind models.UpdateKind, userID uint) ([]models.FeedItem, error) {
	items := []models.FeedItem{}
	err := r.feedQuery(ctx, kind).
		Where(tableFor(kind)+".user_id = ?", userID).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return withKind(items, kind), nil
}
