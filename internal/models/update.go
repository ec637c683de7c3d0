package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// UpdateKind 区分两种分享：Wifi 点位和 Hangout 点位
type UpdateKind string

const (
	KindWifi    UpdateKind = "Wifi"
	KindHangout UpdateKind = "Hangout"
)

// AllKinds is the order in which the combined feed lists updates.
var AllKinds = []UpdateKind{KindWifi, KindHangout}

// ParseUpdateKind accepts "wifi", "Wifi", "HANGOUT" and so on.
func ParseUpdateKind(s string) (UpdateKind, bool) {
	switch strings.ToLower(s) {
	case "wifi":
		return KindWifi, true
	case "hangout":
		return KindHangout, true
	}
	return "", false
}

func (k UpdateKind) String() string {
	return string(k)
}

// WeekdayCodes in calendar order.
var WeekdayCodes = []string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// Weekdays is stored as a flat comma separated list, e.g. "MON,WED,SUN".
type Weekdays []string

func (w Weekdays) Value() (driver.Value, error) {
	return strings.Join(w, ","), nil
}

func (w *Weekdays) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("weekdays: unsupported source type %T", src)
	}

	if s == "" {
		*w = nil
		return nil
	}
	*w = strings.Split(s, ",")
	return nil
}

func (w Weekdays) Has(day string) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

func (w Weekdays) String() string {
	return strings.Join(w, ", ")
}

// Spot 两种分享共有的字段
type Spot struct {
	Name          string   `gorm:"not null" json:"name"`
	Address       string   `json:"address"`
	OpeningTime   string   `gorm:"size:16" json:"opening_time"` // 12 小时制展示格式，如 9:30AM
	ClosingTime   string   `gorm:"size:16" json:"closing_time"`
	Description   string   `gorm:"type:text" json:"description"`
	Image         string   `json:"image"` // 图片访问路径
	AvailableDays Weekdays `gorm:"type:varchar(64)" json:"available_days"`
}

type WifiUpdate struct {
	ID uint `gorm:"primaryKey" json:"id"`
	Spot
	WifiStrength int       `gorm:"default:0" json:"wifi_strength"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type HangoutUpdate struct {
	ID uint `gorm:"primaryKey" json:"id"`
	Spot
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeedItem is one aggregated feed row: the update's columns plus the author's
// username and the number of likes.
type FeedItem struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	OpeningTime   string   `json:"opening_time"`
	ClosingTime   string   `json:"closing_time"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	AvailableDays Weekdays `json:"available_days"`
	WifiStrength  *int     `json:"wifi_strength,omitempty"` // Hangout 没有该字段
	UserID        uint     `json:"user_id"`
	Updater       string   `json:"updater"`
	LikesCount    int64    `json:"likes_count"`

	// 非数据库字段，用于查询后填充
	Kind  UpdateKind `gorm:"-" json:"type"`
	Liked bool       `gorm:"-" json:"liked"`
}
