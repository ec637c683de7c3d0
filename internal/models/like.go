package models

import (
	"time"
)

// Like 用户对一条分享的点赞，WifiID 与 HangoutID 有且仅有一个非空。
// (user_id, wifi_id) 和 (user_id, hangout_id) 各自唯一，同一用户不能重复点赞。
type Like struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_like_user_wifi;uniqueIndex:idx_like_user_hangout" json:"user_id"`
	User      User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	WifiID    *uint          `gorm:"uniqueIndex:idx_like_user_wifi" json:"wifi_id"`
	Wifi      *WifiUpdate    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	HangoutID *uint          `gorm:"uniqueIndex:idx_like_user_hangout" json:"hangout_id"`
	Hangout   *HangoutUpdate `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewLike builds the like row pointing at the right update column.
func NewLike(userID uint, kind UpdateKind, updateID uint) Like {
	like := Like{UserID: userID}
	id := updateID
	if kind == KindWifi {
		like.WifiID = &id
	} else {
		like.HangoutID = &id
	}
	return like
}
