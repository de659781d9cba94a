package session

import "time"

// ConsoleSession stores one console login. Token columns hold sealed
// ciphertext, never the raw bearer tokens.
type ConsoleSession struct {
	ID               string    `gorm:"primaryKey;column:id"`
	Username         string    `gorm:"column:username;not null"`
	AccessToken      string    `gorm:"column:access_token;not null"`
	RefreshToken     string    `gorm:"column:refresh_token"`
	AccessExpiresAt  time.Time `gorm:"column:access_expires_at;not null"`
	RefreshExpiresAt time.Time `gorm:"column:refresh_expires_at;index;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	LastSeenAt       time.Time `gorm:"column:last_seen_at"`
}

func (ConsoleSession) TableName() string {
	return "console_sessions"
}
