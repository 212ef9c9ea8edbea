package models

import "time"

type Account struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:30"`
	PasswordHash string
	FDWIdentity  string `gorm:"size:20"`
	FDWID        uint
	Email        string `gorm:"size:254"`
	JID          string `gorm:"size:254"`
	Pubkey       string `gorm:"type:text"`
	BTC          string `gorm:"size:50"`
	IRC          string `gorm:"size:20"`
	Ricochet     string `gorm:"size:50"`
	Bitmessage   string `gorm:"size:50"`
	Description  string `gorm:"type:text"`
	Absence      string `gorm:"size:20"`
	AdminMsg     string `gorm:"size:300"`
	Alert        string `gorm:"size:10"`
	EscrowMsg    string `gorm:"size:300"`
	Banned       bool   `gorm:"index"`
	Inactive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RoleGrant struct {
	ID        uint   `gorm:"primaryKey"`
	AccountID uint   `gorm:"uniqueIndex:idx_account_role"`
	Role      string `gorm:"uniqueIndex:idx_account_role;size:20"`
	CreatedAt time.Time
}
