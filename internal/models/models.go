package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type Account struct {
	gorm.Model
	FirstName    string `gorm:"not null" json:"firstName"`
	LastName     string `gorm:"not null" json:"lastName"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;default:'User'" json:"role"` // User или Admin
}

type Location struct {
	gorm.Model
	Title             string `gorm:"not null" json:"title"`
	Color             string `json:"color,omitempty"`
	Icon              string `json:"icon,omitempty"`
	ShowCompleteMonth bool   `gorm:"default:false" json:"showCompleteMonth"` // Выводить в отчёте каждый день месяца
	AccountID         uint   `gorm:"index;not null" json:"accountId"`
}

type Task struct {
	gorm.Model
	Title     string `gorm:"not null" json:"title"`
	Color     string `json:"color,omitempty"`
	Icon      string `json:"icon,omitempty"`
	AccountID uint   `gorm:"index;not null" json:"accountId"`
}

type Schedule struct {
	gorm.Model
	AccountID  uint      `gorm:"index;not null" json:"accountId"`
	Account    Account   `gorm:"foreignKey:AccountID" json:"account"`
	LocationID uint      `gorm:"index;not null" json:"locationId"`
	Location   Location  `gorm:"foreignKey:LocationID" json:"location"`
	TaskID     uint      `gorm:"index;not null" json:"taskId"`
	Task       Task      `gorm:"foreignKey:TaskID" json:"task"`
	TimeFrom   time.Time `gorm:"index;not null" json:"timeFrom"` // Начало брони (локальное время)
	TimeTo     time.Time `gorm:"not null" json:"timeTo"`         // Окончание брони, в тот же календарный день
	Remark     string    `json:"remark,omitempty"`
	// IsTransferred выставляется при выгрузке в PDF, после чего запись доступна только для чтения.
	IsTransferred bool  `gorm:"default:false" json:"isTransferred"`
	FileID        *uint `gorm:"index" json:"fileId,omitempty"` // Файл отчёта, в который вошла запись

	// HasConflict вычисляется детектором при каждой выборке и не хранится в базе.
	HasConflict bool `gorm:"-" json:"hasConflict"`
}

// ReportFile — сформированный PDF-отчёт, сохранённый на диске.
type ReportFile struct {
	gorm.Model
	PublicID   string `gorm:"uniqueIndex;not null" json:"publicId"` // UUID для внешних ссылок
	Name       string `gorm:"not null" json:"name"`                 // например gemeindehaus_2024_03.pdf
	Path       string `gorm:"not null" json:"-"`
	AccountID  uint   `gorm:"index;not null" json:"accountId"`
	LocationID uint   `gorm:"index;not null" json:"locationId"`
	Month      string `gorm:"not null" json:"month"` // Подпись периода, например "März 2024"
}
