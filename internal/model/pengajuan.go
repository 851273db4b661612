package model

import "time"

// PengajuanStatus is the lifecycle state of a facility request.
type PengajuanStatus string

const (
	StatusPending  PengajuanStatus = "pending"
	StatusApproved PengajuanStatus = "approved"
	StatusRejected PengajuanStatus = "rejected"
	StatusCanceled PengajuanStatus = "canceled"
)

// Valid reports whether s is one of the known status literals.
func (s PengajuanStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// Pengajuan is a request to assign a facility to a room.
type Pengajuan struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id" firestore:"-"`
	RuanganID   string          `gorm:"size:64;index" json:"ruanganId" firestore:"ruanganId"`
	SaranaID    string          `gorm:"size:64" json:"saranaId" firestore:"saranaId"`
	Quantity    int             `gorm:"not null" json:"quantity" firestore:"quantity"`
	Description string          `gorm:"size:1024" json:"description" firestore:"description"`
	Status      PengajuanStatus `gorm:"size:16;index;not null" json:"status" firestore:"status"`
	CreatedAt   time.Time       `json:"createdAt" firestore:"createdAt"`
}

func (Pengajuan) TableName() string { return "pengajuan" }
