package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint" firestore:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh" firestore:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth" firestore:"auth"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt" firestore:"createdAt"`

	// RuanganIDs lists the rooms the subscriber follows. The SQL backend
	// keeps it in the join table behind Ruangan.
	RuanganIDs []string `gorm:"-" json:"ruanganIds" firestore:"ruanganIds"`

	// Associations
	Ruangan []*Ruangan `gorm:"many2many:subscription_ruangan;" json:"-" firestore:"-"`
}
