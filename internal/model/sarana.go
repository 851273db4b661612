package model

// Sarana is a facility or piece of equipment that can be assigned to rooms.
type Sarana struct {
	ID          string `gorm:"primaryKey;size:64" json:"id" firestore:"-"`
	Name        string `gorm:"size:256;not null" json:"name" firestore:"name"`
	Code        string `gorm:"size:64" json:"code" firestore:"code"`
	Description string `gorm:"size:1024" json:"description" firestore:"description"`
}

func (Sarana) TableName() string { return "sarana" }
