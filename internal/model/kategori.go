package model

// Kategori classifies rooms.
type Kategori struct {
	ID          string `gorm:"primaryKey;size:64" json:"id" firestore:"-"`
	Name        string `gorm:"size:256;not null" json:"name" firestore:"name"`
	Description string `gorm:"size:1024" json:"description" firestore:"description"`
}

func (Kategori) TableName() string { return "kategori" }
