package model

// Image is an uploaded room picture.
type Image struct {
	Name string `json:"name" firestore:"name"`
	URL  string `json:"url" firestore:"url"`
}

// Ruangan represents a room. Its facility assignments live in a
// sub-collection keyed by the room id (see SaranaRuangan).
type Ruangan struct {
	ID          string  `gorm:"primaryKey;size:64" json:"id" firestore:"-"`
	Name        string  `gorm:"size:256;not null" json:"name" firestore:"name"`
	Code        string  `gorm:"size:64" json:"code" firestore:"code"`
	KategoriID  string  `gorm:"size:64;index" json:"kategoriId" firestore:"kategoriId"`
	Location    string  `gorm:"size:256" json:"location" firestore:"location"`
	Capacity    int     `json:"capacity" firestore:"capacity"`
	Description string  `gorm:"size:1024" json:"description" firestore:"description"`
	Images      []Image `gorm:"serializer:json" json:"images" firestore:"images"`

	// Version is bumped on every successful room update and checked
	// against the caller's copy before writing.
	Version int64 `gorm:"not null" json:"version" firestore:"version"`
}

func (Ruangan) TableName() string { return "ruangan" }
