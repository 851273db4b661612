package model

// ConditionGood is the condition recorded for assignments created by approval.
const ConditionGood = "good"

// SaranaRuangan assigns a quantity of a facility to a room.
type SaranaRuangan struct {
	ID string `gorm:"primaryKey;size:64" json:"id" firestore:"-"`

	// ParentRuanganID is the room whose sub-collection holds this record.
	// It normally equals RuanganID, except for records created by request
	// approval, which are filed under the request id.
	ParentRuanganID string `gorm:"size:64;index;not null" json:"-" firestore:"-"`

	RuanganID string `gorm:"size:64" json:"ruanganId" firestore:"ruanganId"`
	SaranaID  string `gorm:"size:64;index" json:"saranaId" firestore:"saranaId"`
	Quantity  int    `gorm:"not null" json:"quantity" firestore:"quantity"`
	Condition string `gorm:"size:64" json:"condition" firestore:"condition"`
}

func (SaranaRuangan) TableName() string { return "sarana_ruangan" }
