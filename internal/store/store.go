package store

import (
	"context"
	"errors"

	"ruangan-admin-backend/internal/model"
)

var (
	// ErrNotFound is wrapped together with the backend's own error when a
	// document addressed by id does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrVersionConflict is returned by UpdateRuangan when the stored room
	// version differs from the caller's.
	ErrVersionConflict = errors.New("room was modified concurrently")
)

// Stats are the dashboard totals.
type Stats struct {
	TotalSarana   int64 `json:"totalSarana"`
	TotalRuangan  int64 `json:"totalRuangan"`
	TotalKategori int64 `json:"totalKategori"`
}

// Store defines the interface for all document store operations.
type Store interface {
	AddKategori(ctx context.Context, k model.Kategori) (model.Kategori, error)
	GetKategori(ctx context.Context, id string) (model.Kategori, error)
	ListKategori(ctx context.Context) ([]model.Kategori, error)
	UpdateKategori(ctx context.Context, k model.Kategori) (model.Kategori, error)
	DeleteKategori(ctx context.Context, id string) error

	AddSarana(ctx context.Context, s model.Sarana) (model.Sarana, error)
	GetSarana(ctx context.Context, id string) (model.Sarana, error)
	ListSarana(ctx context.Context) ([]model.Sarana, error)
	UpdateSarana(ctx context.Context, s model.Sarana) (model.Sarana, error)
	DeleteSarana(ctx context.Context, id string) error

	AddRuangan(ctx context.Context, r model.Ruangan) (model.Ruangan, error)
	GetRuangan(ctx context.Context, id string) (model.Ruangan, error)
	ListRuangan(ctx context.Context) ([]model.Ruangan, error)
	// UpdateRuangan writes the room and replaces its whole facility
	// assignment sub-collection in one transaction.
	UpdateRuangan(ctx context.Context, r model.Ruangan, sarana []model.SaranaRuangan) (model.Ruangan, error)
	DeleteRuangan(ctx context.Context, id string) error
	// SetRuanganImages overwrites the images field of a room.
	SetRuanganImages(ctx context.Context, id string, images []model.Image) error
	// ListSaranaRuangan returns the sub-collection filed under parentID.
	ListSaranaRuangan(ctx context.Context, parentID string) ([]model.SaranaRuangan, error)

	AddPengajuan(ctx context.Context, p model.Pengajuan) (model.Pengajuan, error)
	GetPengajuan(ctx context.Context, id string) (model.Pengajuan, error)
	// ListPengajuan returns requests newest first; an empty status lists all.
	ListPengajuan(ctx context.Context, status model.PengajuanStatus) ([]model.Pengajuan, error)
	CancelPengajuan(ctx context.Context, id string) error
	RejectPengajuan(ctx context.Context, id string) error
	DeletePengajuan(ctx context.Context, id string) error
	// ApprovePengajuan marks the request approved and creates the facility
	// assignment in the same transaction. The assignment is filed under the
	// request id rather than the request's room id.
	ApprovePengajuan(ctx context.Context, id string) (model.SaranaRuangan, error)

	Stats(ctx context.Context) (Stats, error)

	SaveSubscription(ctx context.Context, sub model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptionsForRoom(ctx context.Context, ruanganID string) ([]model.PushSubscription, error)
}

// approvedAssignment builds the facility assignment created by approving p.
func approvedAssignment(p model.Pengajuan) model.SaranaRuangan {
	return model.SaranaRuangan{
		ParentRuanganID: p.ID,
		RuanganID:       p.RuanganID,
		SaranaID:        p.SaranaID,
		Quantity:        p.Quantity,
		Condition:       model.ConditionGood,
	}
}

// uniqueIDs drops duplicates from ids, keeping first occurrences in order.
// The result is never nil.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
