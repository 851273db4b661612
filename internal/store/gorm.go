package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ruangan-admin-backend/internal/model"
)

// gormStore implements the Store interface using GORM. Sub-collections
// are rows keyed by their parent document id.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func newID() string {
	return uuid.NewString()
}

// notFound marks err as a missing document while keeping the driver message.
func notFound(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
}

// first loads a single row by primary key into dst.
func (s *gormStore) first(ctx context.Context, op string, dst any, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(op, err)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// update applies the selected fields of value to the row with the given id
// and fails with ErrNotFound when no row matched.
func (s *gormStore) update(ctx context.Context, op string, mdl any, value any, fields ...string) error {
	res := s.db.WithContext(ctx).Model(mdl).Select(fields).Updates(value)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(op, gorm.ErrRecordNotFound)
	}
	return nil
}

// --- Kategori ---

func (s *gormStore) AddKategori(ctx context.Context, k model.Kategori) (model.Kategori, error) {
	k.ID = newID()
	if err := s.db.WithContext(ctx).Create(&k).Error; err != nil {
		return model.Kategori{}, fmt.Errorf("add kategori: %w", err)
	}
	return k, nil
}

func (s *gormStore) GetKategori(ctx context.Context, id string) (model.Kategori, error) {
	var k model.Kategori
	err := s.first(ctx, "get kategori "+id, &k, id)
	return k, err
}

func (s *gormStore) ListKategori(ctx context.Context) ([]model.Kategori, error) {
	var list []model.Kategori
	if err := s.db.WithContext(ctx).Order("name").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list kategori: %w", err)
	}
	return list, nil
}

func (s *gormStore) UpdateKategori(ctx context.Context, k model.Kategori) (model.Kategori, error) {
	err := s.update(ctx, "update kategori "+k.ID, &model.Kategori{ID: k.ID}, k, "Name", "Description")
	if err != nil {
		return model.Kategori{}, err
	}
	return k, nil
}

func (s *gormStore) DeleteKategori(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Kategori{}).Error; err != nil {
		return fmt.Errorf("delete kategori %s: %w", id, err)
	}
	return nil
}

// --- Sarana ---

func (s *gormStore) AddSarana(ctx context.Context, sr model.Sarana) (model.Sarana, error) {
	sr.ID = newID()
	if err := s.db.WithContext(ctx).Create(&sr).Error; err != nil {
		return model.Sarana{}, fmt.Errorf("add sarana: %w", err)
	}
	return sr, nil
}

func (s *gormStore) GetSarana(ctx context.Context, id string) (model.Sarana, error) {
	var sr model.Sarana
	err := s.first(ctx, "get sarana "+id, &sr, id)
	return sr, err
}

func (s *gormStore) ListSarana(ctx context.Context) ([]model.Sarana, error) {
	var list []model.Sarana
	if err := s.db.WithContext(ctx).Order("name").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list sarana: %w", err)
	}
	return list, nil
}

func (s *gormStore) UpdateSarana(ctx context.Context, sr model.Sarana) (model.Sarana, error) {
	err := s.update(ctx, "update sarana "+sr.ID, &model.Sarana{ID: sr.ID}, sr, "Name", "Code", "Description")
	if err != nil {
		return model.Sarana{}, err
	}
	return sr, nil
}

func (s *gormStore) DeleteSarana(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Sarana{}).Error; err != nil {
		return fmt.Errorf("delete sarana %s: %w", id, err)
	}
	return nil
}

// --- Ruangan ---

func (s *gormStore) AddRuangan(ctx context.Context, r model.Ruangan) (model.Ruangan, error) {
	r.ID = newID()
	r.Version = 1
	if r.Images == nil {
		r.Images = []model.Image{}
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return model.Ruangan{}, fmt.Errorf("add ruangan: %w", err)
	}
	return r, nil
}

func (s *gormStore) GetRuangan(ctx context.Context, id string) (model.Ruangan, error) {
	var r model.Ruangan
	err := s.first(ctx, "get ruangan "+id, &r, id)
	return r, err
}

func (s *gormStore) ListRuangan(ctx context.Context) ([]model.Ruangan, error) {
	var list []model.Ruangan
	if err := s.db.WithContext(ctx).Order("name").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list ruangan: %w", err)
	}
	return list, nil
}

// UpdateRuangan compares versions, writes the room, and replaces the
// sub-collection inside a single transaction. A nil Images leaves the
// stored images as they are.
func (s *gormStore) UpdateRuangan(ctx context.Context, r model.Ruangan, sarana []model.SaranaRuangan) (model.Ruangan, error) {
	op := "update ruangan " + r.ID
	updated := r
	updated.Version = r.Version + 1

	fields := []string{"Name", "Code", "KategoriID", "Location", "Capacity", "Description", "Version"}
	if r.Images != nil {
		fields = append(fields, "Images")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Ruangan{ID: r.ID}).
			Where("version = ?", r.Version).
			Select(fields).
			Updates(&updated)
		if res.Error != nil {
			return fmt.Errorf("%s: %w", op, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Ruangan{}).Where("id = ?", r.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if count == 0 {
				return notFound(op, gorm.ErrRecordNotFound)
			}
			return fmt.Errorf("%s: %w", op, ErrVersionConflict)
		}

		if err := tx.Where("parent_ruangan_id = ?", r.ID).Delete(&model.SaranaRuangan{}).Error; err != nil {
			return fmt.Errorf("%s: clear sarana: %w", op, err)
		}

		if len(sarana) > 0 {
			rows := make([]model.SaranaRuangan, len(sarana))
			for i, a := range sarana {
				a.ID = newID()
				a.ParentRuanganID = r.ID
				a.RuanganID = r.ID
				rows[i] = a
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("%s: insert sarana: %w", op, err)
			}
		}

		if err := tx.Where("id = ?", r.ID).First(&updated).Error; err != nil {
			return fmt.Errorf("%s: reload: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return model.Ruangan{}, err
	}
	return updated, nil
}

func (s *gormStore) DeleteRuangan(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Ruangan{}).Error; err != nil {
		return fmt.Errorf("delete ruangan %s: %w", id, err)
	}
	return nil
}

func (s *gormStore) SetRuanganImages(ctx context.Context, id string, images []model.Image) error {
	if images == nil {
		images = []model.Image{}
	}
	return s.update(ctx, "set images of ruangan "+id, &model.Ruangan{ID: id}, &model.Ruangan{Images: images}, "Images")
}

func (s *gormStore) ListSaranaRuangan(ctx context.Context, parentID string) ([]model.SaranaRuangan, error) {
	var list []model.SaranaRuangan
	if err := s.db.WithContext(ctx).Where("parent_ruangan_id = ?", parentID).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list sarana of ruangan %s: %w", parentID, err)
	}
	return list, nil
}

// --- Pengajuan ---

func (s *gormStore) AddPengajuan(ctx context.Context, p model.Pengajuan) (model.Pengajuan, error) {
	p.ID = newID()
	if p.Status == "" {
		p.Status = model.StatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Pengajuan{}, fmt.Errorf("add pengajuan: %w", err)
	}
	return p, nil
}

func (s *gormStore) GetPengajuan(ctx context.Context, id string) (model.Pengajuan, error) {
	var p model.Pengajuan
	err := s.first(ctx, "get pengajuan "+id, &p, id)
	return p, err
}

func (s *gormStore) ListPengajuan(ctx context.Context, status model.PengajuanStatus) ([]model.Pengajuan, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var list []model.Pengajuan
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list pengajuan: %w", err)
	}
	return list, nil
}

func (s *gormStore) setPengajuanStatus(ctx context.Context, id string, status model.PengajuanStatus) error {
	return s.update(ctx, fmt.Sprintf("set pengajuan %s %s", id, status),
		&model.Pengajuan{ID: id}, &model.Pengajuan{Status: status}, "Status")
}

func (s *gormStore) CancelPengajuan(ctx context.Context, id string) error {
	return s.setPengajuanStatus(ctx, id, model.StatusCanceled)
}

func (s *gormStore) RejectPengajuan(ctx context.Context, id string) error {
	return s.setPengajuanStatus(ctx, id, model.StatusRejected)
}

func (s *gormStore) DeletePengajuan(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Pengajuan{}).Error; err != nil {
		return fmt.Errorf("delete pengajuan %s: %w", id, err)
	}
	return nil
}

func (s *gormStore) ApprovePengajuan(ctx context.Context, id string) (model.SaranaRuangan, error) {
	op := "approve pengajuan " + id
	var created model.SaranaRuangan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Pengajuan
		err := tx.Where("id = ?", id).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(op, err)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := tx.Model(&model.Pengajuan{ID: id}).Update("status", string(model.StatusApproved)).Error; err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		a := approvedAssignment(p)
		a.ID = newID()
		if err := tx.Create(&a).Error; err != nil {
			return fmt.Errorf("%s: insert sarana: %w", op, err)
		}
		created = a
		return nil
	})
	if err != nil {
		return model.SaranaRuangan{}, err
	}
	return created, nil
}

// --- Stats ---

func (s *gormStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.SaranaRuangan{}).Select("COALESCE(SUM(quantity), 0)").Scan(&st.TotalSarana).Error; err != nil {
		return Stats{}, fmt.Errorf("sum sarana: %w", err)
	}
	if err := db.Model(&model.Ruangan{}).Count(&st.TotalRuangan).Error; err != nil {
		return Stats{}, fmt.Errorf("count ruangan: %w", err)
	}
	if err := db.Model(&model.Kategori{}).Count(&st.TotalKategori).Error; err != nil {
		return Stats{}, fmt.Errorf("count kategori: %w", err)
	}
	return st, nil
}

// --- Push subscriptions ---

func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Omit("Ruangan").Create(&sub).Error; err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}

		ids := uniqueIDs(sub.RuanganIDs)
		var rooms []*model.Ruangan
		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Find(&rooms).Error; err != nil {
				return fmt.Errorf("save subscription: load rooms: %w", err)
			}
		}
		if len(rooms) != len(ids) {
			found := make(map[string]bool, len(rooms))
			for _, r := range rooms {
				found[r.ID] = true
			}
			for _, id := range ids {
				if !found[id] {
					return fmt.Errorf("save subscription: ruangan %s: %w", id, ErrNotFound)
				}
			}
		}

		if err := tx.Model(&sub).Association("Ruangan").Replace(&rooms); err != nil {
			return fmt.Errorf("save subscription: replace rooms: %w", err)
		}
		return nil
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Ruangan").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sub, notFound("get subscription", err)
	}
	if err != nil {
		return sub, fmt.Errorf("get subscription: %w", err)
	}
	sub.RuanganIDs = make([]string, len(sub.Ruangan))
	for i, r := range sub.Ruangan {
		sub.RuanganIDs[i] = r.ID
	}
	return sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Ruangan").Clear(); err != nil {
			return err
		}
		return tx.Delete(&sub).Error
	})
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (s *gormStore) ListSubscriptionsForRoom(ctx context.Context, ruanganID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_ruangan sr ON sr.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sr.ruangan_id = ?", ruanganID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for ruangan %s: %w", ruanganID, err)
	}
	return subs, nil
}
