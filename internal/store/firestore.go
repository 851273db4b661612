package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ruangan-admin-backend/internal/model"
)

// Collection names, shared with the web client.
const (
	colKategori      = "kategori"
	colRuangan       = "ruangan"
	colSarana        = "sarana"
	colPengajuan     = "pengajuan"
	colSaranaRuangan = "saranaRuangan"
	colSubscriptions = "pushSubscriptions"
)

// firestoreStore implements the Store interface on Cloud Firestore.
type firestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) Store {
	return &firestoreStore{client: client}
}

// fsErr wraps a Firestore error, marking NotFound codes with ErrNotFound.
func fsErr(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return notFound(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// getDoc reads one document into dst.
func getDoc(ctx context.Context, ref *firestore.DocumentRef, op string, dst any) error {
	snap, err := ref.Get(ctx)
	if err != nil {
		return fsErr(op, err)
	}
	if err := snap.DataTo(dst); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}

// getAll decodes every document of it, letting setID attach the document
// id to each decoded value.
func getAll[T any](it *firestore.DocumentIterator, op string, setID func(*T, *firestore.DocumentSnapshot)) ([]T, error) {
	snaps, err := it.GetAll()
	if err != nil {
		return nil, fsErr(op, err)
	}
	out := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, fmt.Errorf("%s: decode %s: %w", op, snap.Ref.ID, err)
		}
		setID(&v, snap)
		out = append(out, v)
	}
	return out, nil
}

// --- Kategori ---

func (s *firestoreStore) AddKategori(ctx context.Context, k model.Kategori) (model.Kategori, error) {
	ref, _, err := s.client.Collection(colKategori).Add(ctx, k)
	if err != nil {
		return model.Kategori{}, fsErr("add kategori", err)
	}
	k.ID = ref.ID
	return k, nil
}

func (s *firestoreStore) GetKategori(ctx context.Context, id string) (model.Kategori, error) {
	var k model.Kategori
	if err := getDoc(ctx, s.client.Collection(colKategori).Doc(id), "get kategori "+id, &k); err != nil {
		return model.Kategori{}, err
	}
	k.ID = id
	return k, nil
}

func (s *firestoreStore) ListKategori(ctx context.Context) ([]model.Kategori, error) {
	return getAll(s.client.Collection(colKategori).OrderBy("name", firestore.Asc).Documents(ctx), "list kategori",
		func(k *model.Kategori, snap *firestore.DocumentSnapshot) { k.ID = snap.Ref.ID })
}

func (s *firestoreStore) UpdateKategori(ctx context.Context, k model.Kategori) (model.Kategori, error) {
	_, err := s.client.Collection(colKategori).Doc(k.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: k.Name},
		{Path: "description", Value: k.Description},
	})
	if err != nil {
		return model.Kategori{}, fsErr("update kategori "+k.ID, err)
	}
	return k, nil
}

func (s *firestoreStore) DeleteKategori(ctx context.Context, id string) error {
	if _, err := s.client.Collection(colKategori).Doc(id).Delete(ctx); err != nil {
		return fsErr("delete kategori "+id, err)
	}
	return nil
}

// --- Sarana ---

func (s *firestoreStore) AddSarana(ctx context.Context, sr model.Sarana) (model.Sarana, error) {
	ref, _, err := s.client.Collection(colSarana).Add(ctx, sr)
	if err != nil {
		return model.Sarana{}, fsErr("add sarana", err)
	}
	sr.ID = ref.ID
	return sr, nil
}

func (s *firestoreStore) GetSarana(ctx context.Context, id string) (model.Sarana, error) {
	var sr model.Sarana
	if err := getDoc(ctx, s.client.Collection(colSarana).Doc(id), "get sarana "+id, &sr); err != nil {
		return model.Sarana{}, err
	}
	sr.ID = id
	return sr, nil
}

func (s *firestoreStore) ListSarana(ctx context.Context) ([]model.Sarana, error) {
	return getAll(s.client.Collection(colSarana).OrderBy("name", firestore.Asc).Documents(ctx), "list sarana",
		func(sr *model.Sarana, snap *firestore.DocumentSnapshot) { sr.ID = snap.Ref.ID })
}

func (s *firestoreStore) UpdateSarana(ctx context.Context, sr model.Sarana) (model.Sarana, error) {
	_, err := s.client.Collection(colSarana).Doc(sr.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: sr.Name},
		{Path: "code", Value: sr.Code},
		{Path: "description", Value: sr.Description},
	})
	if err != nil {
		return model.Sarana{}, fsErr("update sarana "+sr.ID, err)
	}
	return sr, nil
}

func (s *firestoreStore) DeleteSarana(ctx context.Context, id string) error {
	if _, err := s.client.Collection(colSarana).Doc(id).Delete(ctx); err != nil {
		return fsErr("delete sarana "+id, err)
	}
	return nil
}

// --- Ruangan ---

func (s *firestoreStore) ruangan(id string) *firestore.DocumentRef {
	return s.client.Collection(colRuangan).Doc(id)
}

func (s *firestoreStore) AddRuangan(ctx context.Context, r model.Ruangan) (model.Ruangan, error) {
	r.Version = 1
	if r.Images == nil {
		r.Images = []model.Image{}
	}
	ref, _, err := s.client.Collection(colRuangan).Add(ctx, r)
	if err != nil {
		return model.Ruangan{}, fsErr("add ruangan", err)
	}
	r.ID = ref.ID
	return r, nil
}

func (s *firestoreStore) GetRuangan(ctx context.Context, id string) (model.Ruangan, error) {
	var r model.Ruangan
	if err := getDoc(ctx, s.ruangan(id), "get ruangan "+id, &r); err != nil {
		return model.Ruangan{}, err
	}
	r.ID = id
	return r, nil
}

func (s *firestoreStore) ListRuangan(ctx context.Context) ([]model.Ruangan, error) {
	return getAll(s.client.Collection(colRuangan).OrderBy("name", firestore.Asc).Documents(ctx), "list ruangan",
		func(r *model.Ruangan, snap *firestore.DocumentSnapshot) { r.ID = snap.Ref.ID })
}

// ruanganUpdates lists the room fields to write. A nil Images leaves the
// stored images as they are.
func ruanganUpdates(r model.Ruangan) []firestore.Update {
	updates := []firestore.Update{
		{Path: "name", Value: r.Name},
		{Path: "code", Value: r.Code},
		{Path: "kategoriId", Value: r.KategoriID},
		{Path: "location", Value: r.Location},
		{Path: "capacity", Value: r.Capacity},
		{Path: "description", Value: r.Description},
		{Path: "version", Value: r.Version},
	}
	if r.Images != nil {
		updates = append(updates, firestore.Update{Path: "images", Value: r.Images})
	}
	return updates
}

// UpdateRuangan runs the version check, room write, sub-collection delete
// and inserts in one Firestore transaction. The transaction function may be
// retried, so it does not mutate anything outside itself.
func (s *firestoreStore) UpdateRuangan(ctx context.Context, r model.Ruangan, sarana []model.SaranaRuangan) (model.Ruangan, error) {
	op := "update ruangan " + r.ID
	ref := s.ruangan(r.ID)
	sub := ref.Collection(colSaranaRuangan)

	var updated model.Ruangan

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return fsErr(op, err)
		}
		var current model.Ruangan
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("%s: decode: %w", op, err)
		}
		if current.Version != r.Version {
			return fmt.Errorf("%s: %w", op, ErrVersionConflict)
		}
		next := r
		next.Version = r.Version + 1
		if next.Images == nil {
			next.Images = current.Images
		}

		existing, err := tx.Documents(sub).GetAll()
		if err != nil {
			return fsErr(op+": read sarana", err)
		}

		// All reads happen before the first write.
		if err := tx.Update(ref, ruanganUpdates(next)); err != nil {
			return fsErr(op, err)
		}
		for _, doc := range existing {
			if err := tx.Delete(doc.Ref); err != nil {
				return fsErr(op+": clear sarana", err)
			}
		}
		for _, a := range sarana {
			a.RuanganID = r.ID
			if err := tx.Create(sub.NewDoc(), a); err != nil {
				return fsErr(op+": insert sarana", err)
			}
		}
		updated = next
		return nil
	})
	if err != nil {
		return model.Ruangan{}, err
	}
	return updated, nil
}

func (s *firestoreStore) DeleteRuangan(ctx context.Context, id string) error {
	if _, err := s.ruangan(id).Delete(ctx); err != nil {
		return fsErr("delete ruangan "+id, err)
	}
	return nil
}

func (s *firestoreStore) SetRuanganImages(ctx context.Context, id string, images []model.Image) error {
	if images == nil {
		images = []model.Image{}
	}
	_, err := s.ruangan(id).Update(ctx, []firestore.Update{{Path: "images", Value: images}})
	if err != nil {
		return fsErr("set images of ruangan "+id, err)
	}
	return nil
}

func (s *firestoreStore) ListSaranaRuangan(ctx context.Context, parentID string) ([]model.SaranaRuangan, error) {
	return getAll(s.ruangan(parentID).Collection(colSaranaRuangan).Documents(ctx), "list sarana of ruangan "+parentID,
		func(a *model.SaranaRuangan, snap *firestore.DocumentSnapshot) {
			a.ID = snap.Ref.ID
			a.ParentRuanganID = parentID
		})
}

// --- Pengajuan ---

func (s *firestoreStore) AddPengajuan(ctx context.Context, p model.Pengajuan) (model.Pengajuan, error) {
	if p.Status == "" {
		p.Status = model.StatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	ref, _, err := s.client.Collection(colPengajuan).Add(ctx, p)
	if err != nil {
		return model.Pengajuan{}, fsErr("add pengajuan", err)
	}
	p.ID = ref.ID
	return p, nil
}

func (s *firestoreStore) GetPengajuan(ctx context.Context, id string) (model.Pengajuan, error) {
	var p model.Pengajuan
	if err := getDoc(ctx, s.client.Collection(colPengajuan).Doc(id), "get pengajuan "+id, &p); err != nil {
		return model.Pengajuan{}, err
	}
	p.ID = id
	return p, nil
}

func (s *firestoreStore) ListPengajuan(ctx context.Context, st model.PengajuanStatus) ([]model.Pengajuan, error) {
	q := s.client.Collection(colPengajuan).Query
	if st != "" {
		q = q.Where("status", "==", string(st))
	}
	list, err := getAll(q.Documents(ctx), "list pengajuan",
		func(p *model.Pengajuan, snap *firestore.DocumentSnapshot) { p.ID = snap.Ref.ID })
	if err != nil {
		return nil, err
	}
	// Sorted here so the status filter needs no composite index.
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *firestoreStore) setPengajuanStatus(ctx context.Context, id string, st model.PengajuanStatus) error {
	_, err := s.client.Collection(colPengajuan).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(st)},
	})
	if err != nil {
		return fsErr(fmt.Sprintf("set pengajuan %s %s", id, st), err)
	}
	return nil
}

func (s *firestoreStore) CancelPengajuan(ctx context.Context, id string) error {
	return s.setPengajuanStatus(ctx, id, model.StatusCanceled)
}

func (s *firestoreStore) RejectPengajuan(ctx context.Context, id string) error {
	return s.setPengajuanStatus(ctx, id, model.StatusRejected)
}

func (s *firestoreStore) DeletePengajuan(ctx context.Context, id string) error {
	if _, err := s.client.Collection(colPengajuan).Doc(id).Delete(ctx); err != nil {
		return fsErr("delete pengajuan "+id, err)
	}
	return nil
}

func (s *firestoreStore) ApprovePengajuan(ctx context.Context, id string) (model.SaranaRuangan, error) {
	op := "approve pengajuan " + id
	ref := s.client.Collection(colPengajuan).Doc(id)
	var created model.SaranaRuangan

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return fsErr(op, err)
		}
		var p model.Pengajuan
		if err := snap.DataTo(&p); err != nil {
			return fmt.Errorf("%s: decode: %w", op, err)
		}
		p.ID = id

		a := approvedAssignment(p)
		aref := s.ruangan(a.ParentRuanganID).Collection(colSaranaRuangan).NewDoc()
		if err := tx.Update(ref, []firestore.Update{{Path: "status", Value: string(model.StatusApproved)}}); err != nil {
			return fsErr(op, err)
		}
		if err := tx.Create(aref, a); err != nil {
			return fsErr(op+": insert sarana", err)
		}
		a.ID = aref.ID
		created = a
		return nil
	})
	if err != nil {
		return model.SaranaRuangan{}, err
	}
	return created, nil
}

// --- Stats ---

func (s *firestoreStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	assignments, err := s.client.CollectionGroup(colSaranaRuangan).Documents(ctx).GetAll()
	if err != nil {
		return Stats{}, fsErr("sum sarana", err)
	}
	for _, snap := range assignments {
		var a model.SaranaRuangan
		if err := snap.DataTo(&a); err != nil {
			return Stats{}, fmt.Errorf("sum sarana: decode %s: %w", snap.Ref.ID, err)
		}
		st.TotalSarana += int64(a.Quantity)
	}

	rooms, err := s.client.Collection(colRuangan).Select().Documents(ctx).GetAll()
	if err != nil {
		return Stats{}, fsErr("count ruangan", err)
	}
	st.TotalRuangan = int64(len(rooms))

	categories, err := s.client.Collection(colKategori).Select().Documents(ctx).GetAll()
	if err != nil {
		return Stats{}, fsErr("count kategori", err)
	}
	st.TotalKategori = int64(len(categories))
	return st, nil
}

// --- Push subscriptions ---

// subscriptionRef addresses a subscription by a digest of its endpoint;
// endpoints are URLs and cannot be used as document ids.
func (s *firestoreStore) subscriptionRef(endpoint string) *firestore.DocumentRef {
	sum := sha256.Sum256([]byte(endpoint))
	return s.client.Collection(colSubscriptions).Doc(hex.EncodeToString(sum[:]))
}

func (s *firestoreStore) SaveSubscription(ctx context.Context, sub model.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.RuanganIDs = uniqueIDs(sub.RuanganIDs)

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if len(sub.RuanganIDs) > 0 {
			refs := make([]*firestore.DocumentRef, len(sub.RuanganIDs))
			for i, id := range sub.RuanganIDs {
				refs[i] = s.ruangan(id)
			}
			snaps, err := tx.GetAll(refs)
			if err != nil {
				return fsErr("save subscription: load rooms", err)
			}
			for i, snap := range snaps {
				if !snap.Exists() {
					return fmt.Errorf("save subscription: ruangan %s: %w", sub.RuanganIDs[i], ErrNotFound)
				}
			}
		}
		if err := tx.Set(s.subscriptionRef(sub.Endpoint), sub); err != nil {
			return fsErr("save subscription", err)
		}
		return nil
	})
}

func (s *firestoreStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := getDoc(ctx, s.subscriptionRef(endpoint), "get subscription", &sub); err != nil {
		return model.PushSubscription{}, err
	}
	return sub, nil
}

func (s *firestoreStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if _, err := s.subscriptionRef(endpoint).Delete(ctx); err != nil {
		return fsErr("delete subscription", err)
	}
	return nil
}

func (s *firestoreStore) ListSubscriptionsForRoom(ctx context.Context, ruanganID string) ([]model.PushSubscription, error) {
	q := s.client.Collection(colSubscriptions).Where("ruanganIds", "array-contains", ruanganID)
	return getAll(q.Documents(ctx), "list subscriptions for ruangan "+ruanganID,
		func(*model.PushSubscription, *firestore.DocumentSnapshot) {})
}
