// Package service holds the operations that span more than one backend:
// image uploads, and store writes that notify room subscribers.
package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ruangan-admin-backend/internal/blob"
	"ruangan-admin-backend/internal/model"
	"ruangan-admin-backend/internal/store"
)

// Notifier queues a notification for the subscribers of a room.
type Notifier interface {
	Dispatch(ruanganID string)
}

// Upload is one file of a multi-file image upload.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Service wraps a store.Store. Operations it does not override go straight
// to the store.
type Service struct {
	store.Store
	blob     blob.Storage
	notifier Notifier
	log      *zap.Logger
}

// New creates a Service.
func New(s store.Store, b blob.Storage, n Notifier, log *zap.Logger) *Service {
	return &Service{
		Store:    s,
		blob:     b,
		notifier: n,
		log:      log.Named("service"),
	}
}

// UploadImages stores every file concurrently, then replaces the room's
// image list with one entry per file in input order. Files with the same
// name share a blob key, so the later write wins and both entries carry the
// same URL.
func (s *Service) UploadImages(ctx context.Context, ruanganID string, files []Upload) ([]model.Image, error) {
	images := make([]model.Image, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			key := blob.ImageKey(f.Name)
			if err := s.putFile(gctx, key, f); err != nil {
				return err
			}
			url, err := s.blob.URL(gctx, key)
			if err != nil {
				return fmt.Errorf("resolve url of %s: %w", key, err)
			}
			images[i] = model.Image{Name: f.Name, URL: url}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("upload images of ruangan %s: %w", ruanganID, err)
	}

	if err := s.SetRuanganImages(ctx, ruanganID, images); err != nil {
		return nil, err
	}
	s.log.Info("images uploaded", zap.String("ruangan_id", ruanganID), zap.Int("count", len(images)))
	return images, nil
}

func (s *Service) putFile(ctx context.Context, key string, f Upload) error {
	r, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer r.Close()
	return s.blob.Put(ctx, key, r)
}

// UpdateRuangan writes the room and its assignments and notifies the room's
// subscribers.
func (s *Service) UpdateRuangan(ctx context.Context, r model.Ruangan, sarana []model.SaranaRuangan) (model.Ruangan, error) {
	updated, err := s.Store.UpdateRuangan(ctx, r, sarana)
	if err != nil {
		return model.Ruangan{}, err
	}
	s.notifier.Dispatch(updated.ID)
	return updated, nil
}

// ApprovePengajuan approves the request and notifies subscribers of the
// room the new assignment was filed under.
func (s *Service) ApprovePengajuan(ctx context.Context, id string) (model.SaranaRuangan, error) {
	created, err := s.Store.ApprovePengajuan(ctx, id)
	if err != nil {
		return model.SaranaRuangan{}, err
	}
	s.notifier.Dispatch(created.ParentRuanganID)
	return created, nil
}
