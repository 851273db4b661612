package notification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"ruangan-admin-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// mockStore is a mock implementation of the Store interface.
type mockStore struct {
	ListSubscriptionsForRoomFunc func(ctx context.Context, ruanganID string) ([]model.PushSubscription, error)
	GetRuanganFunc               func(ctx context.Context, id string) (model.Ruangan, error)
	DeleteSubscriptionFunc       func(ctx context.Context, endpoint string) error
}

func (m *mockStore) ListSubscriptionsForRoom(ctx context.Context, ruanganID string) ([]model.PushSubscription, error) {
	return m.ListSubscriptionsForRoomFunc(ctx, ruanganID)
}

func (m *mockStore) GetRuangan(ctx context.Context, id string) (model.Ruangan, error) {
	return m.GetRuanganFunc(ctx, id)
}

func (m *mockStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return m.DeleteSubscriptionFunc(ctx, endpoint)
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func subscribers(endpoints ...string) func(context.Context, string) ([]model.PushSubscription, error) {
	return func(context.Context, string) ([]model.PushSubscription, error) {
		subs := make([]model.PushSubscription, len(endpoints))
		for i, e := range endpoints {
			subs[i] = model.PushSubscription{Endpoint: e, P256DH: "p256dh", Auth: "auth"}
		}
		return subs, nil
	}
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker")
	}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, &mockStore{}, &webpush.Options{}, zap.NewNop())

	wp.Dispatch("r1")

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "r1", job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDoesNotBlockWhenFull(t *testing.T) {
	wp := NewWorkerPool(1, &mockStore{}, &webpush.Options{}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < queueFactor+5; i++ {
			wp.Dispatch("r1")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
	assert.Len(t, wp.jobs, queueFactor)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	t.Run("sends the room name to every subscriber", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(2)

		wp := NewWorkerPool(1, &mockStore{
			ListSubscriptionsForRoomFunc: subscribers("https://example.com/a", "https://example.com/b"),
			GetRuanganFunc: func(_ context.Context, id string) (model.Ruangan, error) {
				assert.Equal(t, "r1", id)
				return model.Ruangan{ID: id, Name: "Lab Komputer 1"}, nil
			},
		}, &webpush.Options{}, zap.NewNop())

		var mu sync.Mutex
		var endpoints []string
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "Sarana ruangan Lab Komputer 1 diperbarui", string(payload))
				mu.Lock()
				endpoints = append(endpoints, sub.Endpoint)
				mu.Unlock()
				wg.Done()
				return response(http.StatusCreated), nil
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		wp.Start(ctx)

		wp.Dispatch("r1")
		waitTimeout(t, &wg)
		assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, endpoints)
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp := NewWorkerPool(1, &mockStore{
			ListSubscriptionsForRoomFunc: subscribers("https://example.com/expired"),
			GetRuanganFunc: func(_ context.Context, id string) (model.Ruangan, error) {
				return model.Ruangan{ID: id, Name: "R1"}, nil
			},
			DeleteSubscriptionFunc: func(_ context.Context, endpoint string) error {
				assert.Equal(t, "https://example.com/expired", endpoint)
				wg.Done()
				return nil
			},
		}, &webpush.Options{}, zap.NewNop())
		wp.sender = &mockSender{
			SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
				return response(http.StatusGone), nil
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		wp.Start(ctx)

		wp.Dispatch("r1")
		waitTimeout(t, &wg)
	})

	t.Run("falls back to room id when lookup fails", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp := NewWorkerPool(1, &mockStore{
			ListSubscriptionsForRoomFunc: subscribers("https://example.com/fallback"),
			GetRuanganFunc: func(context.Context, string) (model.Ruangan, error) {
				return model.Ruangan{}, errors.New("document not found")
			},
		}, &webpush.Options{}, zap.NewNop())
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "Sarana ruangan r9 diperbarui", string(payload))
				wg.Done()
				return response(http.StatusCreated), nil
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		wp.Start(ctx)

		wp.Dispatch("r9")
		waitTimeout(t, &wg)
	})
}
