package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"ruangan-admin-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Store is the part of store.Store the workers need.
type Store interface {
	ListSubscriptionsForRoom(ctx context.Context, ruanganID string) ([]model.PushSubscription, error)
	GetRuangan(ctx context.Context, id string) (model.Ruangan, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// queueFactor sizes the job buffer relative to the number of workers.
const queueFactor = 16

// WorkerPool manages a pool of workers that notify room subscribers.
type WorkerPool struct {
	size    int
	jobs    chan string
	store   Store
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, store Store, webpushOptions *webpush.Options, log *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size*queueFactor),
		store:   store,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log.Named("notification"),
	}
}

// Start launches the worker goroutines. They exit when ctx is canceled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.With(zap.Int("worker", id))
	log.Debug("worker started")
	for {
		select {
		case ruanganID := <-wp.jobs:
			wp.notifyRoom(ctx, ruanganID)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// Dispatch queues a notification for the room. When the queue is full the
// job is dropped so callers on the request path never wait.
func (wp *WorkerPool) Dispatch(ruanganID string) {
	select {
	case wp.jobs <- ruanganID:
	default:
		wp.log.Warn("notification queue full, dropping job", zap.String("ruangan_id", ruanganID))
	}
}

// Message is the notification text for a room.
func Message(label string) string {
	return fmt.Sprintf("Sarana ruangan %s diperbarui", label)
}

// notifyRoom sends the update message to every subscriber of the room.
func (wp *WorkerPool) notifyRoom(ctx context.Context, ruanganID string) {
	log := wp.log.With(zap.String("ruangan_id", ruanganID))

	subscriptions, err := wp.store.ListSubscriptionsForRoom(ctx, ruanganID)
	if err != nil {
		log.Error("list subscriptions", zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := ruanganID
	if room, err := wp.store.GetRuangan(ctx, ruanganID); err != nil {
		log.Warn("room lookup failed, using id as label", zap.Error(err))
	} else if room.Name != "" {
		label = room.Name
	}

	log.Info("sending notifications", zap.Int("subscribers", len(subscriptions)))
	payload := []byte(Message(label))
	for _, sub := range subscriptions {
		wp.send(ctx, sub, payload)
	}
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Error("send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error("delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
