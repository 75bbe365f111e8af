package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/chronos-ua/chronos-backend/internal/config"
	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/chronos-ua/chronos-backend/internal/notify"
)

const pushTTL = 60

// WebPushSender delivers notifications to browser push subscriptions using
// VAPID. Endpoints the push service reports gone (404/410) are returned as
// expired so the caller can prune them.
type WebPushSender struct {
	subscriber string
	publicKey  string
	privateKey string
}

func NewWebPushSender(cfg config.VapidConfig) *WebPushSender {
	return &WebPushSender{
		subscriber: cfg.Subscriber,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
	}
}

// PublicKey returns the VAPID public key clients need to subscribe.
func (s *WebPushSender) PublicKey() string {
	return s.publicKey
}

// SendToAll fans the payload out to every subscription concurrently and
// reports the per-endpoint outcome.
func (s *WebPushSender) SendToAll(ctx context.Context, subs []models.PushSubscription, payload notify.Payload) notify.PushResult {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal push payload", "error", err)
		return notify.PushResult{}
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result notify.PushResult
	)

	for _, sub := range subs {
		wg.Add(1)
		go func(sub models.PushSubscription) {
			defer wg.Done()

			expired, err := s.send(ctx, sub, body)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case expired:
				result.Expired = append(result.Expired, sub.Endpoint)
			case err != nil:
				slog.Warn("web push delivery failed", "endpoint", sub.Endpoint, "error", err)
				result.Failed = append(result.Failed, sub.Endpoint)
			default:
				result.Succeeded++
			}
		}(sub)
	}

	wg.Wait()
	return result
}

func (s *WebPushSender) send(ctx context.Context, sub models.PushSubscription, body []byte) (expired bool, err error) {
	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             pushTTL,
	})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return true, nil
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("push service responded %d", resp.StatusCode)
	}
	return false, nil
}
