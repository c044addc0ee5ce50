package eventbus

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	defaultMaxAttempts = 5
	defaultMinBackoff  = 2 * time.Second
	defaultMaxBackoff  = 30 * time.Second
)

// WebhookDispatcher delivers bus events to a single external HTTP
// endpoint, fire-and-forget, with HMAC signing and exponential backoff
// retry.
type WebhookDispatcher struct {
	endpoint    string
	secret      []byte
	client      *http.Client
	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan Event
	wg     sync.WaitGroup
}

type WebhookOption func(*WebhookDispatcher)

func WithHTTPClient(client *http.Client) WebhookOption {
	return func(d *WebhookDispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

func WithRetryPolicy(maxAttempts int, minBackoff, maxBackoff time.Duration) WebhookOption {
	return func(d *WebhookDispatcher) {
		if maxAttempts > 0 {
			d.maxAttempts = maxAttempts
		}
		if minBackoff > 0 {
			d.minBackoff = minBackoff
		}
		if maxBackoff >= minBackoff && maxBackoff > 0 {
			d.maxBackoff = maxBackoff
		}
	}
}

func NewWebhookDispatcher(endpoint string, secret []byte, opts ...WebhookOption) (*WebhookDispatcher, error) {
	endpoint = string(bytes.TrimSpace([]byte(endpoint)))
	if endpoint == "" {
		return nil, errors.New("eventbus: webhook endpoint required")
	}
	if len(secret) == 0 {
		return nil, errors.New("eventbus: webhook secret required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &WebhookDispatcher{
		endpoint:    endpoint,
		secret:      append([]byte(nil), secret...),
		client:      &http.Client{Timeout: 15 * time.Second},
		maxAttempts: defaultMaxAttempts,
		minBackoff:  defaultMinBackoff,
		maxBackoff:  defaultMaxBackoff,
		ctx:         ctx,
		cancel:      cancel,
		queue:       make(chan Event, 32),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.wg.Add(1)
	go d.worker()
	return d, nil
}

func (d *WebhookDispatcher) Close() {
	if d == nil {
		return
	}
	d.cancel()
	d.wg.Wait()
}

// Handler returns an eventbus.Handler suitable for Bus.Subscribe, so the
// dispatcher can be wired directly as a subscriber.
func (d *WebhookDispatcher) Handler() Handler {
	return func(evt Event) { d.Enqueue(evt) }
}

func (d *WebhookDispatcher) Enqueue(evt Event) error {
	if d == nil {
		return errors.New("eventbus: dispatcher not initialised")
	}
	select {
	case d.queue <- evt:
		return nil
	case <-d.ctx.Done():
		return errors.New("eventbus: dispatcher closed")
	}
}

func (d *WebhookDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case evt := <-d.queue:
			d.process(evt)
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *WebhookDispatcher) process(evt Event) {
	body, err := json.Marshal(evt.Payload)
	if err != nil {
		return
	}
	attempt := 0
	backoff := d.minBackoff
	for {
		attempt++
		ctx, cancel := context.WithTimeout(d.ctx, d.client.Timeout)
		err := d.send(ctx, evt.ID, evt.Topic, body)
		cancel()
		if err == nil {
			return
		}
		if attempt >= d.maxAttempts {
			return
		}
		select {
		case <-time.After(backoff):
		case <-d.ctx.Done():
			return
		}
		backoff = nextBackoff(backoff, d.maxBackoff)
	}
}

func (d *WebhookDispatcher) send(ctx context.Context, deliveryID, topic string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Isnad-Event", topic)
	req.Header.Set("X-Isnad-Delivery-Id", deliveryID)
	req.Header.Set("X-Isnad-Signature", d.sign(body))
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("eventbus: delivery failed with status %d", resp.StatusCode)
}

func (d *WebhookDispatcher) sign(body []byte) string {
	mac := hmac.New(sha256.New, d.secret)
	_, _ = mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	if next < current {
		return max
	}
	return next
}
