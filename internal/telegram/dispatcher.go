package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ajuraforce/photo-product-analyzer/internal/bot"
	"golang.org/x/time/rate"
)

const msgRateLimited = "⏳ Too many photos at once. Please wait a moment before sending the next one."

// Handler processes one inbound message
type Handler interface {
	Handle(ctx context.Context, msg bot.Message)
}

// Dispatcher fans messages out to a fixed set of workers. All messages of one user
// land on the same worker so they are handled in arrival order.
type Dispatcher struct {
	handler Handler
	sender  bot.Sender
	queues  []chan bot.Message

	photoRate  rate.Limit
	photoBurst int
	mu         sync.Mutex
	limiters   map[int64]*rate.Limiter

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher; photosPerMinute <= 0 disables photo rate limiting
func NewDispatcher(handler Handler, sender bot.Sender, workers, photosPerMinute int) *Dispatcher {
	if workers <= 0 {
		workers = 8
	}
	d := &Dispatcher{
		handler:  handler,
		sender:   sender,
		queues:   make([]chan bot.Message, workers),
		limiters: make(map[int64]*rate.Limiter),
	}
	if photosPerMinute > 0 {
		d.photoRate = rate.Every(time.Minute / time.Duration(photosPerMinute))
		d.photoBurst = photosPerMinute
	}
	for i := range d.queues {
		d.queues[i] = make(chan bot.Message, 64)
	}
	return d
}

// Start launches the workers; they stop once Close is called and queues drain
func (d *Dispatcher) Start(ctx context.Context) {
	for _, q := range d.queues {
		d.wg.Add(1)
		go func(q chan bot.Message) {
			defer d.wg.Done()
			for msg := range q {
				d.handler.Handle(ctx, msg)
			}
		}(q)
	}
}

// Dispatch queues msg on its user's worker
func (d *Dispatcher) Dispatch(ctx context.Context, msg bot.Message) {
	if len(msg.Photos) > 0 && !d.allowPhoto(msg.UserID) {
		slog.Warn("Photo rate limit exceeded", "user_id", msg.UserID)
		if err := d.sender.Send(ctx, msg.ChatID, msgRateLimited); err != nil {
			slog.Error("Failed to send reply", "user_id", msg.UserID, "err", err)
		}
		return
	}

	select {
	case d.queues[d.shard(msg.UserID)] <- msg:
	case <-ctx.Done():
	}
}

// Close stops accepting work and waits for in-flight messages
func (d *Dispatcher) Close() {
	for _, q := range d.queues {
		close(q)
	}
	d.wg.Wait()
}

func (d *Dispatcher) shard(userID int64) int {
	return int(uint64(userID) % uint64(len(d.queues)))
}

func (d *Dispatcher) allowPhoto(userID int64) bool {
	if d.photoRate == 0 {
		return true
	}
	d.mu.Lock()
	l, ok := d.limiters[userID]
	if !ok {
		l = rate.NewLimiter(d.photoRate, d.photoBurst)
		d.limiters[userID] = l
	}
	d.mu.Unlock()
	return l.Allow()
}
