package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ajuraforce/photo-product-analyzer/internal/catalog"
	"github.com/ajuraforce/photo-product-analyzer/internal/images"
	"github.com/ajuraforce/photo-product-analyzer/internal/metrics"
	"github.com/ajuraforce/photo-product-analyzer/internal/models"
	"github.com/ajuraforce/photo-product-analyzer/internal/storage"
	"github.com/google/uuid"
)

// Admin fields a bare settings command can wait for
const (
	fieldGender    = "gender"
	fieldSupplier  = "supplier"
	fieldEditPrice = "edit_price"
)

// Intaker downloads and validates an inbound photo
type Intaker interface {
	Store(ctx context.Context, candidates []images.Candidate) (*images.Stored, error)
}

// Analyzer runs the vision model. It always returns an Analysis, degraded on failure.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL, userContext string) models.Analysis
}

// Sender delivers a Markdown reply to a chat
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Message is one inbound chat message, already stripped of transport details
type Message struct {
	ChatID   int64
	UserID   int64
	UserName string
	Text     string
	Caption  string
	Photos   []images.Candidate
}

// Options carries the values shown by /status and the photo flow deadline
type Options struct {
	PhotoTimeout time.Duration
	Provider     string
	Model        string
	Version      string
}

// Bot drives the per-user conversation from photo to catalog row
type Bot struct {
	sessions *storage.SessionStore
	intake   Intaker
	analyzer Analyzer
	catalog  catalog.Writer
	sender   Sender
	metrics  *metrics.Metrics
	opts     Options

	now   func() time.Time
	idgen func() string
}

func New(sessions *storage.SessionStore, intake Intaker, analyzer Analyzer, writer catalog.Writer, sender Sender, m *metrics.Metrics, opts Options) *Bot {
	if m == nil {
		m = metrics.New()
	}
	return &Bot{
		sessions: sessions,
		intake:   intake,
		analyzer: analyzer,
		catalog:  writer,
		sender:   sender,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
		idgen:    func() string { return strings.ReplaceAll(uuid.New().String(), "-", "") },
	}
}

// Handle routes msg to the photo, command or text flow under the user's session lock
func (b *Bot) Handle(ctx context.Context, msg Message) {
	session, release := b.sessions.Acquire(msg.UserID)
	defer release()
	b.metrics.Sessions(b.sessions.Len())

	switch {
	case len(msg.Photos) > 0:
		b.handlePhoto(ctx, session, msg)
	case strings.HasPrefix(strings.TrimSpace(msg.Text), "/"):
		name, args := parseCommand(msg.Text)
		b.handleCommand(ctx, session, msg, name, args)
	default:
		b.handleText(ctx, session, msg)
	}
}

func (b *Bot) reply(ctx context.Context, msg Message, text string) {
	if err := b.sender.Send(ctx, msg.ChatID, text); err != nil {
		slog.Error("Failed to send reply", "user_id", msg.UserID, "err", err)
	}
}

// reset drops the pending product and returns the session to Idle
func (b *Bot) reset(session *models.Session) {
	if session.Pending != nil {
		b.metrics.PendingDropped()
	}
	session.Reset()
}

func (b *Bot) handlePhoto(ctx context.Context, session *models.Session, msg Message) {
	b.metrics.PhotoReceived()

	// a new photo always pre-empts whatever was in flight
	b.reset(session)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while processing photo", "user_id", msg.UserID, "panic", r)
			b.reset(session)
			b.reply(context.WithoutCancel(ctx), msg, msgPhotoFailed)
		}
	}()

	if b.opts.PhotoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.PhotoTimeout)
		defer cancel()
	}

	b.reply(ctx, msg, msgProcessing)

	stored, err := b.intake.Store(ctx, msg.Photos)
	if err != nil {
		slog.Error("Image download failed", "user_id", msg.UserID, "err", err)
		b.metrics.IntakeFailed(intakeFailureKind(err))
		b.reply(context.WithoutCancel(ctx), msg, intakeFailureMessage(err))
		return
	}

	b.reply(ctx, msg, msgAnalyzing)
	analysis := b.analyzer.Analyze(ctx, stored.PublicURL, msg.Caption)
	b.metrics.Analysis(analysis.Error, analysis.ProcessingTime, analysis.Repaired)

	if err := ctx.Err(); err != nil {
		slog.Error("Photo processing timed out", "user_id", msg.UserID, "err", err)
		b.reply(context.WithoutCancel(ctx), msg, msgPhotoFailed)
		return
	}

	now := b.now()
	pending := &models.PendingProduct{
		ProductID:     ProductID(now, b.idgen()),
		PhotoPath:     stored.Path,
		PhotoURL:      stored.PublicURL,
		Analysis:      analysis,
		CreatedAt:     now,
		RequesterID:   msg.UserID,
		RequesterName: msg.UserName,
	}

	session.Pending = pending
	session.State = models.StateAwaitingPrice
	b.metrics.PendingAdded()

	slog.Info("Product analyzed", "user_id", msg.UserID, "product_id", pending.ProductID, "degraded", analysis.Error)
	b.reply(ctx, msg, analysisMessage(pending))
}

// reanalyze runs the vision model again on the pending photo with an operator hint.
// The previous analysis is kept when the new run cannot finish in time.
func (b *Bot) reanalyze(ctx context.Context, session *models.Session, msg Message, hint string) {
	if b.opts.PhotoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.PhotoTimeout)
		defer cancel()
	}

	b.reply(ctx, msg, msgAnalyzing)
	analysis := b.analyzer.Analyze(ctx, session.Pending.PhotoURL, hint)
	b.metrics.Analysis(analysis.Error, analysis.ProcessingTime, analysis.Repaired)

	if err := ctx.Err(); err != nil {
		slog.Error("Reanalysis timed out", "user_id", msg.UserID, "err", err)
		b.reply(context.WithoutCancel(ctx), msg, msgReanalyzeFailed)
		return
	}

	updated := *session.Pending
	updated.Analysis = analysis
	session.Pending = &updated

	slog.Info("Product reanalyzed", "user_id", msg.UserID, "product_id", updated.ProductID, "degraded", analysis.Error)
	b.reply(ctx, msg, analysisMessage(&updated))
}

func intakeFailureKind(err error) string {
	switch {
	case errors.Is(err, images.ErrSizeExceeded):
		return "size_exceeded"
	case errors.Is(err, images.ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, images.ErrTransferFailed):
		return "transfer_failed"
	default:
		return "other"
	}
}

func intakeFailureMessage(err error) string {
	switch {
	case errors.Is(err, images.ErrSizeExceeded):
		return msgTooLarge
	case errors.Is(err, images.ErrInvalidImage):
		return msgInvalidImage
	default:
		return msgIntakeFailed
	}
}

func (b *Bot) handleText(ctx context.Context, session *models.Session, msg Message) {
	switch session.State {
	case models.StateAwaitingPrice:
		b.handlePricing(ctx, session, msg, msg.Text)
	case models.StateAwaitingManualBrand:
		b.captureBrand(ctx, session, msg)
	case models.StateAwaitingAdminInput:
		b.captureAdminInput(ctx, session, msg)
	default:
		b.reply(ctx, msg, msgIdleHint)
	}
}

func (b *Bot) handlePricing(ctx context.Context, session *models.Session, msg Message, text string) {
	if session.Pending == nil {
		b.reset(session)
		b.reply(ctx, msg, msgSessionExpired)
		return
	}

	prices, err := ParsePrice(text)
	if err != nil {
		slog.Debug("Rejected price input", "user_id", msg.UserID, "err", err)
		b.reply(ctx, msg, msgInvalidPrice)
		return
	}

	rec := Merge(session.Pending, prices, session.Overrides)
	b.reset(session)

	b.reply(ctx, msg, msgSaving)
	if err := b.catalog.Append(ctx, rec); err != nil {
		slog.Error("Failed to save product", "product_id", rec.ProductID, "err", err)
		b.metrics.CatalogWrite(false)
		b.reply(ctx, msg, msgSaveFailed)
		return
	}
	b.metrics.CatalogWrite(true)
	b.reply(ctx, msg, savedMessage(rec))
}

// resume returns to the state the settings sub-flow interrupted
func resume(session *models.Session) {
	session.State = session.ReturnState
	session.AwaitingField = ""
	session.ReturnState = models.StateIdle
}

// await enters a settings sub-flow, remembering where to come back to
func await(session *models.Session, state models.State, field string) {
	session.ReturnState = models.StateIdle
	if session.Pending != nil {
		session.ReturnState = models.StateAwaitingPrice
	}
	session.State = state
	session.AwaitingField = field
}

func (b *Bot) captureBrand(ctx context.Context, session *models.Session, msg Message) {
	brand := strings.TrimSpace(msg.Text)
	if brand == "" {
		b.reply(ctx, msg, promptBrand)
		return
	}
	session.Overrides.BrandOverride = brand
	resume(session)
	b.reply(ctx, msg, brandSetMessage(brand, session))
}

func (b *Bot) captureAdminInput(ctx context.Context, session *models.Session, msg Message) {
	text := strings.TrimSpace(msg.Text)
	var (
		reply string
		ok    bool
	)
	switch session.AwaitingField {
	case fieldGender:
		reply, ok = setGender(session, text)
		if !ok {
			reply = promptGender
		}
	case fieldSupplier:
		reply, ok = setSupplier(session, text)
		if !ok {
			reply = promptSupplier
		}
	case fieldEditPrice:
		reply, ok = setPriceOverride(session, strings.Fields(text))
		if !ok {
			reply = promptEditPrice
		}
	default:
		// nothing sensible to wait for
		slog.Warn("Unknown awaited field", "user_id", msg.UserID, "field", session.AwaitingField)
		resume(session)
		b.reply(ctx, msg, msgIdleHint)
		return
	}

	if ok {
		resume(session)
		reply += resumeHint(session)
	}
	b.reply(ctx, msg, reply)
}

func resumeHint(session *models.Session) string {
	if session.State == models.StateAwaitingPrice {
		return "\n\n💰 Now enter pricing for the pending product or /skip"
	}
	return ""
}

func brandSetMessage(brand string, session *models.Session) string {
	return fmt.Sprintf("✅ Brand override set to: %s\nThis will be used until you run /clear.", brand) + resumeHint(session)
}

func setGender(session *models.Session, value string) (string, bool) {
	gender := strings.ToUpper(value)
	name, ok := models.GenderNames[gender]
	if !ok {
		return usageGender, false
	}
	session.Overrides.DefaultGender = gender
	return "✅ Default gender set to: " + name, true
}

func setSupplier(session *models.Session, value string) (string, bool) {
	if value == "" {
		return usageSupplier, false
	}
	session.Overrides.DefaultSupplier = value
	return "✅ Default supplier set to: " + value, true
}

func setPriceOverride(session *models.Session, args []string) (string, bool) {
	if len(args) != 1 && len(args) != 2 {
		return usageEditPrice, false
	}
	prices, err := ParsePrice(strings.Join(args, " "))
	if err != nil || !prices.Set {
		return "❌ Invalid price format. Please use numbers only.", false
	}
	session.Overrides.PriceOverride = &prices
	return "✅ Price override set to: " + formatPrices(prices), true
}
