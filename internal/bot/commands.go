package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ajuraforce/photo-product-analyzer/internal/models"
)

// parseCommand splits "/name@bot args" into its lowercased name and argument text
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	name, args, _ := strings.Cut(text, " ")
	name = strings.TrimPrefix(name, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), strings.TrimSpace(args)
}

func (b *Bot) handleCommand(ctx context.Context, session *models.Session, msg Message, name, args string) {
	slog.Debug("Command received", "user_id", msg.UserID, "command", name, "state", session.State)

	switch name {
	case "start":
		b.reset(session)
		b.reply(ctx, msg, welcomeMessage)
	case "help":
		b.reply(ctx, msg, helpMessage)
	case "status":
		b.status(ctx, msg)
	case "stats":
		b.stats(ctx, msg)
	case "skip":
		if session.State != models.StateAwaitingPrice {
			b.reply(ctx, msg, msgNothingToSkip)
			return
		}
		b.handlePricing(ctx, session, msg, "skip")
	case "gender":
		if args == "" {
			await(session, models.StateAwaitingAdminInput, fieldGender)
			b.reply(ctx, msg, promptGender)
			return
		}
		reply, _ := setGender(session, strings.Fields(args)[0])
		b.reply(ctx, msg, reply)
	case "supplier":
		if args == "" {
			await(session, models.StateAwaitingAdminInput, fieldSupplier)
			b.reply(ctx, msg, promptSupplier)
			return
		}
		reply, _ := setSupplier(session, args)
		b.reply(ctx, msg, reply)
	case "brand":
		if args == "" {
			await(session, models.StateAwaitingManualBrand, "")
			b.reply(ctx, msg, promptBrand)
			return
		}
		session.Overrides.BrandOverride = args
		b.reply(ctx, msg, brandSetMessage(args, session))
	case "edit_price":
		if args == "" {
			await(session, models.StateAwaitingAdminInput, fieldEditPrice)
			b.reply(ctx, msg, promptEditPrice)
			return
		}
		reply, ok := setPriceOverride(session, strings.Fields(args))
		if !ok && len(strings.Fields(args)) <= 2 {
			reply += "\n\n" + usageEditPrice
		}
		b.reply(ctx, msg, reply)
	case "reanalyze":
		if session.State != models.StateAwaitingPrice || session.Pending == nil {
			b.reply(ctx, msg, msgNothingToReanalyze)
			return
		}
		b.reanalyze(ctx, session, msg, args)
	case "settings":
		b.reply(ctx, msg, settingsMessage(session.Overrides))
	case "clear":
		b.reset(session)
		session.Clear()
		b.reply(ctx, msg, msgCleared)
	default:
		b.reply(ctx, msg, msgUnknownCommand)
	}
}

func (b *Bot) status(ctx context.Context, msg Message) {
	ok := true
	if err := b.catalog.Ping(ctx); err != nil {
		slog.Error("Catalog connection test failed", "err", err)
		ok = false
	}
	b.reply(ctx, msg, statusMessage(ok, b.opts.Provider, b.opts.Model, b.opts.Version))
}

func (b *Bot) stats(ctx context.Context, msg Message) {
	count, err := b.catalog.Count(ctx)
	if err != nil {
		slog.Error("Failed to get products count", "err", err)
		b.reply(ctx, msg, "❌ Error retrieving statistics. Please try again later.")
		return
	}
	b.reply(ctx, msg, statsMessage(count))
}
