package bot

import (
	"fmt"
	"strings"

	"github.com/ajuraforce/photo-product-analyzer/internal/models"
)

const (
	msgProcessing     = "📸 Processing your photo... Please wait."
	msgAnalyzing      = "🤖 AI is analyzing the product..."
	msgSaving         = "💾 Saving to catalog..."
	msgIntakeFailed   = "❌ Failed to download image. Please try again with a different photo."
	msgTooLarge       = "❌ Photo is too large. Please try again with a different photo."
	msgInvalidImage   = "❌ That file is not a usable image (minimum 100x100). Please try again with a different photo."
	msgPhotoFailed    = "❌ Error processing photo. Please try again."
	msgSessionExpired = "❌ Session expired. Please send a new photo."
	msgInvalidPrice   = "❌ Invalid price format. Use `<price>` or `<discounted> <full>` or `/skip`"
	msgSaveFailed     = "⚠️ Product analyzed but failed to save to the catalog. Please check your configuration."
	msgIdleHint       = "📸 Send me a product photo to get started. Use /help to see all commands."
	msgNothingToSkip  = "Nothing to skip. Send a product photo first 📸"
	msgUnknownCommand = "❓ Unknown command. Use /help to see what I can do."
	msgCleared        = "✅ All overrides and settings cleared."

	msgNothingToReanalyze = "Nothing to reanalyze. Send a product photo first 📸"
	msgReanalyzeFailed    = "❌ Reanalysis failed. The previous details are kept, enter pricing or /skip"

	usageGender    = "Usage: `/gender M|F|U`\n• M = Male\n• F = Female\n• U = Unisex"
	usageSupplier  = "Usage: `/supplier <supplier_name>`\nExample: `/supplier Nike Store`"
	usageEditPrice = "Usage: `/edit_price <price>` or `/edit_price <discounted> <full>`\nExamples:\n• `/edit_price 29.99`\n• `/edit_price 24.99 29.99`"

	promptGender    = "👤 Send the default gender: `M`, `F` or `U`"
	promptSupplier  = "🏪 Send the supplier name"
	promptBrand     = "🏢 Send the brand name to use for products"
	promptEditPrice = "💰 Send the price override: `<price>` or `<discounted> <full>`"
)

const welcomeMessage = `👋 *Welcome to the Product Cataloger Bot!*

📸 Send me a product photo and I'll analyze it with AI to create a catalog entry.

*How it works:*
1. Send a product photo
2. I'll analyze it with AI vision
3. Review the details and enter pricing
4. Data gets saved to the catalog

*Commands:*
• /start - Show this message
• /status - Show bot status
• /help - Show detailed help
• /stats - Show processing statistics

Ready to get started? Just send me a product photo! 📱`

const helpMessage = `🆘 *Help - Product Cataloger Bot*

*Basic Usage:*
1. Send a product photo (a caption is passed to the AI as extra context)
2. Review AI-generated details
3. Reply with pricing or /skip
4. Data gets saved to the catalog

Not happy with the result? ` + "`/reanalyze <hint>`" + ` runs the AI again with your hint.

*Admin Commands:*
• ` + "`/gender M|F|U`" + ` - Set product gender
• ` + "`/supplier <name>`" + ` - Set supplier name
• ` + "`/edit_price <discounted> <full>`" + ` - Set a price override
• ` + "`/brand <name>`" + ` - Override brand detection
• /settings - Show current settings
• /clear - Reset all settings

*Supported Features:*
• Image formats: JPG, PNG, WEBP
• Automatic: Title, Description, Type, Color
• Manual override for uncertain fields
• AI confidence scoring

*Tips:*
• Use clear, well-lit photos
• Ensure products are clearly visible
• Include brand labels when possible`

func confidenceEmoji(score int) string {
	switch {
	case score > HighConfidence:
		return "🟢"
	case score > LowConfidence:
		return "🟡"
	default:
		return "🔴"
	}
}

func brandStatus(confidence int) string {
	if confidence > HighConfidence {
		return "✅"
	}
	return "❓"
}

func analysisMessage(p *models.PendingProduct) string {
	a := p.Analysis
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *AI Analysis Results* %s\n\n", confidenceEmoji(a.ConfidenceScore))
	fmt.Fprintf(&b, "🆔 *Product ID*: `%s`\n", p.ProductID)
	fmt.Fprintf(&b, "📝 *Title*: %s\n", a.Title)
	fmt.Fprintf(&b, "📖 *Description*: %s\n", a.Description)
	fmt.Fprintf(&b, "🏷️ *Type*: %s\n", a.Type)
	fmt.Fprintf(&b, "🎨 *Color*: %s\n", a.Color)
	fmt.Fprintf(&b, "🏢 *Brand*: %s %s\n\n", a.Brand, brandStatus(a.BrandConfidence))
	fmt.Fprintf(&b, "📈 *AI Confidence*: %d%%\n", a.ConfidenceScore)
	fmt.Fprintf(&b, "🔗 *Photo*: [View Image](%s)\n", p.PhotoURL)
	if a.Error {
		b.WriteString("\n⚠️ AI analysis failed, the entry will be flagged for manual review.\n")
	}
	b.WriteString("\n💰 *Next Step*: Please enter pricing information\n")
	b.WriteString("📝 *Format*: `<discounted_price> <full_price>`\n")
	b.WriteString("📝 *Example*: `29.99 39.99` or just `39.99` for single price\n\n")
	b.WriteString("Type your pricing or /skip to save without pricing:")
	return b.String()
}

func savedMessage(rec models.CatalogRecord) string {
	price := "Not set"
	switch {
	case rec.DiscountedPrice == "":
	case rec.DiscountedPrice == rec.FullPrice:
		price = "$" + rec.FullPrice
	default:
		price = fmt.Sprintf("$%s (was $%s)", rec.DiscountedPrice, rec.FullPrice)
	}
	return fmt.Sprintf("✅ *Product Saved Successfully!*\n\n"+
		"🆔 *ID*: `%s`\n"+
		"💰 *Price*: %s\n"+
		"📊 *Status*: Added to catalog\n"+
		"🔗 *Photo*: [View](%s)\n\n"+
		"Ready for the next product! Send another photo 📸", rec.ProductID, price, rec.PhotoLinks)
}

func formatPrices(p models.Prices) string {
	if p.Discounted == p.Full {
		return "$" + FormatPrice(p.Full)
	}
	return fmt.Sprintf("$%s (was $%s)", FormatPrice(p.Discounted), FormatPrice(p.Full))
}

func settingsMessage(o models.Overrides) string {
	var b strings.Builder
	b.WriteString("⚙️ *Current Settings:*\n\n")
	if o.DefaultGender != "" {
		fmt.Fprintf(&b, "👤 *Gender*: %s\n", models.GenderNames[o.DefaultGender])
	}
	if o.DefaultSupplier != "" {
		fmt.Fprintf(&b, "🏪 *Supplier*: %s\n", o.DefaultSupplier)
	}
	if o.BrandOverride != "" {
		fmt.Fprintf(&b, "🏢 *Brand Override*: %s\n", o.BrandOverride)
	}
	if o.PriceOverride != nil {
		fmt.Fprintf(&b, "💰 *Price Override*: %s\n", formatPrices(*o.PriceOverride))
	}
	if o.Empty() {
		b.WriteString("No custom settings configured.\n")
	}
	b.WriteString("\nUse /clear to reset all settings.")
	return b.String()
}

func statusMessage(catalogOK bool, provider, model, version string) string {
	catalog := "✅ Connected"
	if !catalogOK {
		catalog = "❌ Error"
	}
	return fmt.Sprintf("🤖 *Bot Status Report*\n\n"+
		"*Core Services:*\n"+
		"• Bot: ✅ Online\n"+
		"• AI Vision: ✅ %s (%s)\n"+
		"• Catalog: %s\n"+
		"• Image Storage: ✅ Available\n\n"+
		"*System Info:*\n"+
		"• Version: %s\n\n"+
		"Send a product photo to get started! 📸", provider, model, catalog, version)
}

func statsMessage(count int) string {
	return fmt.Sprintf("📊 *Processing Statistics*\n\n*Products Cataloged:* %d\n\nKeep the photos coming! 📈", count)
}
