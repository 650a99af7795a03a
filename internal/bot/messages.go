// Package bot 实现了 Telegram 消息的分发与回复渲染。
package bot

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"gena-go/internal/entitlement"
	"gena-go/internal/model"
)

// Bot API 单条消息的长度上限。
const maxMessageLen = 4096

// SplitMessage 将超长文本切分为不超过 maxMessageLen 字节的分段。
// 优先在换行处切分，其次空格，最后在字符边界硬切。
func SplitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxMessageLen {
		window := truncateOnRune(text, maxMessageLen)
		// 开头处的换行或空格不能作为切点，否则会切出空分段
		cut := strings.LastIndex(window, "\n")
		if cut <= 0 {
			cut = strings.LastIndex(window, " ")
		}
		if cut <= 0 {
			cut = len(window)
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], " \n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// truncateOnRune 在不超过 limit 字节的前提下于字符边界截断，
// 避免把多字节字符切成非法 UTF-8。
func truncateOnRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func welcomeText(tier string) string {
	return fmt.Sprintf("👋 Welcome to Gena!\n\n"+
		"Your AI companion with:\n"+
		"• Text & Image support\n"+
		"• Multiple personalities\n"+
		"• Conversation memory\n"+
		"• Your plan: %s\n\n"+
		"Use /help to see all commands", tier)
}

const helpText = "Gena Bot Commands\n\n" +
	"/start - Initialize bot\n" +
	"/help - Show this message\n" +
	"/settings - View settings\n" +
	"/persona <name> - Change persona\n" +
	"/model <name> - Change model\n" +
	"/plan - View or change your plan\n" +
	"/clear - Forget conversation context\n\n" +
	"Natural Language:\n" +
	"You can also say:\n" +
	"• 'clear my context'\n" +
	"• 'show settings'\n" +
	"• 'change persona to advisor'\n\n" +
	"Send text or images to chat!"

func settingsText(settings *model.Settings, tier string) string {
	return fmt.Sprintf("⚙️ Settings\n\n"+
		"🤖 Model: %s\n"+
		"👤 Persona: %s\n"+
		"📋 Plan: %s", settings.Model, entitlement.PersonaName(settings.Persona), tier)
}

func planText(plan *model.Plan) string {
	limits := entitlement.LimitsFor(plan.Tier)
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Your Plan: %s\n\n", plan.Tier)
	fmt.Fprintf(&b, "• %d messages/minute\n", limits.MessagesPerMinute)
	fmt.Fprintf(&b, "• %d images/day\n", limits.ImagesPerDay)
	fmt.Fprintf(&b, "• %d turns of memory\n", limits.ContextTurns)
	fmt.Fprintf(&b, "• Models: %s", strings.Join(entitlement.ModelsFor(plan.Tier), ", "))
	if plan.Expiration != nil {
		fmt.Fprintf(&b, "\n\n📅 Expires: %s", plan.Expiration.Format("2006-01-02"))
	}
	if plan.Tier != entitlement.TierVIP {
		b.WriteString("\n\nUpgrade with /plan <Basic|Premium|VIP>")
	}
	return b.String()
}

func rateLimitText(retryAfter time.Duration) string {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("⏱ Rate limit exceeded. Please wait %d seconds.", seconds)
}

const (
	imageLimitText    = "🖼 Daily image limit reached. Upgrade for more!"
	busyText          = "⏳ Still working on your previous message, one moment."
	unavailableText   = "❌ The model is temporarily unavailable. Please try again."
	storageErrorText  = "❌ Something went wrong on our side. Please try again later."
	clearedText       = "🧹 Conversation context forgotten.\n(Your settings and plan are preserved)"
	notAuthorizedText = "❌ Not authorized"
	emptyMessageText  = "Please send text or an image."
)

func personaChangedText(key string) string {
	return fmt.Sprintf("👤 Persona changed to %s.", entitlement.PersonaName(key))
}

func modelChangedText(name string) string {
	desc := entitlement.ModelDescriptions[name]
	if desc == "" {
		return fmt.Sprintf("🤖 Model changed to %s.", name)
	}
	return fmt.Sprintf("🤖 Model changed to %s (%s).", name, desc)
}

func planChangedText(tier string) string {
	return fmt.Sprintf("📋 Your plan is now %s.", tier)
}
