// Package notify sends lead notifications to a Telegram chat.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lead-gateway/internal/apperr"
	"lead-gateway/internal/config"
	"lead-gateway/internal/httpx"
	"lead-gateway/internal/model"
)

// Moscow has had no DST since 2014.
var moscow = time.FixedZone("MSK", 3*60*60)

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	cfg    config.TelegramConfig
	client httpx.HTTPClient
	now    func() time.Time
}

func NewTelegram(cfg config.TelegramConfig, client httpx.HTTPClient) *Telegram {
	return &Telegram{cfg: cfg, client: client, now: time.Now}
}

// contextClient binds the caller's context to requests the bot library builds.
type contextClient struct {
	ctx    context.Context
	client httpx.HTTPClient
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

// bot is built per call. NewBotAPI would issue a getMe request first.
func (t *Telegram) bot(ctx context.Context) *tgbotapi.BotAPI {
	bot := &tgbotapi.BotAPI{Token: t.cfg.BotToken, Client: contextClient{ctx: ctx, client: t.client}}
	bot.SetAPIEndpoint(t.cfg.APIURL + "/bot%s/%s")
	return bot
}

// Message builds the sendMessage request. Numeric chat ids address groups and
// users; anything else is treated as a channel username.
func (t *Telegram) Message(sub model.LeadSubmission) tgbotapi.MessageConfig {
	text := FormatLead(sub, t.now())
	msg := tgbotapi.NewMessageToChannel(t.cfg.ChatID, text)
	if id, err := strconv.ParseInt(t.cfg.ChatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// NotifyLead sends the formatted lead card to the configured chat.
func (t *Telegram) NotifyLead(ctx context.Context, sub model.LeadSubmission) error {
	_, err := t.bot(ctx).Send(t.Message(sub))
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		body, _ := json.Marshal(map[string]any{"error_code": apiErr.Code, "description": apiErr.Message})
		return &apperr.UpstreamError{Service: "Telegram", StatusCode: apiErr.Code, Body: body}
	}
	// the request URL embeds the bot token; keep it out of the error
	return fmt.Errorf("send telegram message: %w", redact(err, t.cfg.BotToken))
}

// FormatLead renders the MarkdownV2 lead card. Every user supplied value is escaped.
func FormatLead(sub model.LeadSubmission, at time.Time) string {
	var b strings.Builder
	b.WriteString("🚨 *Новая заявка водителя C\\+E*\n\n")
	fmt.Fprintf(&b, "👤 *Имя:* %s\n", Escape(sub.Name))
	fmt.Fprintf(&b, "📱 *Телефон:* %s\n", Escape(sub.Phone))
	optional := []struct{ label, value string }{
		{"💬 *WhatsApp:*", sub.WhatsApp},
		{"📧 *Email:*", sub.Email},
		{"📦 *Пакет:*", sub.PackageType},
		{"💭 *Комментарий:*", sub.Comments},
	}
	for _, o := range optional {
		if o.value != "" {
			fmt.Fprintf(&b, "%s %s\n", o.label, Escape(o.value))
		}
	}

	lang := sub.SiteLanguage
	if lang == "" {
		lang = "ru"
	}
	fmt.Fprintf(&b, "\n🌍 *Язык сайта:* %s\n", Escape(lang))
	b.WriteString("📊 *UTM:*\n")
	fmt.Fprintf(&b, "  \\- Source: %s\n", Escape(sub.UTMValue("utm_source", "direct")))
	fmt.Fprintf(&b, "  \\- Campaign: %s\n", Escape(sub.UTMValue("utm_campaign", "-")))
	fmt.Fprintf(&b, "  \\- Medium: %s\n", Escape(sub.UTMValue("utm_medium", "-")))
	fmt.Fprintf(&b, "\n🔗 *Страница:* %s\n", Escape(sub.PageURL))
	fmt.Fprintf(&b, "⏰ %s МСК", Escape(at.In(moscow).Format("02.01.2006, 15:04:05")))
	return b.String()
}

// Escape escapes text for MarkdownV2. EscapeText leaves backslashes alone, so
// they are doubled first.
func Escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, strings.ReplaceAll(s, `\`, `\\`))
}

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), secret, "<redacted>"))
}
