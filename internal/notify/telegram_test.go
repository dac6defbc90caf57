package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"lead-gateway/internal/apperr"
	"lead-gateway/internal/config"
	"lead-gateway/internal/model"
)

func TestEscape(t *testing.T) {
	require.Equal(t, `\+49 \(170\) 123\-45\.67`, Escape("+49 (170) 123-45.67"))
	require.Equal(t, `a\_b\*c\\d`, Escape(`a_b*c\d`))
	require.Equal(t, "Иван", Escape("Иван"))
}

func TestFormatLeadFull(t *testing.T) {
	at := time.Date(2026, 10, 18, 11, 4, 5, 0, time.UTC)
	msg := FormatLead(model.LeadSubmission{
		Name:         "Ivan",
		Phone:        "+491701234567",
		Email:        "ivan@example.com",
		PackageType:  "premium",
		SiteLanguage: "de",
		PageURL:      "https://landing.example.com/de",
		UTM:          map[string]string{"utm_source": "facebook", "utm_campaign": "spring"},
	}, at)

	require.Contains(t, msg, "👤 *Имя:* Ivan\n")
	require.Contains(t, msg, `📱 *Телефон:* \+491701234567`)
	require.Contains(t, msg, `📧 *Email:* ivan@example\.com`)
	require.Contains(t, msg, "📦 *Пакет:* premium")
	require.NotContains(t, msg, "WhatsApp")
	require.NotContains(t, msg, "Комментарий")
	require.Contains(t, msg, "🌍 *Язык сайта:* de")
	require.Contains(t, msg, "Source: facebook")
	require.Contains(t, msg, "Campaign: spring")
	require.Contains(t, msg, `Medium: \-`)
	require.Contains(t, msg, `https://landing\.example\.com/de`)
	require.True(t, strings.HasSuffix(msg, `⏰ 18\.10\.2026, 14:04:05 МСК`))
}

func TestFormatLeadDefaults(t *testing.T) {
	msg := FormatLead(model.LeadSubmission{Name: "A", Phone: "1"}, time.Unix(0, 0))
	require.Contains(t, msg, "🌍 *Язык сайта:* ru")
	require.Contains(t, msg, "Source: direct")
	require.Contains(t, msg, `Campaign: \-`)
}

func TestMessageChatAddressing(t *testing.T) {
	sub := model.LeadSubmission{Name: "Ivan", Phone: "1"}

	msg := NewTelegram(config.TelegramConfig{ChatID: "-100500"}, http.DefaultClient).Message(sub)
	require.Equal(t, int64(-100500), msg.ChatID)
	require.Empty(t, msg.ChannelUsername)
	require.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)

	msg = NewTelegram(config.TelegramConfig{ChatID: "@driver_leads"}, http.DefaultClient).Message(sub)
	require.Equal(t, "@driver_leads", msg.ChannelUsername)
}

func TestNotifyLead(t *testing.T) {
	var (
		path string
		form url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = r.ParseForm()
		form = r.PostForm
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100500,"type":"supergroup"}}}`))
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "123:abc", ChatID: "-100500", APIURL: srv.URL}, srv.Client())
	require.NoError(t, tg.NotifyLead(t.Context(), model.LeadSubmission{Name: "Ivan", Phone: "+7 900"}))
	require.Equal(t, "/bot123:abc/sendMessage", path)
	require.Equal(t, "-100500", form.Get("chat_id"))
	require.Equal(t, "MarkdownV2", form.Get("parse_mode"))
	require.Contains(t, form.Get("text"), `📱 *Телефон:* \+7 900`)
}

func TestNotifyLeadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "t", ChatID: "1", APIURL: srv.URL}, srv.Client())
	err := tg.NotifyLead(t.Context(), model.LeadSubmission{Name: "Ivan", Phone: "1"})
	var uerr *apperr.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, http.StatusBadRequest, uerr.StatusCode)
	require.Contains(t, string(uerr.Details()), "can't parse entities")
}

func TestNotifyLeadUsesCallerContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	tg := NewTelegram(config.TelegramConfig{BotToken: "t", ChatID: "1", APIURL: srv.URL}, srv.Client())
	began := time.Now()
	err := tg.NotifyLead(ctx, model.LeadSubmission{Name: "Ivan", Phone: "1"})
	require.Error(t, err)
	require.Less(t, time.Since(began), 2*time.Second)
}

func TestNotifyLeadRedactsToken(t *testing.T) {
	tg := NewTelegram(config.TelegramConfig{BotToken: "secret-token", ChatID: "1", APIURL: "http://127.0.0.1:1"}, http.DefaultClient)
	err := tg.NotifyLead(t.Context(), model.LeadSubmission{Name: "Ivan", Phone: "1"})
	require.Error(t, err)
	require.NotContains(t, err.Error(), "secret-token")
}
