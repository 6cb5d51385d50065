package channel

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
)

const telegramAPIBase = "https://api.telegram.org/bot"

// TelegramAdapter sends through the Telegram Bot API and parses bot webhook
// updates. Telegram supports inline keyboards, so approve/reject arrive as
// callback queries rather than free text.
type TelegramAdapter struct {
	botToken string

	// secretToken, when set, must match the X-Telegram-Bot-Api-Secret-Token
	// header forwarded as the webhook signature. Without it, VerifyWebhook
	// falls back to structural validation of the update shape — that only
	// proves the payload looks like a Telegram update, not that Telegram
	// sent it.
	secretToken string

	apiBase string
	client  *http.Client
}

// TelegramConfig holds Telegram adapter settings.
type TelegramConfig struct {
	BotToken    string
	SecretToken string
	Timeout     time.Duration
}

// NewTelegramAdapter creates a Telegram adapter.
func NewTelegramAdapter(cfg TelegramConfig) *TelegramAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TelegramAdapter{
		botToken:    cfg.BotToken,
		secretToken: cfg.SecretToken,
		apiBase:     telegramAPIBase,
		client:      &http.Client{Timeout: timeout},
	}
}

// Name returns the channel identifier.
func (a *TelegramAdapter) Name() models.NotificationChannel { return models.ChannelTelegram }

// SupportsButtons reports inline keyboard support.
func (a *TelegramAdapter) SupportsButtons() bool { return true }

type telegramSendRequest struct {
	ChatID      string      `json:"chat_id"`
	Text        string      `json:"text,omitempty"`
	Photo       string      `json:"photo,omitempty"`
	Caption     string      `json:"caption,omitempty"`
	ParseMode   string      `json:"parse_mode"`
	ReplyMarkup interface{} `json:"reply_markup,omitempty"`
}

type telegramSendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// SendMessage posts sendMessage (or sendPhoto when a media URL is present).
func (a *TelegramAdapter) SendMessage(ctx context.Context, to, text string, opts *SendOptions) SendResult {
	req := telegramSendRequest{
		ChatID:    to,
		ParseMode: "HTML",
	}

	method := "sendMessage"
	if opts != nil && opts.MediaURL != "" {
		method = "sendPhoto"
		req.Photo = opts.MediaURL
		req.Caption = text
	} else {
		req.Text = text
	}

	if opts != nil && len(opts.Buttons) > 0 {
		keyboard := make([][]map[string]string, 0, len(opts.Buttons))
		for _, b := range opts.Buttons {
			keyboard = append(keyboard, []map[string]string{{
				"text":          b.Text,
				"callback_data": b.Payload,
			}})
		}
		req.ReplyMarkup = map[string]interface{}{"inline_keyboard": keyboard}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s%s/%s", a.apiBase, a.botToken, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("telegram request: %v", err)}
	}
	defer resp.Body.Close()

	var apiResp telegramSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("decode response: %v", err)}
	}

	if !apiResp.OK {
		return SendResult{Success: false, Error: apiResp.Description}
	}
	return SendResult{
		Success:   true,
		MessageID: strconv.FormatInt(apiResp.Result.MessageID, 10),
	}
}

// telegramUpdate mirrors the subset of the Bot API update object this
// service consumes. Updates are distinguished by which branch is present.
type telegramUpdate struct {
	UpdateID *int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		From      struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Date     int64  `json:"date"`
		Text     string `json:"text"`
		Photo    []any  `json:"photo"`
		Location *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	} `json:"message"`
	CallbackQuery *struct {
		ID   string `json:"id"`
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

// VerifyWebhook checks the secret token when one is configured; otherwise it
// only validates the update structure (weaker, see field doc on secretToken).
func (a *TelegramAdapter) VerifyWebhook(payload []byte, signature string) bool {
	if a.secretToken != "" {
		return subtle.ConstantTimeCompare([]byte(signature), []byte(a.secretToken)) == 1
	}

	var update telegramUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return false
	}
	return update.UpdateID != nil && (update.Message != nil || update.CallbackQuery != nil)
}

// ParseResponse converts a bot update into a normalized Event.
func (a *TelegramAdapter) ParseResponse(payload []byte) (*Event, error) {
	var update telegramUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnrecognizedPayload,
			"telegram payload is not valid JSON", 400)
	}

	switch {
	case update.CallbackQuery != nil:
		return &Event{
			From:          strconv.FormatInt(update.CallbackQuery.From.ID, 10),
			Timestamp:     time.Now().UTC(),
			MessageID:     update.CallbackQuery.ID,
			Kind:          KindButton,
			ButtonPayload: update.CallbackQuery.Data,
		}, nil

	case update.Message != nil:
		msg := update.Message
		kind := KindText
		if msg.Location != nil {
			kind = KindLocation
		} else if len(msg.Photo) > 0 {
			kind = KindMedia
		}
		return &Event{
			From:      strconv.FormatInt(msg.From.ID, 10),
			Text:      msg.Text,
			Timestamp: time.Unix(msg.Date, 0).UTC(),
			MessageID: strconv.FormatInt(msg.MessageID, 10),
			Kind:      kind,
		}, nil
	}

	return nil, apperrors.BadRequest(apperrors.CodeUnrecognizedPayload,
		"telegram update has neither message nor callback_query")
}

var _ Adapter = (*TelegramAdapter)(nil)
