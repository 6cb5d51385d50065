package channel

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioAdapter sends WhatsApp messages through the Twilio Messages API and
// parses inbound message webhooks. WhatsApp through Twilio has no inline
// button support on this API, so residents reply with text.
type TwilioAdapter struct {
	accountSid string
	authToken  string
	fromNumber string

	// callbackURL is the full public URL Twilio posts webhooks to. Signature
	// verification recomputes the HMAC over this exact URL, so it must match
	// what Twilio was configured with, including scheme and path.
	callbackURL string

	countryCode string
	apiBase     string
	client      *http.Client
}

// TwilioConfig holds Twilio adapter settings.
type TwilioConfig struct {
	AccountSid  string
	AuthToken   string
	FromNumber  string
	CallbackURL string
	CountryCode string
	Timeout     time.Duration
}

// NewTwilioAdapter creates a WhatsApp adapter backed by Twilio.
func NewTwilioAdapter(cfg TwilioConfig) *TwilioAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TwilioAdapter{
		accountSid:  cfg.AccountSid,
		authToken:   cfg.AuthToken,
		fromNumber:  cfg.FromNumber,
		callbackURL: cfg.CallbackURL,
		countryCode: cfg.CountryCode,
		apiBase:     twilioAPIBase,
		client:      &http.Client{Timeout: timeout},
	}
}

// Name returns the channel identifier.
func (a *TwilioAdapter) Name() models.NotificationChannel { return models.ChannelWhatsApp }

// SupportsButtons reports button support. Twilio WhatsApp sends plain text.
func (a *TwilioAdapter) SupportsButtons() bool { return false }

// NormalizePhone converts a stored phone number into the whatsapp:+E164 form
// Twilio expects, prefixing the configured country code when the number has
// no international prefix.
func (a *TwilioAdapter) NormalizePhone(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, strings.TrimPrefix(phone, "whatsapp:"))

	if !strings.HasPrefix(cleaned, "+") {
		cleaned = a.countryCode + cleaned
	}
	return "whatsapp:" + cleaned
}

type twilioMessageResponse struct {
	Sid     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SendMessage posts to the Twilio Messages endpoint. Button options are
// appended to the body as numbered text instructions since the channel has
// no interactive buttons.
func (a *TwilioAdapter) SendMessage(ctx context.Context, to, text string, opts *SendOptions) SendResult {
	body := text
	if opts != nil && len(opts.Buttons) > 0 {
		var sb strings.Builder
		sb.WriteString(text)
		sb.WriteString("\n")
		for i, b := range opts.Buttons {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, b.Text)
		}
		body = sb.String()
	}

	form := url.Values{}
	form.Set("From", "whatsapp:"+a.fromNumber)
	form.Set("To", a.NormalizePhone(to))
	form.Set("Body", body)
	if opts != nil && opts.MediaURL != "" {
		form.Set("MediaUrl", opts.MediaURL)
	}
	if a.callbackURL != "" {
		form.Set("StatusCallback", a.callbackURL)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", a.apiBase, a.accountSid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("build request: %v", err)}
	}
	req.SetBasicAuth(a.accountSid, a.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("twilio request: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("read response: %v", err)}
	}

	var msg twilioMessageResponse
	if err := json.Unmarshal(data, &msg); err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("decode response: %v", err)}
	}

	if resp.StatusCode >= 400 {
		return SendResult{Success: false, Error: fmt.Sprintf("twilio error %d: %s", msg.Code, msg.Message)}
	}
	return SendResult{Success: true, MessageID: msg.Sid}
}

// VerifyWebhook validates Twilio's X-Twilio-Signature header: HMAC-SHA1 of
// the callback URL concatenated with the sorted form parameters, keyed by
// the auth token and base64 encoded.
func (a *TwilioAdapter) VerifyWebhook(payload []byte, signature string) bool {
	if signature == "" || a.authToken == "" {
		return false
	}

	form, err := url.ParseQuery(string(payload))
	if err != nil {
		return false
	}

	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(a.callbackURL)
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(a.authToken))
	mac.Write([]byte(sb.String()))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// ParseResponse converts a Twilio inbound message form post into a
// normalized Event. Twilio never sends button events on this channel, so
// everything arrives as text, media, or location.
func (a *TwilioAdapter) ParseResponse(payload []byte) (*Event, error) {
	form, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnrecognizedPayload,
			"twilio payload is not form-encoded", 400)
	}

	from := form.Get("From")
	messageSid := form.Get("MessageSid")
	if from == "" || messageSid == "" {
		return nil, apperrors.BadRequest(apperrors.CodeUnrecognizedPayload,
			"twilio payload missing From or MessageSid")
	}

	kind := KindText
	if form.Get("NumMedia") != "" && form.Get("NumMedia") != "0" {
		kind = KindMedia
	} else if form.Get("Latitude") != "" && form.Get("Longitude") != "" {
		kind = KindLocation
	}

	return &Event{
		From:      strings.TrimPrefix(from, "whatsapp:"),
		Text:      form.Get("Body"),
		Timestamp: time.Now().UTC(),
		MessageID: messageSid,
		Kind:      kind,
	}, nil
}

var _ Adapter = (*TwilioAdapter)(nil)
