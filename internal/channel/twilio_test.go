package channel

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
)

func twilioSign(authToken, callbackURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(callbackURL)
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(sb.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTwilioAdapter_NormalizePhone(t *testing.T) {
	adapter := NewTwilioAdapter(TwilioConfig{CountryCode: "+57"})

	tests := []struct {
		in   string
		want string
	}{
		{"3001234567", "whatsapp:+573001234567"},
		{"+573001234567", "whatsapp:+573001234567"},
		{"whatsapp:+573001234567", "whatsapp:+573001234567"},
		{"300 123-4567", "whatsapp:+573001234567"},
		{"(300) 123 4567", "whatsapp:+573001234567"},
		{"+14155551234", "whatsapp:+14155551234"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, adapter.NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestTwilioAdapter_VerifyWebhook(t *testing.T) {
	const authToken = "test-auth-token"
	const callbackURL = "https://example.com/webhooks/whatsapp"

	adapter := NewTwilioAdapter(TwilioConfig{
		AuthToken:   authToken,
		CallbackURL: callbackURL,
	})

	form := url.Values{}
	form.Set("From", "whatsapp:+573001234567")
	form.Set("Body", "si")
	form.Set("MessageSid", "SM123")
	payload := []byte(form.Encode())

	t.Run("valid signature", func(t *testing.T) {
		sig := twilioSign(authToken, callbackURL, form)
		assert.True(t, adapter.VerifyWebhook(payload, sig))
	})

	t.Run("wrong signature", func(t *testing.T) {
		assert.False(t, adapter.VerifyWebhook(payload, "bm90LXRoZS1zaWduYXR1cmU="))
	})

	t.Run("empty signature", func(t *testing.T) {
		assert.False(t, adapter.VerifyWebhook(payload, ""))
	})

	t.Run("tampered payload", func(t *testing.T) {
		sig := twilioSign(authToken, callbackURL, form)
		tampered := url.Values{}
		tampered.Set("From", "whatsapp:+573001234567")
		tampered.Set("Body", "no")
		tampered.Set("MessageSid", "SM123")
		assert.False(t, adapter.VerifyWebhook([]byte(tampered.Encode()), sig))
	})
}

func TestTwilioAdapter_ParseResponse(t *testing.T) {
	adapter := NewTwilioAdapter(TwilioConfig{CountryCode: "+57"})

	t.Run("text message", func(t *testing.T) {
		form := url.Values{}
		form.Set("From", "whatsapp:+573001234567")
		form.Set("Body", "aprobar")
		form.Set("MessageSid", "SM456")

		event, err := adapter.ParseResponse([]byte(form.Encode()))
		require.NoError(t, err)
		assert.Equal(t, "+573001234567", event.From)
		assert.Equal(t, "aprobar", event.Text)
		assert.Equal(t, "SM456", event.MessageID)
		assert.Equal(t, KindText, event.Kind)
	})

	t.Run("media message", func(t *testing.T) {
		form := url.Values{}
		form.Set("From", "whatsapp:+573001234567")
		form.Set("MessageSid", "SM457")
		form.Set("NumMedia", "1")

		event, err := adapter.ParseResponse([]byte(form.Encode()))
		require.NoError(t, err)
		assert.Equal(t, KindMedia, event.Kind)
	})

	t.Run("location message", func(t *testing.T) {
		form := url.Values{}
		form.Set("From", "whatsapp:+573001234567")
		form.Set("MessageSid", "SM458")
		form.Set("Latitude", "4.6097")
		form.Set("Longitude", "-74.0817")

		event, err := adapter.ParseResponse([]byte(form.Encode()))
		require.NoError(t, err)
		assert.Equal(t, KindLocation, event.Kind)
	})

	t.Run("missing required fields", func(t *testing.T) {
		form := url.Values{}
		form.Set("Body", "si")

		_, err := adapter.ParseResponse([]byte(form.Encode()))
		require.Error(t, err)
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeUnrecognizedPayload, appErr.Code)
	})
}

func TestTwilioAdapter_SendMessage(t *testing.T) {
	var capturedForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/Accounts/AC123/Messages.json")
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		require.NoError(t, r.ParseForm())
		capturedForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM999","status":"queued"}`))
	}))
	defer server.Close()

	adapter := NewTwilioAdapter(TwilioConfig{
		AccountSid:  "AC123",
		AuthToken:   "token",
		FromNumber:  "+14155238886",
		CountryCode: "+57",
	})
	adapter.apiBase = server.URL

	result := adapter.SendMessage(context.Background(), "3001234567", "Tienes un visitante", &SendOptions{
		Buttons: []Button{
			{Text: "Aprobar"},
			{Text: "Rechazar"},
		},
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "SM999", result.MessageID)
	assert.Equal(t, "whatsapp:+14155238886", capturedForm.Get("From"))
	assert.Equal(t, "whatsapp:+573001234567", capturedForm.Get("To"))
	assert.Contains(t, capturedForm.Get("Body"), "1. Aprobar")
	assert.Contains(t, capturedForm.Get("Body"), "2. Rechazar")
}

func TestTwilioAdapter_SendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' phone number"}`))
	}))
	defer server.Close()

	adapter := NewTwilioAdapter(TwilioConfig{AccountSid: "AC123", AuthToken: "token"})
	adapter.apiBase = server.URL

	result := adapter.SendMessage(context.Background(), "bad", "hola", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "21211")
}

func TestTwilioAdapter_Name(t *testing.T) {
	adapter := NewTwilioAdapter(TwilioConfig{})
	assert.Equal(t, models.ChannelWhatsApp, adapter.Name())
	assert.False(t, adapter.SupportsButtons())
}
