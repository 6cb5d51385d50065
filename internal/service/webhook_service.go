package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"armonia.dev/intercom/internal/audit"
	"armonia.dev/intercom/internal/channel"
	"armonia.dev/intercom/internal/models"
	"armonia.dev/intercom/internal/pkg/logger"
)

// Response token sets. Matching is case-insensitive on the trimmed text;
// word tokens match by containment, the numeric shortcuts only exactly.
var (
	affirmativeTokens = []string{"si", "sí", "aprobar", "aceptar"}
	negativeTokens    = []string{"no", "rechazar", "denegar"}
)

// WebhookResult is the structured outcome returned to the provider-facing
// endpoint. Verification and configuration failures surface here; downstream
// processing errors are logged and still report success so providers do not
// retry-flood the endpoint.
type WebhookResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// WebhookService turns inbound provider payloads into visit decisions.
type WebhookService struct {
	db       *gorm.DB
	registry *channel.Registry
	visits   *VisitService
	audit    *audit.Logger
}

// NewWebhookService creates a WebhookService.
func NewWebhookService(db *gorm.DB, registry *channel.Registry, visits *VisitService, auditLog *audit.Logger) *WebhookService {
	return &WebhookService{db: db, registry: registry, visits: visits, audit: auditLog}
}

// ProcessWebhook verifies, parses, and applies one inbound provider payload.
func (s *WebhookService) ProcessWebhook(ctx context.Context, ch models.NotificationChannel, payload []byte, signature string) WebhookResult {
	adapter, err := s.registry.Get(ch)
	if err != nil {
		return WebhookResult{Success: false, Error: "Channel not configured"}
	}

	// Authenticity check must run before anything reads the payload.
	if !adapter.VerifyWebhook(payload, signature) {
		logger.Warn("Webhook verification failed", zap.String("channel", string(ch)))
		return WebhookResult{Success: false, Error: "Webhook verification failed"}
	}

	event, err := adapter.ParseResponse(payload)
	if err != nil {
		logger.Warn("Unrecognized webhook payload",
			zap.String("channel", string(ch)),
			zap.Error(err),
		)
		return WebhookResult{Success: false, Error: "Unrecognized payload"}
	}

	switch event.Kind {
	case channel.KindButton:
		s.processButton(ctx, ch, event)
	case channel.KindText:
		s.processText(ctx, ch, event)
	default:
		logger.Debug("Ignoring non-actionable webhook event",
			zap.String("channel", string(ch)),
			zap.String("kind", string(event.Kind)),
		)
	}

	return WebhookResult{Success: true}
}

// processButton handles an "<action>_<notificationID>" button payload.
// Errors past this point are logged, not returned: the provider already
// delivered a valid payload and must not retry.
func (s *WebhookService) processButton(ctx context.Context, ch models.NotificationChannel, event *channel.Event) {
	action, notificationID, ok := splitActionToken(event.ButtonPayload)
	if !ok {
		logger.Warn("Button payload is not an action token",
			zap.String("channel", string(ch)),
			zap.String("payload", event.ButtonPayload),
		)
		return
	}

	var notification models.Notification
	err := s.db.WithContext(ctx).First(&notification, "id = ?", notificationID).Error
	if err != nil {
		logger.Error("Button response for unknown notification",
			zap.String("notification_id", notificationID),
			zap.Error(err),
		)
		return
	}

	var responseType models.ResponseType
	switch action {
	case "approve":
		responseType = models.ResponseTypeApprove
		_, err = s.visits.ApproveVisit(ctx, notification.VisitID, notification.ResidentID)
	case "reject":
		responseType = models.ResponseTypeReject
		_, err = s.visits.RejectVisit(ctx, notification.VisitID, notification.ResidentID)
	}
	if err != nil {
		logger.Error("Button decision could not be applied",
			zap.String("visit_id", notification.VisitID),
			zap.String("notification_id", notification.ID),
			zap.String("action", action),
			zap.Error(err),
		)
	}

	s.recordResponse(ctx, &notification, event.ButtonPayload, responseType)
}

// processText resolves the sender to a resident and applies the "most recent
// pending ask wins" policy.
func (s *WebhookService) processText(ctx context.Context, ch models.NotificationChannel, event *channel.Event) {
	residentID, ok := s.resolveResident(ctx, ch, event.From)
	if !ok {
		logger.Debug("Text response from unknown address",
			zap.String("channel", string(ch)),
			zap.String("from", event.From),
		)
		return
	}

	var notification models.Notification
	err := s.db.WithContext(ctx).
		Where("resident_id = ? AND channel = ?", residentID, ch).
		Where("status IN ?", []models.NotificationStatus{
			models.NotificationStatusSent,
			models.NotificationStatusDelivered,
			models.NotificationStatusRead,
		}).
		Order("sent_at DESC").
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing awaiting a response; accepted with no state change.
			logger.Debug("Text response with no pending notification",
				zap.Int("resident_id", residentID),
				zap.String("channel", string(ch)),
			)
			return
		}
		logger.Error("Failed to resolve pending notification",
			zap.Int("resident_id", residentID),
			zap.Error(err),
		)
		return
	}

	responseType := classifyResponse(event.Text)
	switch responseType {
	case models.ResponseTypeApprove:
		if _, err := s.visits.ApproveVisit(ctx, notification.VisitID, residentID); err != nil {
			logger.Error("Text approval could not be applied",
				zap.String("visit_id", notification.VisitID),
				zap.Error(err),
			)
		}
	case models.ResponseTypeReject:
		if _, err := s.visits.RejectVisit(ctx, notification.VisitID, residentID); err != nil {
			logger.Error("Text rejection could not be applied",
				zap.String("visit_id", notification.VisitID),
				zap.Error(err),
			)
		}
	}

	s.recordResponse(ctx, &notification, event.Text, responseType)
}

// resolveResident maps a provider sender address to a resident id through
// the preference table.
func (s *WebhookService) resolveResident(ctx context.Context, ch models.NotificationChannel, from string) (int, bool) {
	var prefs []models.ResidentPreference

	switch ch {
	case models.ChannelWhatsApp:
		if err := s.db.WithContext(ctx).
			Where("whatsapp_enabled = ? AND whatsapp_number <> ''", true).
			Find(&prefs).Error; err != nil {
			return 0, false
		}
		fromDigits := phoneDigits(from)
		for _, p := range prefs {
			if phonesMatch(fromDigits, phoneDigits(p.WhatsappNumber)) {
				return p.ResidentID, true
			}
		}
	case models.ChannelTelegram:
		var pref models.ResidentPreference
		err := s.db.WithContext(ctx).
			Where("telegram_enabled = ? AND telegram_chat_id = ?", true, from).
			First(&pref).Error
		if err == nil {
			return pref.ResidentID, true
		}
	}
	return 0, false
}

// recordResponse stores the response fields and moves the notification to
// RESPONDED. Runs on every branch so responses are auditable even when the
// decision could not be applied.
func (s *WebhookService) recordResponse(ctx context.Context, notification *models.Notification, raw string, responseType models.ResponseType) {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(notification).Updates(map[string]interface{}{
		"status":        models.NotificationStatusResponded,
		"response":      raw,
		"response_type": responseType,
		"responded_at":  &now,
	}).Error
	if err != nil {
		logger.Error("Failed to record notification response",
			zap.String("notification_id", notification.ID),
			zap.Error(err),
		)
		return
	}

	s.audit.LogAction(ctx, "notification_responded", notification.ID, map[string]interface{}{
		"visit_id":      notification.VisitID,
		"resident_id":   notification.ResidentID,
		"response_type": string(responseType),
	})
}

// splitActionToken parses "<action>_<notificationID>" button payloads.
func splitActionToken(payload string) (action, notificationID string, ok bool) {
	action, notificationID, found := strings.Cut(payload, "_")
	if !found || notificationID == "" {
		return "", "", false
	}
	if action != "approve" && action != "reject" {
		return "", "", false
	}
	return action, notificationID, true
}

// classifyResponse maps free text to a decision. Word tokens match anywhere
// in the text ("sí, que siga" approves); the numeric shortcuts only match
// the whole trimmed text, a lone digit inside a sentence is not a decision.
func classifyResponse(text string) models.ResponseType {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "1" {
		return models.ResponseTypeApprove
	}
	if normalized == "2" {
		return models.ResponseTypeReject
	}

	// Affirmatives win over negatives: "bueno, si" approves even though
	// "bueno" contains "no".
	for _, token := range affirmativeTokens {
		if strings.Contains(normalized, token) {
			return models.ResponseTypeApprove
		}
	}
	for _, token := range negativeTokens {
		if strings.Contains(normalized, token) {
			return models.ResponseTypeReject
		}
	}
	return models.ResponseTypeCustom
}

// phoneDigits strips everything but digits from a phone-like address.
func phoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phonesMatch compares digit strings tolerating a missing country prefix on
// either side.
func phonesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return strings.HasSuffix(a, b) || strings.HasSuffix(b, a)
}
