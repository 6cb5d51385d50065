package errors

import "net/http"

// Error code constants. Errors carry code + params; messages stay in English
// and are not localized server-side.

// Visit error codes.
const (
	CodeVisitNotFound          = "VISIT_NOT_FOUND"
	CodeVisitorNotFound        = "VISITOR_NOT_FOUND"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
)

// Notification error codes.
const (
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	CodeProviderSendFailure  = "PROVIDER_SEND_FAILURE"
)

// Channel/webhook error codes.
const (
	CodeChannelNotConfigured      = "CHANNEL_NOT_CONFIGURED"
	CodeWebhookVerificationFailed = "WEBHOOK_VERIFICATION_FAILED"
	CodeUnrecognizedPayload       = "UNRECOGNIZED_PAYLOAD"
)

// Preference/settings error codes.
const (
	CodeResidentNotFound   = "RESIDENT_NOT_FOUND"
	CodePreferenceNotFound = "PREFERENCE_NOT_FOUND"
	CodeSettingsNotFound   = "SETTINGS_NOT_FOUND"
)

// Validation error codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
)

// Convenience constructors using predefined codes.

// ErrVisitNotFoundf creates a visit not found error.
func ErrVisitNotFoundf(visitID string) *AppError {
	return NotFound(CodeVisitNotFound, "visit not found").
		WithParams(map[string]interface{}{"visit_id": visitID})
}

// ErrNotificationNotFoundf creates a notification not found error.
func ErrNotificationNotFoundf(notificationID string) *AppError {
	return NotFound(CodeNotificationNotFound, "notification not found").
		WithParams(map[string]interface{}{"notification_id": notificationID})
}

// ErrInvalidTransitionf creates a state machine misuse error carrying the
// attempted transition and the current status.
func ErrInvalidTransitionf(visitID, current, attempted string) *AppError {
	return &AppError{
		Code:       CodeInvalidStateTransition,
		Message:    "visit is not in a state that allows this transition",
		HTTPStatus: http.StatusConflict,
		Params: map[string]interface{}{
			"visit_id":       visitID,
			"current_status": current,
			"attempted":      attempted,
		},
	}
}

// ErrChannelNotConfiguredf creates an unconfigured channel error.
func ErrChannelNotConfiguredf(channel string) *AppError {
	return BadRequest(CodeChannelNotConfigured, "no adapter configured for channel").
		WithParams(map[string]interface{}{"channel": channel})
}

// ErrWebhookVerificationFailed creates a webhook authenticity error.
func ErrWebhookVerificationFailed(channel string) *AppError {
	return Unauthorized(CodeWebhookVerificationFailed, "webhook verification failed").
		WithParams(map[string]interface{}{"channel": channel})
}
