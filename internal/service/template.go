// Package service implements the intercom business logic: visit lifecycle,
// notification fan-out, webhook response processing, preferences, and
// tenant settings.
package service

import (
	"regexp"
	"strings"

	"armonia.dev/intercom/internal/models"
)

// Message kinds used as template lookup keys.
const (
	TemplateVisitorNotification = "visitor_notification"
	TemplateVisitApproved       = "visit_approved"
	TemplateVisitRejected       = "visit_rejected"
)

// DefaultVisitorTemplate is used when no template is configured for a
// channel. Residents of the deployments this serves speak Spanish.
const DefaultVisitorTemplate = "¡Hola! Tienes un visitante: {{visitor.name}} para {{unit.number}}. Motivo: {{purpose}}"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// RenderTemplate substitutes {{dotted.path}} placeholders from vars.
// Placeholders with no matching key are left in the output verbatim so a
// misconfigured template is visible rather than silently blank.
func RenderTemplate(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(strings.Trim(match, "{}"))
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}

// TemplateVars builds the substitution map for a visit notification.
func TemplateVars(visit *models.Visit, unit *models.Unit) map[string]string {
	vars := map[string]string{
		"purpose": visit.Purpose,
	}
	vars["visitor.name"] = visit.Visitor.Name
	vars["visitor.type"] = visit.Visitor.Type.Name
	if unit != nil {
		vars["unit.number"] = unit.Number
		vars["unit.tower"] = unit.Tower
	}
	return vars
}

// LookupTemplate resolves the template for a channel and message kind from
// settings, falling back to the default visitor template.
func LookupTemplate(settings *models.ChannelSettings, channel models.NotificationChannel, kind string) string {
	if settings != nil && settings.MessageTemplates != nil {
		if byKind, ok := settings.MessageTemplates[string(channel)].(map[string]interface{}); ok {
			if tmpl, ok := byKind[kind].(string); ok && tmpl != "" {
				return tmpl
			}
		}
	}
	if kind == TemplateVisitorNotification {
		return DefaultVisitorTemplate
	}
	return ""
}
