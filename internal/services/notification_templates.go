package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/medibook/backend/internal/channels"
	"github.com/medibook/backend/internal/config"
	"github.com/medibook/backend/internal/models"
)

// Payload variable names
const (
	VarPatientName     = "patient_name"
	VarHospitalName    = "hospital_name"
	VarReservationID   = "reservation_id"
	VarReservationTime = "reservation_time"
	VarReviewID        = "review_id"
	VarThreadCount     = "thread_count"
)

// notificationTemplate is the per-type rendition. Placeholders use the
// {{name}} form; every placeholder must be listed in required.
type notificationTemplate struct {
	required   []string
	pushTitle  string
	pushBody   string
	message    string // business message body, also the SMS fallback text
	buttonName string
	linkPath   string
}

var notificationTemplates = map[models.NotificationType]notificationTemplate{
	models.NotifyReservationConfirmed: {
		required:   []string{VarHospitalName, VarReservationTime, VarReservationID},
		pushTitle:  "Reservation confirmed",
		pushBody:   "{{hospital_name}} confirmed your visit on {{reservation_time}}.",
		message:    "[MediBook] Your reservation at {{hospital_name}} on {{reservation_time}} is confirmed.",
		buttonName: "View reservation",
		linkPath:   "/reservations/{{reservation_id}}",
	},
	models.NotifyReservationCancelled: {
		required:   []string{VarHospitalName, VarReservationTime, VarReservationID},
		pushTitle:  "Reservation cancelled",
		pushBody:   "Your visit to {{hospital_name}} on {{reservation_time}} was cancelled.",
		message:    "[MediBook] Your reservation at {{hospital_name}} on {{reservation_time}} has been cancelled.",
		buttonName: "View reservation",
		linkPath:   "/reservations/{{reservation_id}}",
	},
	models.NotifyReservationReminder: {
		required:   []string{VarPatientName, VarHospitalName, VarReservationTime, VarReservationID},
		pushTitle:  "Visit tomorrow",
		pushBody:   "{{patient_name}}, you have a visit to {{hospital_name}} at {{reservation_time}}.",
		message:    "[MediBook] {{patient_name}}, reminder: your visit to {{hospital_name}} is on {{reservation_time}}.",
		buttonName: "View reservation",
		linkPath:   "/reservations/{{reservation_id}}",
	},
	models.NotifyReviewRequest: {
		required:  []string{VarHospitalName, VarReservationID},
		pushTitle: "How was your visit?",
		pushBody:  "Tell others about your visit to {{hospital_name}}.",
		message:   "[MediBook] How was your visit to {{hospital_name}}? Leave a review.",
		linkPath:  "/reservations/{{reservation_id}}/review",
	},
	models.NotifyNewReservation: {
		required:  []string{VarPatientName, VarReservationTime, VarReservationID},
		pushTitle: "New reservation",
		pushBody:  "{{patient_name}} booked a visit on {{reservation_time}}.",
		message:   "[MediBook] New reservation from {{patient_name}} on {{reservation_time}}.",
		linkPath:  "/hospital/reservations/{{reservation_id}}",
	},
	models.NotifyNewReview: {
		required:  []string{VarPatientName, VarReviewID},
		pushTitle: "New review",
		pushBody:  "{{patient_name}} left a review.",
		message:   "[MediBook] {{patient_name}} left a new review.",
		linkPath:  "/hospital/reviews/{{review_id}}",
	},
	models.NotifyUnansweredChat: {
		required:   []string{VarHospitalName, VarThreadCount},
		pushTitle:  "Unanswered chats",
		pushBody:   "{{thread_count}} patient chats at {{hospital_name}} are waiting for a reply.",
		message:    "[MediBook] {{hospital_name}} has {{thread_count}} patient chats without a reply for over 24 hours.",
		buttonName: "Open chats",
		linkPath:   "/hospital/chats",
	},
}

// RequiredVariables returns the payload keys type t needs, sorted
func RequiredVariables(t models.NotificationType) []string {
	tmpl, ok := notificationTemplates[t]
	if !ok {
		return nil
	}
	vars := append([]string(nil), tmpl.required...)
	sort.Strings(vars)
	return vars
}

// RenderContent builds every channel rendition of a notification. A missing
// required variable or an unknown type yields channels.ErrTemplateInvalid.
func RenderContent(cfg config.ChannelConfig, t models.NotificationType, payload map[string]string) (channels.Content, error) {
	tmpl, ok := notificationTemplates[t]
	if !ok {
		return channels.Content{}, fmt.Errorf("%w: unknown notification type %q", channels.ErrTemplateInvalid, t)
	}

	var missing []string
	for _, name := range tmpl.required {
		if strings.TrimSpace(payload[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return channels.Content{}, fmt.Errorf("%w: %s missing %s", channels.ErrTemplateInvalid, t, strings.Join(missing, ", "))
	}

	vars := make(map[string]string, len(tmpl.required))
	for _, name := range tmpl.required {
		vars[name] = payload[name]
	}

	link := deepLink(cfg.DeepLinkBaseURL, replaceTemplateVars(tmpl.linkPath, vars))

	data := make(map[string]string, len(payload)+2)
	for k, v := range payload {
		if reservedDataKey(k) {
			continue
		}
		data[k] = v
	}
	data["type"] = string(t)
	if link != "" {
		data["link"] = link
	}

	text := replaceTemplateVars(tmpl.message, vars)
	msg := &channels.MessageContent{
		Variables: vars,
		Text:      text,
	}
	if code, ok := cfg.BusinessMessage.TemplateCode(t); ok {
		msg.TemplateCode = code
	}
	if link != "" && tmpl.buttonName != "" {
		msg.Buttons = []channels.Button{{
			Name:      tmpl.buttonName,
			Type:      "WL",
			MobileURL: link,
			PCURL:     link,
		}}
	}

	return channels.Content{
		Push: &channels.PushContent{
			Title: replaceTemplateVars(tmpl.pushTitle, vars),
			Body:  replaceTemplateVars(tmpl.pushBody, vars),
			Data:  data,
		},
		BusinessMessage: msg,
		SMSText:         text,
	}, nil
}

// replaceTemplateVars replaces {{variable}} placeholders in template
func replaceTemplateVars(template string, vars map[string]string) string {
	result := template
	for name, value := range vars {
		result = strings.ReplaceAll(result, "{{"+name+"}}", value)
	}
	return result
}

// reservedDataKey reports keys FCM rejects in a message data payload
func reservedDataKey(key string) bool {
	k := strings.ToLower(key)
	switch k {
	case "", "from", "notification", "message_type":
		return true
	}
	return strings.HasPrefix(k, "google") || strings.HasPrefix(k, "gcm")
}

func deepLink(baseURL, path string) string {
	if baseURL == "" || path == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + path
}
