package models

import (
	"time"
)

// Notification is a user-facing message. SentAt distinguishes "recorded"
// from "pushed": it is set in place once push delivery succeeds.
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	SentAt    *time.Time             `json:"sent_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// MarkRead marks the notification as read.
func (n *Notification) MarkRead() {
	n.IsRead = true
}

// MarkSent records the push delivery time.
func (n *Notification) MarkSent() {
	now := time.Now().UTC()
	n.SentAt = &now
}

// NotificationPreferences is one row per user, created lazily on first
// access with every flag enabled. The flags govern whether notifications of
// each type are generated at all; BudgetEvents are recorded regardless.
type NotificationPreferences struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	BudgetWarningsEnabled bool      `json:"budget_warnings_enabled"`
	BudgetExceededEnabled bool      `json:"budget_exceeded_enabled"`
	AnomalyAlertsEnabled  bool      `json:"anomaly_alerts_enabled"`
	InsightsEnabled       bool      `json:"insights_enabled"`
	PushToken             string    `json:"push_token,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// DefaultPreferences returns the lazily-created default preference row.
func DefaultPreferences(id, userID string) NotificationPreferences {
	now := time.Now().UTC()
	return NotificationPreferences{
		ID:                    id,
		UserID:                userID,
		BudgetWarningsEnabled: true,
		BudgetExceededEnabled: true,
		AnomalyAlertsEnabled:  true,
		InsightsEnabled:       true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// EnabledFor reports whether notifications of the given type are enabled.
func (p *NotificationPreferences) EnabledFor(t NotificationType) bool {
	switch t {
	case NotificationBudgetWarning:
		return p.BudgetWarningsEnabled
	case NotificationBudgetExceeded:
		return p.BudgetExceededEnabled
	case NotificationAnomaly:
		return p.AnomalyAlertsEnabled
	case NotificationInsightReady:
		return p.InsightsEnabled
	default:
		return true
	}
}

// PreferencesPatch lists the preference fields that may be updated.
type PreferencesPatch struct {
	BudgetWarningsEnabled *bool
	BudgetExceededEnabled *bool
	AnomalyAlertsEnabled  *bool
	InsightsEnabled       *bool
	PushToken             *string
}

// Apply merges the patch into the preferences field by field.
func (p PreferencesPatch) Apply(prefs *NotificationPreferences) {
	if p.BudgetWarningsEnabled != nil {
		prefs.BudgetWarningsEnabled = *p.BudgetWarningsEnabled
	}
	if p.BudgetExceededEnabled != nil {
		prefs.BudgetExceededEnabled = *p.BudgetExceededEnabled
	}
	if p.AnomalyAlertsEnabled != nil {
		prefs.AnomalyAlertsEnabled = *p.AnomalyAlertsEnabled
	}
	if p.InsightsEnabled != nil {
		prefs.InsightsEnabled = *p.InsightsEnabled
	}
	if p.PushToken != nil {
		prefs.PushToken = *p.PushToken
	}
	prefs.UpdatedAt = time.Now().UTC()
}
