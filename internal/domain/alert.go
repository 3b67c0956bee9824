package domain

import (
	"time"

	"github.com/google/uuid"
)

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "LOW"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

const AlertTypeSessionAnomaly = "SESSION_ANOMALY"

// SecurityAlert is the record handed to the external alerting collaborator.
// This engine only emits alerts; resolution workflow lives elsewhere.
type SecurityAlert struct {
	AlertID     uuid.UUID
	UserID      uuid.UUID
	Type        string
	Severity    AlertSeverity
	Description string
	Details     map[string]any
	IsResolved  bool
	CreatedAt   time.Time
}
