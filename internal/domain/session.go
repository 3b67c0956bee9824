package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserSession is the persisted session record. Rows are never physically
// deleted; termination and expiry only flip IsActive, preserving audit value.
type UserSession struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	// Token is opaque credential material supplied by the login flow.
	// It must never appear in logs or alert payloads.
	Token             string
	IPAddress         string
	UserAgent         string
	DeviceFingerprint string
	DeviceType        string
	Browser           string
	OS                string
	Location          string
	CreatedAt         time.Time
	LastActivityAt    time.Time
	ExpiresAt         time.Time
	IsActive          bool
	TerminatedAt      *time.Time
}

// AnomalySignal names a single rule that fired during session anomaly detection.
type AnomalySignal string

const (
	AnomalyNewDevice                  AnomalySignal = "NEW_DEVICE"
	AnomalyNewLocation                AnomalySignal = "NEW_LOCATION"
	AnomalyRapidLocationChange        AnomalySignal = "RAPID_LOCATION_CHANGE"
	AnomalyMultipleConcurrentSessions AnomalySignal = "MULTIPLE_CONCURRENT_SESSIONS"
)

// DeviceFingerprint derives a stable fuzzy device identity from network and
// client metadata. It is not a security boundary: collisions are acceptable,
// so a 16-hex-char truncation of the digest is sufficient.
func DeviceFingerprint(ipAddress, userAgent string) string {
	sum := sha256.Sum256([]byte(ipAddress + "-" + userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

// DeviceInfo is display-only client classification parsed from a user agent.
type DeviceInfo struct {
	DeviceType string
	Browser    string
	OS         string
}

// ParseUserAgent extracts a coarse device/browser/os label from a user agent
// string. Best-effort only; unknown agents classify as desktop/Unknown.
func ParseUserAgent(userAgent string) DeviceInfo {
	ua := strings.ToLower(userAgent)
	info := DeviceInfo{DeviceType: "desktop", Browser: "Unknown", OS: "Unknown"}

	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		info.DeviceType = "tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android"):
		info.DeviceType = "mobile"
	}

	switch {
	case strings.Contains(ua, "edg/"):
		info.Browser = "Edge"
	case strings.Contains(ua, "chrome"):
		info.Browser = "Chrome"
	case strings.Contains(ua, "safari"):
		info.Browser = "Safari"
	case strings.Contains(ua, "firefox"):
		info.Browser = "Firefox"
	}

	// iPhone/iPad agents also contain "Mac OS X" and Android agents contain
	// "Linux", so the mobile platforms must be matched first.
	switch {
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ios"):
		info.OS = "iOS"
	case strings.Contains(ua, "android"):
		info.OS = "Android"
	case strings.Contains(ua, "windows"):
		info.OS = "Windows"
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		info.OS = "macOS"
	case strings.Contains(ua, "linux"):
		info.OS = "Linux"
	}

	return info
}
