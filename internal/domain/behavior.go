package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityEntry is one row from the append-only activity log. This engine
// only ever reads these; the log is owned by the wider application.
type ActivityEntry struct {
	UserID     uuid.UUID
	Action     string
	OccurredAt time.Time
}

// BehavioralBaseline is a periodic statistical snapshot of a user's activity.
// The latest row per user is authoritative.
type BehavioralBaseline struct {
	BaselineID        uuid.UUID
	UserID            uuid.UUID
	AvgActivityPerDay float64
	CommonActions     []string
	TypicalHours      []int
	DataPoints        int
	CreatedAt         time.Time
}

type HistogramBucket struct {
	Bucket     int
	Count      int
	Percentage float64
}

type ActionFrequency struct {
	Action     string
	Count      int
	Percentage float64
}

// BehaviorAnomaly is one deviation from the historical baseline.
type BehaviorAnomaly struct {
	Type        string
	Severity    AlertSeverity
	Description string
}

const (
	AnomalyUnusualActivityVolume = "UNUSUAL_ACTIVITY_VOLUME"
	AnomalyNewActions            = "NEW_ACTIONS"
	AnomalyUnusualTimePattern    = "UNUSUAL_TIME_PATTERN"
)

const (
	// MinHistoricalEntries gates anomaly detection: fewer historical data
	// points produce noise, so detection is skipped entirely (empty list).
	MinHistoricalEntries = 10
	// MinBaselineEntries gates baseline snapshots over the trailing 90 days.
	MinBaselineEntries = 50
	// TopActionsLimit is the size of the action-frequency table in reports.
	TopActionsLimit = 20
	// BaselineCommonActions is the number of actions stored in a baseline.
	BaselineCommonActions = 10
	// TypicalHourShare is the minimum share an hour bucket needs to count
	// as part of a user's typical hours.
	TypicalHourShare = 0.05
)

var sensitiveActionMarkers = []string{"DELETE", "EXPORT", "BULK_DOWNLOAD", "PERMISSION_CHANGE"}

// HourlyHistogram buckets entries by hour of day (24 buckets, UTC).
func HourlyHistogram(entries []ActivityEntry) []HistogramBucket {
	counts := make([]int, 24)
	for _, e := range entries {
		counts[e.OccurredAt.UTC().Hour()]++
	}
	return toBuckets(counts, len(entries))
}

// WeekdayHistogram buckets entries by day of week (0 = Sunday).
func WeekdayHistogram(entries []ActivityEntry) []HistogramBucket {
	counts := make([]int, 7)
	for _, e := range entries {
		counts[int(e.OccurredAt.UTC().Weekday())]++
	}
	return toBuckets(counts, len(entries))
}

func toBuckets(counts []int, total int) []HistogramBucket {
	buckets := make([]HistogramBucket, len(counts))
	for i, c := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(c) / float64(total) * 100
		}
		buckets[i] = HistogramBucket{Bucket: i, Count: c, Percentage: pct}
	}
	return buckets
}

// TopActions returns the action-frequency table, highest count first, ties
// broken alphabetically for deterministic output.
func TopActions(entries []ActivityEntry, limit int) []ActionFrequency {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Action]++
	}

	freqs := make([]ActionFrequency, 0, len(counts))
	for action, count := range counts {
		pct := float64(count) / float64(len(entries)) * 100
		freqs = append(freqs, ActionFrequency{Action: action, Count: count, Percentage: pct})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Action < freqs[j].Action
	})
	if len(freqs) > limit {
		freqs = freqs[:limit]
	}
	return freqs
}

func meanHour(entries []ActivityEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.OccurredAt.UTC().Hour()
	}
	return float64(sum) / float64(len(entries))
}

// DetectBehaviorAnomalies compares the observation window against historical
// entries drawn from the period preceding it. With fewer than
// MinHistoricalEntries historical rows it returns nil: no baseline, no signal.
func DetectBehaviorAnomalies(window, historical []ActivityEntry, windowDays, historyDays int) []BehaviorAnomaly {
	if len(historical) < MinHistoricalEntries {
		return nil
	}

	var anomalies []BehaviorAnomaly

	windowPerDay := float64(len(window)) / float64(windowDays)
	historicalPerDay := float64(len(historical)) / float64(historyDays)
	if historicalPerDay > 0 && windowPerDay > 2*historicalPerDay {
		anomalies = append(anomalies, BehaviorAnomaly{
			Type:     AnomalyUnusualActivityVolume,
			Severity: SeverityMedium,
			Description: fmt.Sprintf("activity volume of %.1f actions/day is more than double the historical %.1f actions/day",
				windowPerDay, historicalPerDay),
		})
	}

	known := make(map[string]struct{}, len(historical))
	for _, e := range historical {
		known[e.Action] = struct{}{}
	}
	newActions := make(map[string]struct{})
	for _, e := range window {
		if _, ok := known[e.Action]; !ok {
			newActions[e.Action] = struct{}{}
		}
	}
	if len(newActions) > 0 {
		names := make([]string, 0, len(newActions))
		for a := range newActions {
			names = append(names, a)
		}
		sort.Strings(names)
		anomalies = append(anomalies, BehaviorAnomaly{
			Type:        AnomalyNewActions,
			Severity:    SeverityLow,
			Description: "new action types not seen historically: " + strings.Join(names, ", "),
		})
	}

	if diff := math.Abs(meanHour(window) - meanHour(historical)); diff > 4 {
		anomalies = append(anomalies, BehaviorAnomaly{
			Type:        AnomalyUnusualTimePattern,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("mean activity hour shifted by %.1f hours from the historical pattern", diff),
		})
	}

	return anomalies
}

// RiskScore folds anomalies and sensitive-action usage into a 0..100 score.
func RiskScore(anomalies []BehaviorAnomaly, topActions []ActionFrequency) int {
	score := 0
	for _, a := range anomalies {
		switch a.Severity {
		case SeverityCritical:
			score += 30
		case SeverityHigh:
			score += 20
		case SeverityMedium:
			score += 10
		case SeverityLow:
			score += 5
		}
	}
	for _, f := range topActions {
		if isSensitiveAction(f.Action) {
			score += 5
		}
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func isSensitiveAction(action string) bool {
	upper := strings.ToUpper(action)
	for _, marker := range sensitiveActionMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// RiskRecommendations derives the deterministic advice list: a tier line for
// the score plus at most one line per anomaly type present.
func RiskRecommendations(score int, anomalies []BehaviorAnomaly) []string {
	var recs []string
	switch {
	case score > 70:
		recs = append(recs, "High risk score: review this account's recent activity and consider requiring re-authentication")
	case score > 40:
		recs = append(recs, "Moderate risk score: monitor this account for further deviations")
	}

	seen := make(map[string]struct{})
	for _, a := range anomalies {
		if _, ok := seen[a.Type]; ok {
			continue
		}
		seen[a.Type] = struct{}{}
		switch a.Type {
		case AnomalyUnusualActivityVolume:
			recs = append(recs, "Activity volume is well above baseline: verify the activity is user-driven, not scripted")
		case AnomalyNewActions:
			recs = append(recs, "New action types appeared: confirm recent permission or responsibility changes")
		case AnomalyUnusualTimePattern:
			recs = append(recs, "Activity hours shifted significantly: confirm the user's working pattern or timezone changed")
		}
	}
	return recs
}

// BuildBaseline produces a baseline snapshot from trailing activity, or
// ok=false when there are not enough data points to be meaningful.
func BuildBaseline(userID uuid.UUID, entries []ActivityEntry, trailingDays int, now time.Time) (BehavioralBaseline, bool) {
	if len(entries) < MinBaselineEntries {
		return BehavioralBaseline{}, false
	}

	top := TopActions(entries, BaselineCommonActions)
	common := make([]string, 0, len(top))
	for _, f := range top {
		common = append(common, f.Action)
	}

	var typicalHours []int
	for _, bucket := range HourlyHistogram(entries) {
		if bucket.Percentage > TypicalHourShare*100 {
			typicalHours = append(typicalHours, bucket.Bucket)
		}
	}

	return BehavioralBaseline{
		UserID:            userID,
		AvgActivityPerDay: float64(len(entries)) / float64(trailingDays),
		CommonActions:     common,
		TypicalHours:      typicalHours,
		DataPoints:        len(entries),
		CreatedAt:         now,
	}, true
}
