package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

// seedActivity adds n entries for one action, one per day walking back from
// the given start, all at the same hour of day.
func seedActivity(f *fixture, userID uuid.UUID, action string, start time.Time, n int) {
	entries := make([]domain.ActivityEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, domain.ActivityEntry{
			UserID:     userID,
			Action:     action,
			OccurredAt: start.Add(-time.Duration(i) * 24 * time.Hour),
		})
	}
	f.activity.add(userID, entries...)
}

func TestAnalyzeUserBehaviorInsufficientData(t *testing.T) {
	t.Parallel()

	f := newFixture()
	userID := uuid.New()

	report, err := f.service.AnalyzeUserBehavior(context.Background(), userID, 30)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if report.HasEnoughData {
		t.Fatalf("report = %+v, want the typed insufficient-data result", report)
	}
	if report.GeneratedAt.IsZero() {
		t.Fatalf("GeneratedAt should be stamped even without data")
	}
}

func TestAnalyzeUserBehaviorBuildsReport(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	now := f.clock()

	// 20 window entries over 30 days plus a healthy historical baseline.
	seedActivity(f, userID, "LOGIN", now.Add(-time.Hour), 20)
	seedActivity(f, userID, "LOGIN", now.Add(-31*24*time.Hour), 40)

	report, err := f.service.AnalyzeUserBehavior(ctx, userID, 30)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !report.HasEnoughData || report.WindowDays != 30 {
		t.Fatalf("report = %+v, want populated 30-day report", report)
	}
	if report.TotalActions != 20 {
		t.Fatalf("TotalActions = %d, want 20", report.TotalActions)
	}
	if len(report.HourlyHistogram) != 24 || len(report.WeekdayHistogram) != 7 {
		t.Fatalf("histogram sizes = %d/%d, want 24/7", len(report.HourlyHistogram), len(report.WeekdayHistogram))
	}
	if len(report.TopActions) != 1 || report.TopActions[0].Action != "LOGIN" {
		t.Fatalf("TopActions = %+v, want LOGIN only", report.TopActions)
	}
	// Same action mix and comparable volume: a quiet account.
	if len(report.Anomalies) != 0 || report.RiskScore != 0 {
		t.Fatalf("anomalies = %v score = %d, want none", report.Anomalies, report.RiskScore)
	}
}

func TestAnalyzeUserBehaviorFlagsDeviations(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	now := f.clock()

	// Sparse history, then a burst of a new sensitive action in the window.
	seedActivity(f, userID, "LOGIN", now.Add(-31*24*time.Hour), 15)
	seedActivity(f, userID, "EXPORT_PATIENT_DATA", now.Add(-time.Hour), 30)

	report, err := f.service.AnalyzeUserBehavior(ctx, userID, 30)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(report.Anomalies) == 0 {
		t.Fatalf("expected anomalies for a burst of unseen actions")
	}
	types := make(map[string]bool)
	for _, a := range report.Anomalies {
		types[a.Type] = true
	}
	if !types[domain.AnomalyUnusualActivityVolume] || !types[domain.AnomalyNewActions] {
		t.Fatalf("anomaly types = %v, want volume and new-action flags", types)
	}
	if report.RiskScore == 0 {
		t.Fatalf("risk score should reflect the anomalies")
	}
	if len(report.Recommendations) == 0 {
		t.Fatalf("expected recommendations alongside anomalies")
	}
}

func TestCreateBaselineInsufficientData(t *testing.T) {
	t.Parallel()

	f := newFixture()
	userID := uuid.New()
	seedActivity(f, userID, "LOGIN", f.clock().Add(-time.Hour), 49)

	result, err := f.service.CreateBaseline(context.Background(), userID)
	if err != nil {
		t.Fatalf("create baseline: %v", err)
	}
	if result.Created || result.Baseline != nil {
		t.Fatalf("result = %+v, want typed refusal below the floor", result)
	}
	if !strings.Contains(result.Reason, "found 49") {
		t.Fatalf("reason = %q, want the observed count", result.Reason)
	}

	if _, err := f.baselines.Latest(context.Background(), userID); err == nil {
		t.Fatalf("no baseline row should exist after a refusal")
	}
}

func TestCreateBaselinePersistsSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	now := f.clock()

	seedActivity(f, userID, "LOGIN", now.Add(-time.Hour), 40)
	seedActivity(f, userID, "VIEW_RECORD", now.Add(-2*time.Hour), 20)

	result, err := f.service.CreateBaseline(ctx, userID)
	if err != nil {
		t.Fatalf("create baseline: %v", err)
	}
	if !result.Created || result.Baseline == nil {
		t.Fatalf("result = %+v, want a created baseline", result)
	}
	if result.Baseline.DataPoints != 60 {
		t.Fatalf("DataPoints = %d, want 60", result.Baseline.DataPoints)
	}
	if len(result.Baseline.CommonActions) != 2 || result.Baseline.CommonActions[0] != "LOGIN" {
		t.Fatalf("CommonActions = %v, want LOGIN first", result.Baseline.CommonActions)
	}

	saved, err := f.baselines.Latest(ctx, userID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if saved.BaselineID == uuid.Nil || saved.DataPoints != 60 {
		t.Fatalf("saved = %+v, want the persisted snapshot", saved)
	}
}
