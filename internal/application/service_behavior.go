package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

const (
	defaultAnalysisWindowDays = 30
	baselineHistoryDays       = 90
)

// AnalyzeUserBehavior builds the activity report for the observation window
// and scores deviations against the preceding 90 days. Zero activity in the
// window yields the typed insufficient-data result. The scan honors caller
// cancellation between stages since historical windows can be large.
func (s *Service) AnalyzeUserBehavior(ctx context.Context, userID uuid.UUID, windowDays int) (BehaviorReport, error) {
	if windowDays <= 0 {
		windowDays = defaultAnalysisWindowDays
	}

	now := s.nowFn()
	windowFrom := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	var window []domain.ActivityEntry
	err := s.retryRead(ctx, "activity_window", func() error {
		var fetchErr error
		window, fetchErr = s.activity.ListRange(ctx, userID, windowFrom, now)
		return fetchErr
	})
	if err != nil {
		return BehaviorReport{}, err
	}
	if len(window) == 0 {
		return BehaviorReport{HasEnoughData: false, GeneratedAt: now}, nil
	}
	if err := ctx.Err(); err != nil {
		return BehaviorReport{}, err
	}

	historyFrom := windowFrom.Add(-baselineHistoryDays * 24 * time.Hour)
	var historical []domain.ActivityEntry
	err = s.retryRead(ctx, "activity_history", func() error {
		var fetchErr error
		historical, fetchErr = s.activity.ListRange(ctx, userID, historyFrom, windowFrom)
		return fetchErr
	})
	if err != nil {
		return BehaviorReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return BehaviorReport{}, err
	}

	topActions := domain.TopActions(window, domain.TopActionsLimit)
	anomalies := domain.DetectBehaviorAnomalies(window, historical, windowDays, baselineHistoryDays)
	score := domain.RiskScore(anomalies, topActions)

	return BehaviorReport{
		HasEnoughData:    true,
		WindowDays:       windowDays,
		TotalActions:     len(window),
		HourlyHistogram:  domain.HourlyHistogram(window),
		WeekdayHistogram: domain.WeekdayHistogram(window),
		TopActions:       topActions,
		Anomalies:        anomalies,
		RiskScore:        score,
		Recommendations:  domain.RiskRecommendations(score, anomalies),
		GeneratedAt:      now,
	}, nil
}

// CreateBaseline snapshots the user's trailing 90-day activity statistics.
// Too little history is a typed failure result, not an error.
func (s *Service) CreateBaseline(ctx context.Context, userID uuid.UUID) (BaselineResult, error) {
	now := s.nowFn()
	from := now.Add(-baselineHistoryDays * 24 * time.Hour)

	var entries []domain.ActivityEntry
	err := s.retryRead(ctx, "activity_baseline", func() error {
		var fetchErr error
		entries, fetchErr = s.activity.ListRange(ctx, userID, from, now)
		return fetchErr
	})
	if err != nil {
		return BaselineResult{}, err
	}

	baseline, ok := domain.BuildBaseline(userID, entries, baselineHistoryDays, now)
	if !ok {
		return BaselineResult{
			Created: false,
			Reason: fmt.Sprintf("need at least %d activity entries in the last %d days, found %d",
				domain.MinBaselineEntries, baselineHistoryDays, len(entries)),
		}, nil
	}

	saved, err := s.baselines.Save(ctx, baseline)
	if err != nil {
		return BaselineResult{}, fmt.Errorf("save baseline: %w", err)
	}

	appLogger().InfoContext(ctx, "behavioral baseline created",
		"operation", "create_baseline",
		"outcome", "success",
		"user_id", userID,
		"data_points", saved.DataPoints,
	)
	return BaselineResult{Created: true, Baseline: &saved}, nil
}
