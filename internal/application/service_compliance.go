package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

const complianceBatchSize = 500

// GetComplianceReport classifies every user's password posture against their
// resolved policy: expired (past max age), weak (no recorded password
// history), or compliant. Resolution leans on the policy cache, so the pass
// stays cheap even for large directories; the scan honors cancellation
// between batches.
func (s *Service) GetComplianceReport(ctx context.Context) (ComplianceReport, error) {
	total, err := s.users.CountProfiles(ctx)
	if err != nil {
		return ComplianceReport{}, err
	}

	now := s.nowFn()
	report := ComplianceReport{TotalUsers: total, GeneratedAt: now}

	for offset := 0; ; offset += complianceBatchSize {
		if err := ctx.Err(); err != nil {
			return ComplianceReport{}, err
		}

		profiles, err := s.users.ListProfiles(ctx, complianceBatchSize, offset)
		if err != nil {
			return ComplianceReport{}, err
		}
		if len(profiles) == 0 {
			break
		}

		ids := make([]uuid.UUID, 0, len(profiles))
		for _, p := range profiles {
			ids = append(ids, p.UserID)
		}
		changedAt, err := s.history.LatestChangedAtByUsers(ctx, ids)
		if err != nil {
			return ComplianceReport{}, err
		}

		for _, profile := range profiles {
			s.classifyUser(ctx, profile, changedAt, now, &report)
		}

		if len(profiles) < complianceBatchSize {
			break
		}
	}

	if report.TotalUsers > 0 {
		report.CompliancePercentage = float64(report.CompliantUsers) / float64(report.TotalUsers) * 100
	}
	return report, nil
}

func (s *Service) classifyUser(ctx context.Context, profile domain.SecurityProfile, changedAt map[uuid.UUID]time.Time, now time.Time, report *ComplianceReport) {
	last, hasHistory := changedAt[profile.UserID]
	if !hasHistory {
		report.WeakPasswords++
		return
	}

	policy, _, err := s.resolveFromProfile(ctx, profile)
	if err != nil {
		// One unresolvable user should not sink the whole report.
		appLogger().WarnContext(ctx, "policy resolution failed during compliance scan",
			"operation", "compliance_report",
			"outcome", "failure",
			"user_id", profile.UserID,
			"error", err,
		)
		report.WeakPasswords++
		return
	}

	if policy != nil && policy.MaxAgeDays != nil {
		if now.After(last.Add(time.Duration(*policy.MaxAgeDays) * 24 * time.Hour)) {
			report.ExpiredPasswords++
			return
		}
	}
	report.CompliantUsers++
}
