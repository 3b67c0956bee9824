package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

func TestGetComplianceReportClassifiesUsers(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.seedPolicy(domain.PasswordPolicy{
		Name:       "rotating",
		Scope:      domain.PolicyScopeSystem,
		MinLength:  8,
		MaxAgeDays: intPtr(30),
		IsActive:   true,
	})

	compliantUser := uuid.New()
	expiredUser := uuid.New()
	weakUser := uuid.New()
	f.seedUser(compliantUser, nil)
	f.seedUser(expiredUser, nil)
	f.seedUser(weakUser, nil)

	now := f.clock()
	f.history.add(compliantUser, "hashed:fresh", now.Add(-5*24*time.Hour))
	f.history.add(expiredUser, "hashed:stale", now.Add(-45*24*time.Hour))
	// weakUser has no password history at all.

	report, err := f.service.GetComplianceReport(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalUsers != 3 {
		t.Fatalf("TotalUsers = %d, want 3", report.TotalUsers)
	}
	if report.CompliantUsers != 1 || report.ExpiredPasswords != 1 || report.WeakPasswords != 1 {
		t.Fatalf("report = %+v, want one user per class", report)
	}
	if report.CompliancePercentage < 33.3 || report.CompliancePercentage > 33.4 {
		t.Fatalf("CompliancePercentage = %v, want one third", report.CompliancePercentage)
	}
	if !report.GeneratedAt.Equal(now) {
		t.Fatalf("GeneratedAt = %v, want %v", report.GeneratedAt, now)
	}
}

func TestGetComplianceReportWithoutMaxAge(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedPolicy(domain.PasswordPolicy{
		Name: "no-rotation", Scope: domain.PolicyScopeSystem, MinLength: 8, IsActive: true,
	})

	userID := uuid.New()
	f.seedUser(userID, nil)
	f.history.add(userID, "hashed:ancient", f.clock().Add(-500*24*time.Hour))

	report, err := f.service.GetComplianceReport(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.CompliantUsers != 1 || report.ExpiredPasswords != 0 {
		t.Fatalf("report = %+v, want old passwords compliant without a max age", report)
	}
	if report.CompliancePercentage != 100 {
		t.Fatalf("CompliancePercentage = %v, want 100", report.CompliancePercentage)
	}
}

func TestGetComplianceReportEmptyDirectory(t *testing.T) {
	t.Parallel()

	f := newFixture()
	report, err := f.service.GetComplianceReport(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalUsers != 0 || report.CompliancePercentage != 0 {
		t.Fatalf("report = %+v, want empty zeroed report", report)
	}
}
