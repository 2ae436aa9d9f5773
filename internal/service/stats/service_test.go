package stats

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ignite/deliverability/internal/domain"
)

type mockRepo struct {
	counts    map[domain.DeliveryStatus]int64
	domains   []DomainCount
	campaigns []CampaignRollup
	err       error
}

func (m *mockRepo) StatusCounts(context.Context, time.Time, time.Time) (map[domain.DeliveryStatus]int64, error) {
	return m.counts, m.err
}

func (m *mockRepo) TopBounceDomains(context.Context, time.Time, time.Time, int) ([]DomainCount, error) {
	return m.domains, nil
}

func (m *mockRepo) RecentCampaigns(context.Context, int) ([]CampaignRollup, error) {
	return m.campaigns, m.err
}

type staticVelocity struct {
	n   int64
	err error
}

func (v staticVelocity) Count(context.Context) (int64, error) { return v.n, v.err }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func window() (time.Time, time.Time) {
	end := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -7), end
}

func TestDeliveryStats_RateMath(t *testing.T) {
	repo := &mockRepo{
		counts: map[domain.DeliveryStatus]int64{
			domain.StatusPending:      3,
			domain.StatusSent:         10,
			domain.StatusDelivered:    80,
			domain.StatusBounced:      5,
			domain.StatusComplained:   2,
			domain.StatusUnsubscribed: 3,
		},
		domains: []DomainCount{{Domain: "example.com", Count: 4}},
	}
	svc := NewService(repo, nil)

	start, end := window()
	st, err := svc.DeliveryStats(context.Background(), start, end)
	if err != nil {
		t.Fatalf("DeliveryStats: %v", err)
	}

	if st.Sent != 100 {
		t.Errorf("sent must count everything that left pending, got %d", st.Sent)
	}
	if st.Pending != 3 {
		t.Errorf("expected 3 pending, got %d", st.Pending)
	}
	if !approx(st.BounceRate, 0.05) {
		t.Errorf("expected bounce rate 0.05, got %v", st.BounceRate)
	}
	if !approx(st.ComplaintRate, 0.02) {
		t.Errorf("expected complaint rate 0.02, got %v", st.ComplaintRate)
	}
	if !approx(st.DeliveryRate, 0.80) {
		t.Errorf("expected delivery rate 0.80, got %v", st.DeliveryRate)
	}
	if len(st.TopBounceDomains) != 1 || st.TopBounceDomains[0].Domain != "example.com" {
		t.Errorf("expected bounce domains passthrough, got %v", st.TopBounceDomains)
	}
}

func TestDeliveryStats_EmptyWindow_ZeroRates(t *testing.T) {
	svc := NewService(&mockRepo{counts: map[domain.DeliveryStatus]int64{}}, nil)

	start, end := window()
	st, err := svc.DeliveryStats(context.Background(), start, end)
	if err != nil {
		t.Fatalf("DeliveryStats: %v", err)
	}
	if st.Sent != 0 || st.BounceRate != 0 || st.ComplaintRate != 0 || st.DeliveryRate != 0 {
		t.Errorf("empty window must produce zeroes, got %+v", st)
	}
}

func TestHealthAlerts_TierBoundaries(t *testing.T) {
	cases := []struct {
		name     string
		bounced  int64
		severity string // expected bounce_rate alert severity, "" for none
	}{
		{"below warning", 19, ""},       // 1.9%
		{"at warning", 20, "warning"},   // 2.0%
		{"below critical", 49, "warning"},
		{"at critical", 50, "critical"}, // 5.0%
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{counts: map[domain.DeliveryStatus]int64{
				domain.StatusDelivered: 1000 - tc.bounced,
				domain.StatusBounced:   tc.bounced,
			}}
			alerts, err := NewService(repo, nil).HealthAlerts(context.Background(), 7)
			if err != nil {
				t.Fatalf("HealthAlerts: %v", err)
			}

			var got string
			for _, a := range alerts {
				if a.Metric == "bounce_rate" {
					if got != "" {
						t.Fatal("more than one bounce_rate alert")
					}
					got = a.Severity
				}
			}
			if got != tc.severity {
				t.Errorf("expected severity %q, got %q", tc.severity, got)
			}
		})
	}
}

func TestHealthAlerts_ComplaintTiers(t *testing.T) {
	repo := &mockRepo{counts: map[domain.DeliveryStatus]int64{
		domain.StatusDelivered:  9950,
		domain.StatusComplained: 50, // 0.5% of 10000
	}}
	alerts, err := NewService(repo, nil).HealthAlerts(context.Background(), 7)
	if err != nil {
		t.Fatalf("HealthAlerts: %v", err)
	}

	var found bool
	for _, a := range alerts {
		if a.Metric == "complaint_rate" {
			found = true
			if a.Severity != SeverityCritical {
				t.Errorf("0.5%% complaint rate must be critical, got %s", a.Severity)
			}
		}
	}
	if !found {
		t.Error("expected a complaint_rate alert")
	}
}

func TestHealthAlerts_DeliveryRateNeedsSampleSize(t *testing.T) {
	// 50% delivery rate but only 100 sent: below the sample floor, no alert.
	small := &mockRepo{counts: map[domain.DeliveryStatus]int64{
		domain.StatusDelivered: 50,
		domain.StatusSent:      50,
	}}
	alerts, err := NewService(small, nil).HealthAlerts(context.Background(), 7)
	if err != nil {
		t.Fatalf("HealthAlerts: %v", err)
	}
	for _, a := range alerts {
		if a.Metric == "delivery_rate" {
			t.Error("delivery_rate alert fired below the minimum sample size")
		}
	}

	// Same rate at 200 sent: alert fires.
	big := &mockRepo{counts: map[domain.DeliveryStatus]int64{
		domain.StatusDelivered: 100,
		domain.StatusSent:      100,
	}}
	alerts, err = NewService(big, nil).HealthAlerts(context.Background(), 7)
	if err != nil {
		t.Fatalf("HealthAlerts: %v", err)
	}
	var found bool
	for _, a := range alerts {
		if a.Metric == "delivery_rate" && a.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Error("expected a delivery_rate warning above the sample floor")
	}
}

func TestHealthAlerts_HealthyWindow_NoAlerts(t *testing.T) {
	repo := &mockRepo{counts: map[domain.DeliveryStatus]int64{
		domain.StatusDelivered: 990,
		domain.StatusBounced:   10, // 1%
	}}
	alerts, err := NewService(repo, nil).HealthAlerts(context.Background(), 7)
	if err != nil {
		t.Fatalf("HealthAlerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %v", alerts)
	}
}

func TestHealthAlerts_SuppressionVelocity(t *testing.T) {
	repo := &mockRepo{counts: map[domain.DeliveryStatus]int64{domain.StatusDelivered: 1000}}

	alerts, err := NewService(repo, staticVelocity{n: 75}).HealthAlerts(context.Background(), 7)
	if err != nil {
		t.Fatalf("HealthAlerts: %v", err)
	}
	var found bool
	for _, a := range alerts {
		if a.Metric == "suppression_velocity" {
			found = true
			if a.Value != 75 {
				t.Errorf("expected value 75, got %v", a.Value)
			}
		}
	}
	if !found {
		t.Error("expected a suppression_velocity alert")
	}

	// A failing velocity source is skipped, never an error.
	alerts, err = NewService(repo, staticVelocity{err: errors.New("redis down")}).HealthAlerts(context.Background(), 7)
	if err != nil {
		t.Fatalf("HealthAlerts with dead velocity source: %v", err)
	}
	for _, a := range alerts {
		if a.Metric == "suppression_velocity" {
			t.Error("dead velocity source must not produce an alert")
		}
	}
}

func TestRecentCampaignStats_DerivedRates(t *testing.T) {
	sent := time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC)
	repo := &mockRepo{campaigns: []CampaignRollup{
		{CampaignID: "camp-1", Recipients: 200, Delivered: 180, Bounced: 10, Complained: 1, LastSentAt: &sent},
		{CampaignID: "camp-2", Recipients: 0},
	}}

	out, err := NewService(repo, nil).RecentCampaignStats(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentCampaignStats: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(out))
	}
	if !approx(out[0].DeliveryRate, 0.9) || !approx(out[0].BounceRate, 0.05) {
		t.Errorf("unexpected rates for camp-1: %+v", out[0])
	}
	if out[1].DeliveryRate != 0 || out[1].BounceRate != 0 {
		t.Errorf("zero-recipient campaign must have zero rates, got %+v", out[1])
	}
}
