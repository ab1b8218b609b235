package services

import (
	"context"
	"testing"
	"time"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/repositories"
)

func baseRewardsDeps() RewardsServiceDeps {
	return RewardsServiceDeps{
		Customers:   &stubCustomerRepo{},
		Rules:       &stubRewardRuleRepo{},
		Clock:       fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)),
		IDGenerator: sequenceIDs("01AAA", "01BBB"),
	}
}

func TestAwardLoyaltyPoints(t *testing.T) {
	rule := domain.LoyaltyRule{
		Status:                   true,
		EarningCriteriaRupee:     50,
		EarningCriteriaPoint:     2,
		MinOrderAmountForEarning: 100,
		MaxEarningPointPerOrder:  20,
	}

	tests := []struct {
		name      string
		rule      domain.LoyaltyRule
		itemTotal float64
		want      int
	}{
		{"earns per slab", rule, 240, 8},
		{"capped at max per order", rule, 2000, 20},
		{"below minimum order amount", rule, 80, 0},
		{"disabled rule", domain.LoyaltyRule{Status: false, EarningCriteriaRupee: 50, EarningCriteriaPoint: 2}, 240, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			awardedPoints := 0
			deps := baseRewardsDeps()
			deps.Rules = &stubRewardRuleRepo{
				loyaltyFunc: func(ctx context.Context) (domain.LoyaltyRule, error) { return tc.rule, nil },
			}
			deps.Customers = &stubCustomerRepo{
				loyaltyFunc: func(ctx context.Context, customerID string, points int, entry domain.LoyaltyPointEntry) (domain.Customer, error) {
					awardedPoints = points
					if entry.OrderID != "FMT-2025-000042" {
						t.Fatalf("entry order = %q, want FMT-2025-000042", entry.OrderID)
					}
					return domain.Customer{ID: customerID}, nil
				},
			}

			svc, err := NewRewardsService(deps)
			if err != nil {
				t.Fatalf("NewRewardsService: %v", err)
			}

			points, err := svc.AwardLoyaltyPoints(context.Background(), AwardLoyaltyCommand{
				CustomerID: "cust-1",
				OrderID:    "FMT-2025-000042",
				ItemTotal:  tc.itemTotal,
			})
			if err != nil {
				t.Fatalf("AwardLoyaltyPoints: %v", err)
			}
			if points != tc.want {
				t.Fatalf("points = %d, want %d", points, tc.want)
			}
			if tc.want > 0 && awardedPoints != tc.want {
				t.Fatalf("credited points = %d, want %d", awardedPoints, tc.want)
			}
			if tc.want == 0 && awardedPoints != 0 {
				t.Fatalf("credited points = %d, want no credit", awardedPoints)
			}
		})
	}
}

func TestAwardLoyaltyPointsNoRule(t *testing.T) {
	svc, err := NewRewardsService(baseRewardsDeps())
	if err != nil {
		t.Fatalf("NewRewardsService: %v", err)
	}

	points, err := svc.AwardLoyaltyPoints(context.Background(), AwardLoyaltyCommand{
		CustomerID: "cust-1",
		OrderID:    "FMT-2025-000042",
		ItemTotal:  240,
	})
	if err != nil {
		t.Fatalf("AwardLoyaltyPoints: %v", err)
	}
	if points != 0 {
		t.Fatalf("points = %d, want 0 when no rule is configured", points)
	}
}

func referralCustomer(registered time.Time) domain.Customer {
	return domain.Customer{
		ID:             "cust-1",
		RegisteredAt:   registered,
		ReferralDetail: &domain.ReferralDetail{ReferrerID: "cust-9"},
	}
}

func activeReferralRule() domain.ReferralRule {
	return domain.ReferralRule{
		Status:             true,
		ReferralType:       domain.DiscountTypeFlat,
		ReferrerDiscount:   50,
		RefereeDiscount:    25,
		MinOrderAmount:     100,
		RegistrationWindow: 30 * 24 * time.Hour,
	}
}

func TestProcessReferralRewardsCreditsBothParties(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	var gotReferrer, gotReferee repositories.WalletMovement
	creditedReferrer := ""

	deps := baseRewardsDeps()
	deps.Customers = &stubCustomerRepo{
		findFunc: func(ctx context.Context, customerID string) (domain.Customer, error) {
			return referralCustomer(now.Add(-7 * 24 * time.Hour)), nil
		},
		referralFunc: func(ctx context.Context, referrerID string, referrerMovement repositories.WalletMovement, refereeID string, refereeMovement repositories.WalletMovement) error {
			creditedReferrer = referrerID
			gotReferrer = referrerMovement
			gotReferee = refereeMovement
			return nil
		},
	}
	deps.Rules = &stubRewardRuleRepo{
		referralFunc: func(ctx context.Context) (domain.ReferralRule, error) { return activeReferralRule(), nil },
	}

	svc, err := NewRewardsService(deps)
	if err != nil {
		t.Fatalf("NewRewardsService: %v", err)
	}

	paid, err := svc.ProcessReferralRewards(context.Background(), "cust-1", 240)
	if err != nil {
		t.Fatalf("ProcessReferralRewards: %v", err)
	}
	if !paid {
		t.Fatal("referral was not paid")
	}
	if creditedReferrer != "cust-9" {
		t.Fatalf("referrer = %q, want cust-9", creditedReferrer)
	}
	if gotReferrer.Amount != 50 || gotReferee.Amount != 25 {
		t.Fatalf("amounts = %.2f / %.2f, want 50 / 25", gotReferrer.Amount, gotReferee.Amount)
	}
	if gotReferrer.Category != domain.TransactionTypeReferral || gotReferee.Category != domain.TransactionTypeReferral {
		t.Fatalf("categories = %s / %s, want referral", gotReferrer.Category, gotReferee.Category)
	}
}

func TestProcessReferralRewardsPercentageCap(t *testing.T) {
	var gotReferrer repositories.WalletMovement

	rule := activeReferralRule()
	rule.ReferralType = domain.DiscountTypePercentage
	rule.ReferrerDiscount = 20
	rule.ReferrerMaxAmount = 40
	rule.RefereeDiscount = 0

	deps := baseRewardsDeps()
	deps.Customers = &stubCustomerRepo{
		findFunc: func(ctx context.Context, customerID string) (domain.Customer, error) {
			return referralCustomer(time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)), nil
		},
		referralFunc: func(ctx context.Context, referrerID string, referrerMovement repositories.WalletMovement, refereeID string, refereeMovement repositories.WalletMovement) error {
			gotReferrer = referrerMovement
			return nil
		},
	}
	deps.Rules = &stubRewardRuleRepo{
		referralFunc: func(ctx context.Context) (domain.ReferralRule, error) { return rule, nil },
	}

	svc, err := NewRewardsService(deps)
	if err != nil {
		t.Fatalf("NewRewardsService: %v", err)
	}

	paid, err := svc.ProcessReferralRewards(context.Background(), "cust-1", 500)
	if err != nil {
		t.Fatalf("ProcessReferralRewards: %v", err)
	}
	if !paid {
		t.Fatal("referral was not paid")
	}
	// 20% of 500 is 100, capped at 40.
	if gotReferrer.Amount != 40 {
		t.Fatalf("referrer amount = %.2f, want 40", gotReferrer.Amount)
	}
}

func TestProcessReferralRewardsSkips(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		customer  domain.Customer
		rule      domain.ReferralRule
		itemTotal float64
	}{
		{
			name:      "no referral detail",
			customer:  domain.Customer{ID: "cust-1", RegisteredAt: now},
			rule:      activeReferralRule(),
			itemTotal: 240,
		},
		{
			name: "already processed",
			customer: domain.Customer{
				ID:             "cust-1",
				RegisteredAt:   now,
				ReferralDetail: &domain.ReferralDetail{ReferrerID: "cust-9", Processed: true},
			},
			rule:      activeReferralRule(),
			itemTotal: 240,
		},
		{
			name:      "registration window elapsed",
			customer:  referralCustomer(now.Add(-60 * 24 * time.Hour)),
			rule:      activeReferralRule(),
			itemTotal: 240,
		},
		{
			name:      "below minimum order amount",
			customer:  referralCustomer(now.Add(-24 * time.Hour)),
			rule:      activeReferralRule(),
			itemTotal: 50,
		},
		{
			name:     "disabled rule",
			customer: referralCustomer(now.Add(-24 * time.Hour)),
			rule: func() domain.ReferralRule {
				r := activeReferralRule()
				r.Status = false
				return r
			}(),
			itemTotal: 240,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			credited := false
			deps := baseRewardsDeps()
			deps.Customers = &stubCustomerRepo{
				findFunc: func(ctx context.Context, customerID string) (domain.Customer, error) { return tc.customer, nil },
				referralFunc: func(ctx context.Context, referrerID string, referrerMovement repositories.WalletMovement, refereeID string, refereeMovement repositories.WalletMovement) error {
					credited = true
					return nil
				},
			}
			deps.Rules = &stubRewardRuleRepo{
				referralFunc: func(ctx context.Context) (domain.ReferralRule, error) { return tc.rule, nil },
			}

			svc, err := NewRewardsService(deps)
			if err != nil {
				t.Fatalf("NewRewardsService: %v", err)
			}

			paid, err := svc.ProcessReferralRewards(context.Background(), "cust-1", tc.itemTotal)
			if err != nil {
				t.Fatalf("ProcessReferralRewards: %v", err)
			}
			if paid || credited {
				t.Fatalf("referral paid = %v credited = %v, want neither", paid, credited)
			}
		})
	}
}

func TestProcessReferralRewardsDuplicateResolvesToNoOp(t *testing.T) {
	deps := baseRewardsDeps()
	deps.Customers = &stubCustomerRepo{
		findFunc: func(ctx context.Context, customerID string) (domain.Customer, error) {
			return referralCustomer(time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)), nil
		},
		referralFunc: func(ctx context.Context, referrerID string, referrerMovement repositories.WalletMovement, refereeID string, refereeMovement repositories.WalletMovement) error {
			return conflictErr("referral already processed")
		},
	}
	deps.Rules = &stubRewardRuleRepo{
		referralFunc: func(ctx context.Context) (domain.ReferralRule, error) { return activeReferralRule(), nil },
	}

	svc, err := NewRewardsService(deps)
	if err != nil {
		t.Fatalf("NewRewardsService: %v", err)
	}

	paid, err := svc.ProcessReferralRewards(context.Background(), "cust-1", 240)
	if err != nil {
		t.Fatalf("ProcessReferralRewards: %v", err)
	}
	if paid {
		t.Fatal("duplicate referral reported as paid")
	}
}
