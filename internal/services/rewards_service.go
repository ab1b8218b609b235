package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/repositories"
)

var (
	// ErrRewardsInvalidInput signals the caller provided invalid data.
	ErrRewardsInvalidInput = errors.New("rewards: invalid input")
	// ErrRewardsCustomerNotFound indicates the customer does not exist.
	ErrRewardsCustomerNotFound = errors.New("rewards: customer not found")
	// ErrRewardsUnavailable indicates a backing store could not be reached.
	ErrRewardsUnavailable = errors.New("rewards: unavailable")
)

// RewardsServiceDeps bundles collaborators required to construct the rewards service.
type RewardsServiceDeps struct {
	Customers   repositories.CustomerRepository
	Rules       repositories.RewardRuleRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type rewardsService struct {
	customers repositories.CustomerRepository
	rules     repositories.RewardRuleRepository
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewRewardsService wires dependencies into a concrete RewardsService implementation.
func NewRewardsService(deps RewardsServiceDeps) (RewardsService, error) {
	if deps.Customers == nil {
		return nil, errors.New("rewards service: customer repository is required")
	}
	if deps.Rules == nil {
		return nil, errors.New("rewards service: rule repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &rewardsService{
		customers: deps.Customers,
		rules:     deps.Rules,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// AwardLoyaltyPoints evaluates the loyalty rule against one completed order
// and credits the earned points. Orders below the earning threshold, or a
// disabled rule, award nothing without error.
func (s *rewardsService) AwardLoyaltyPoints(ctx context.Context, cmd AwardLoyaltyCommand) (int, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" || strings.TrimSpace(cmd.OrderID) == "" {
		return 0, fmt.Errorf("%w: customer id and order id are required", ErrRewardsInvalidInput)
	}
	if cmd.ItemTotal < 0 {
		return 0, fmt.Errorf("%w: item total must be non-negative", ErrRewardsInvalidInput)
	}

	rule, err := s.rules.LoyaltyRule(ctx)
	if err != nil {
		if isRepoNotFound(err) {
			return 0, nil
		}
		return 0, s.translateRepoError(err)
	}
	if !rule.Status || rule.EarningCriteriaRupee <= 0 {
		return 0, nil
	}
	if cmd.ItemTotal < rule.MinOrderAmountForEarning {
		return 0, nil
	}

	points := int(math.Floor(cmd.ItemTotal/rule.EarningCriteriaRupee)) * rule.EarningCriteriaPoint
	if rule.MaxEarningPointPerOrder > 0 && points > rule.MaxEarningPointPerOrder {
		points = rule.MaxEarningPointPerOrder
	}
	if points <= 0 {
		return 0, nil
	}

	entry := domain.LoyaltyPointEntry{
		Points:   points,
		OrderID:  cmd.OrderID,
		EarnedAt: s.clock(),
	}
	if _, err := s.customers.ApplyLoyalty(ctx, customerID, points, entry); err != nil {
		return 0, s.translateRepoError(err)
	}

	s.logger(ctx, "rewards.loyalty.awarded", map[string]any{
		"customer": customerID,
		"order":    cmd.OrderID,
		"points":   points,
	})
	return points, nil
}

// ProcessReferralRewards credits referrer and referee after the referee's
// first qualifying completed order. The credit happens at most once per
// referee; a concurrent duplicate resolves to a no-op.
func (s *rewardsService) ProcessReferralRewards(ctx context.Context, customerID string, itemTotal float64) (bool, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return false, fmt.Errorf("%w: customer id is required", ErrRewardsInvalidInput)
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return false, s.translateRepoError(err)
	}
	referral := customer.ReferralDetail
	if referral == nil || referral.Processed || strings.TrimSpace(referral.ReferrerID) == "" {
		return false, nil
	}

	rule, err := s.rules.ReferralRule(ctx)
	if err != nil {
		if isRepoNotFound(err) {
			return false, nil
		}
		return false, s.translateRepoError(err)
	}
	if !rule.Status {
		return false, nil
	}

	now := s.clock()
	if rule.RegistrationWindow > 0 && now.Sub(customer.RegisteredAt) > rule.RegistrationWindow {
		return false, nil
	}
	if itemTotal < rule.MinOrderAmount {
		return false, nil
	}

	referrerAmount := referralAmount(rule.ReferralType, rule.ReferrerDiscount, rule.ReferrerMaxAmount, itemTotal)
	refereeAmount := referralAmount(rule.ReferralType, rule.RefereeDiscount, rule.RefereeMaxAmount, itemTotal)
	if referrerAmount <= 0 && refereeAmount <= 0 {
		return false, nil
	}

	referrerMovement := repositories.WalletMovement{
		TransactionID: walletTransactionIDPrefix + s.newID(),
		Amount:        referrerAmount,
		Type:          domain.WalletCredit,
		Category:      domain.TransactionTypeReferral,
		Description:   fmt.Sprintf("Referral reward for inviting %s", customerID),
		Now:           now,
	}
	refereeMovement := repositories.WalletMovement{
		TransactionID: walletTransactionIDPrefix + s.newID(),
		Amount:        refereeAmount,
		Type:          domain.WalletCredit,
		Category:      domain.TransactionTypeReferral,
		Description:   "Referral reward on your first order",
		Now:           now,
	}

	if err := s.customers.CreditReferral(ctx, referral.ReferrerID, referrerMovement, customerID, refereeMovement); err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsConflict() {
			// A concurrent settlement already processed this referee.
			return false, nil
		}
		return false, s.translateRepoError(err)
	}

	s.logger(ctx, "rewards.referral.credited", map[string]any{
		"referee":        customerID,
		"referrer":       referral.ReferrerID,
		"refereeAmount":  refereeAmount,
		"referrerAmount": referrerAmount,
	})
	return true, nil
}

// referralAmount resolves the reward value for one party, honouring the
// per-party cap for percentage rules.
func referralAmount(kind domain.DiscountType, value, maxAmount, orderTotal float64) float64 {
	if value <= 0 {
		return 0
	}
	var amount float64
	switch kind {
	case domain.DiscountTypePercentage:
		amount = orderTotal * value / 100
		if maxAmount > 0 && amount > maxAmount {
			amount = maxAmount
		}
	default:
		amount = value
	}
	return Round2(amount)
}

func (s *rewardsService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrRewardsCustomerNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrRewardsUnavailable, err)
		}
	}
	return err
}
