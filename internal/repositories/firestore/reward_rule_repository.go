package firestore

import (
	"context"
	"errors"
	"time"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
)

const (
	rewardRuleCollection = "rewardRules"
	loyaltyRuleDocID     = "loyalty"
	referralRuleDocID    = "referral"
)

type loyaltyRuleDocument struct {
	Status                   bool    `firestore:"status"`
	EarningCriteriaRupee     float64 `firestore:"earningCriteriaRupee"`
	EarningCriteriaPoint     int     `firestore:"earningCriteriaPoint"`
	MinOrderAmountForEarning float64 `firestore:"minOrderAmountForEarning"`
	MaxEarningPointPerOrder  int     `firestore:"maxEarningPointPerOrder"`
}

type referralRuleDocument struct {
	Status                 bool    `firestore:"status"`
	ReferralType           string  `firestore:"referralType"`
	ReferrerDiscount       float64 `firestore:"referrerDiscount"`
	RefereeDiscount        float64 `firestore:"refereeDiscount"`
	ReferrerMaxAmount      float64 `firestore:"referrerMaxAmount"`
	RefereeMaxAmount       float64 `firestore:"refereeMaxAmount"`
	MinOrderAmount         float64 `firestore:"minOrderAmount"`
	RegistrationWindowDays int     `firestore:"registrationWindowDays"`
}

// RewardRuleRepository reads the singleton loyalty and referral configuration
// documents.
type RewardRuleRepository struct {
	loyalty   *pfirestore.BaseRepository[loyaltyRuleDocument]
	referrals *pfirestore.BaseRepository[referralRuleDocument]
}

// NewRewardRuleRepository constructs a Firestore-backed reward rule repository.
func NewRewardRuleRepository(provider *pfirestore.Provider) (*RewardRuleRepository, error) {
	if provider == nil {
		return nil, errors.New("reward rule repository requires firestore provider")
	}
	return &RewardRuleRepository{
		loyalty:   pfirestore.NewBaseRepository[loyaltyRuleDocument](provider, rewardRuleCollection, nil, nil),
		referrals: pfirestore.NewBaseRepository[referralRuleDocument](provider, rewardRuleCollection, nil, nil),
	}, nil
}

// LoyaltyRule loads the loyalty earning configuration.
func (r *RewardRuleRepository) LoyaltyRule(ctx context.Context) (domain.LoyaltyRule, error) {
	if r == nil || r.loyalty == nil {
		return domain.LoyaltyRule{}, errors.New("reward rule repository not initialised")
	}
	doc, err := r.loyalty.Get(ctx, loyaltyRuleDocID)
	if err != nil {
		return domain.LoyaltyRule{}, err
	}
	return domain.LoyaltyRule{
		Status:                   doc.Data.Status,
		EarningCriteriaRupee:     doc.Data.EarningCriteriaRupee,
		EarningCriteriaPoint:     doc.Data.EarningCriteriaPoint,
		MinOrderAmountForEarning: doc.Data.MinOrderAmountForEarning,
		MaxEarningPointPerOrder:  doc.Data.MaxEarningPointPerOrder,
	}, nil
}

// ReferralRule loads the referral reward configuration.
func (r *RewardRuleRepository) ReferralRule(ctx context.Context) (domain.ReferralRule, error) {
	if r == nil || r.referrals == nil {
		return domain.ReferralRule{}, errors.New("reward rule repository not initialised")
	}
	doc, err := r.referrals.Get(ctx, referralRuleDocID)
	if err != nil {
		return domain.ReferralRule{}, err
	}
	return domain.ReferralRule{
		Status:             doc.Data.Status,
		ReferralType:       domain.DiscountType(doc.Data.ReferralType),
		ReferrerDiscount:   doc.Data.ReferrerDiscount,
		RefereeDiscount:    doc.Data.RefereeDiscount,
		ReferrerMaxAmount:  doc.Data.ReferrerMaxAmount,
		RefereeMaxAmount:   doc.Data.RefereeMaxAmount,
		MinOrderAmount:     doc.Data.MinOrderAmount,
		RegistrationWindow: time.Duration(doc.Data.RegistrationWindowDays) * 24 * time.Hour,
	}, nil
}

var _ repositories.RewardRuleRepository = (*RewardRuleRepository)(nil)
