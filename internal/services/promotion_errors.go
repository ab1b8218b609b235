package services

import "errors"

var (
	// ErrPromotionInvalidCode signals the supplied promotion code is missing or malformed.
	ErrPromotionInvalidCode = errors.New("promotion service: invalid promotion code")
	// ErrPromotionNotFound indicates no promotion exists for the provided code and geofence.
	ErrPromotionNotFound = errors.New("promotion service: promotion not found")
	// ErrPromotionInactive indicates the promotion exists but is disabled.
	ErrPromotionInactive = errors.New("promotion service: promotion inactive")
	// ErrPromotionOutOfDateRange indicates the promotion is outside its validity window.
	ErrPromotionOutOfDateRange = errors.New("promotion service: promotion out of date range")
	// ErrPromotionUsageLimitReached indicates every allowed redemption has been consumed.
	ErrPromotionUsageLimitReached = errors.New("promotion service: usage limit reached")
	// ErrPromotionMinOrderAmount indicates the cart value is below the promotion threshold.
	ErrPromotionMinOrderAmount = errors.New("promotion service: minimum order amount not met")
	// ErrPromotionMerchantMismatch indicates the promotion is scoped to a different merchant.
	ErrPromotionMerchantMismatch = errors.New("promotion service: merchant mismatch")
	// ErrPromotionUnavailable indicates the promotion store could not be reached.
	ErrPromotionUnavailable = errors.New("promotion service: promotion unavailable")
)
