package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	domain "github.com/famto/api/internal/domain"
)

// ErrPricingInvalidInput signals a caller bug: negative or malformed numeric
// input reaching the pure pricing functions.
var ErrPricingInvalidInput = errors.New("pricing: invalid input")

// Round2 rounds half away from zero to two decimal places. All intermediate
// bill amounts are persisted at this precision.
func Round2(value float64) float64 {
	return math.Trunc(value*100+math.Copysign(0.5, value)) / 100
}

// RoundRupee rounds half away from zero to the nearest integer currency unit.
// Grand totals are persisted at this precision.
func RoundRupee(value float64) float64 {
	return math.Trunc(value + math.Copysign(0.5, value))
}

// ItemTotal sums price times quantity across the cart lines.
func ItemTotal(items []domain.CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return Round2(total)
}

// DeliveryCharge computes the distance fare: the base fare covers the base
// distance, every kilometre beyond it bills at the per-km rate.
func DeliveryCharge(distanceKm, baseFare, baseDistanceKm, farePerKmBeyondBase float64) (float64, error) {
	if distanceKm < 0 {
		return 0, fmt.Errorf("%w: distance %.2f km is negative", ErrPricingInvalidInput, distanceKm)
	}
	if baseFare < 0 || baseDistanceKm < 0 || farePerKmBeyondBase < 0 {
		return 0, fmt.Errorf("%w: tariff values must be non-negative", ErrPricingInvalidInput)
	}
	if distanceKm <= baseDistanceKm {
		return Round2(baseFare), nil
	}
	return Round2(baseFare + (distanceKm-baseDistanceKm)*farePerKmBeyondBase), nil
}

// AdditionalWeightCharge bills every kilogram above the tariff's base weight.
func AdditionalWeightCharge(totalWeightKg, baseWeightKg, farePerKgBeyondBase float64) (float64, error) {
	if totalWeightKg < 0 || baseWeightKg < 0 || farePerKgBeyondBase < 0 {
		return 0, fmt.Errorf("%w: weight inputs must be non-negative", ErrPricingInvalidInput)
	}
	excess := totalWeightKg - baseWeightKg
	if excess <= 0 {
		return 0, nil
	}
	return Round2(excess * farePerKgBeyondBase), nil
}

// SurgeCharge applies a high-demand fare shaped like the base tariff.
func SurgeCharge(distanceKm float64, rule domain.SurgeRule) (float64, error) {
	if !rule.Status {
		return 0, nil
	}
	return DeliveryCharge(distanceKm, rule.BaseFare, rule.BaseDistanceKm, rule.FarePerKmBeyondBase)
}

// TaxAmount computes tax on the item total plus delivery charge.
func TaxAmount(itemTotal, deliveryCharge, taxPercent float64) (float64, error) {
	if itemTotal < 0 || deliveryCharge < 0 || taxPercent < 0 {
		return 0, fmt.Errorf("%w: tax inputs must be non-negative", ErrPricingInvalidInput)
	}
	return Round2((itemTotal + deliveryCharge) * taxPercent / 100), nil
}

// SubTotal is the amount owed before tax: items plus surge, delivery and tip,
// minus any discount.
func SubTotal(itemTotal, surge, deliveryCharge, tip, discount float64) float64 {
	return Round2(itemTotal + surge + deliveryCharge + tip - discount)
}

// GrandTotal sums all five charge components. Callers round the result to
// integer currency when persisting originalGrandTotal.
func GrandTotal(itemTotal, surge, deliveryCharge, tip, tax float64) float64 {
	return Round2(itemTotal + surge + deliveryCharge + tip + tax)
}

// ScheduledDayCount is the inclusive number of calendar days between the start
// and end dates of a schedule window.
func ScheduledDayCount(startDate, endDate time.Time) (int, error) {
	start := dateOnly(startDate)
	end := dateOnly(endDate)
	if end.Before(start) {
		return 0, fmt.Errorf("%w: schedule end date precedes start date", ErrPricingInvalidInput)
	}
	days := int(math.Ceil(end.Sub(start).Hours()/24)) + 1
	return days, nil
}

// AgentEarning computes the agent payout for a completed delivery. Purchase
// hours only contribute for Custom Order shopping work and are zero otherwise.
func AgentEarning(distanceKm float64, tariff domain.AgentTariff, purchaseHours float64) (float64, error) {
	if distanceKm < 0 {
		return 0, fmt.Errorf("%w: distance %.2f km is negative", ErrPricingInvalidInput, distanceKm)
	}
	if purchaseHours < 0 {
		return 0, fmt.Errorf("%w: purchase duration is negative", ErrPricingInvalidInput)
	}
	earning := distanceKm*tariff.BaseDistanceFarePerKm + purchaseHours*tariff.PurchaseFarePerHour
	return Round2(earning), nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
