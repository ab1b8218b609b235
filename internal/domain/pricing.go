package domain

// BillDetail is the priced snapshot persisted with a cart and copied onto every
// order. Discounted fields stay nil until a discount or promo actually applies.
type BillDetail struct {
	ItemTotal                float64
	OriginalDeliveryCharge   float64
	DiscountedDeliveryCharge *float64
	SurgePrice               float64
	TaxAmount                float64
	AddedTip                 float64
	DiscountedAmount         *float64
	OriginalGrandTotal       float64
	DiscountedGrandTotal     *float64
	SubTotal                 float64
	DeliveryChargePerDay     *float64
}

// GrandTotal returns the amount the customer actually owes: the discounted
// grand total when a discount applied, the original otherwise.
func (b BillDetail) GrandTotal() float64 {
	if b.DiscountedGrandTotal != nil {
		return *b.DiscountedGrandTotal
	}
	return b.OriginalGrandTotal
}

// DeliveryCharge returns the effective delivery charge after discounts.
func (b BillDetail) DeliveryCharge() float64 {
	if b.DiscountedDeliveryCharge != nil {
		return *b.DiscountedDeliveryCharge
	}
	return b.OriginalDeliveryCharge
}

// Tariff is the geofence-scoped customer pricing table for one delivery mode.
// Weight fields only apply to parcel modes and are zero elsewhere.
type Tariff struct {
	ID                  string
	GeofenceID          string
	DeliveryMode        DeliveryMode
	VehicleType         *string
	BaseFare            float64
	BaseDistanceKm      float64
	FarePerKmBeyondBase float64
	BaseWeightKg        float64
	FarePerKgBeyondBase float64
	PurchaseFarePerHour float64
}

// SurgeRule applies an additional fare during high-demand periods, shaped like
// the base tariff so the same fare arithmetic runs twice.
type SurgeRule struct {
	ID                  string
	GeofenceID          string
	BaseFare            float64
	BaseDistanceKm      float64
	FarePerKmBeyondBase float64
	Status              bool
}

// AgentTariff is the geofence-scoped payout table used at settlement time.
type AgentTariff struct {
	ID                    string
	GeofenceID            string
	BaseFare              float64
	BaseDistanceFarePerKm float64
	PurchaseFarePerHour   float64
	MinLoginHours         float64
}

// TaxRule maps a merchant business category within a geofence to a tax percent.
type TaxRule struct {
	ID                 string
	BusinessCategoryID string
	GeofenceID         string
	TaxPercent         float64
	Status             bool
}

// CommissionDetail is the platform/merchant revenue split computed when the
// merchant confirms an order.
type CommissionDetail struct {
	MerchantEarnings float64
	FamtoEarnings    float64
}
