package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/repositories"
)

const cartItemIDPrefix = "itm_"

var (
	// ErrCartInvalidInput signals the caller provided invalid data.
	ErrCartInvalidInput = errors.New("cart: invalid input")
	// ErrCartNotFound indicates no draft cart exists for the customer.
	ErrCartNotFound = errors.New("cart: not found")
	// ErrCartConflict indicates an optimistic concurrency conflict on the cart document.
	ErrCartConflict = errors.New("cart: conflict")
	// ErrCartUnavailable indicates the cart store could not be reached.
	ErrCartUnavailable = errors.New("cart: unavailable")
	// ErrCartModeUnsupported indicates the merchant does not serve the requested delivery mode or option.
	ErrCartModeUnsupported = errors.New("cart: delivery mode unsupported by merchant")
	// ErrCartPromoAlreadyApplied indicates the cart already carries a redeemed promo code.
	ErrCartPromoAlreadyApplied = errors.New("cart: promo code already applied")
)

// merchantModes lists the delivery modes that require a merchant scope.
var merchantModes = []domain.DeliveryMode{
	domain.DeliveryModeHomeDelivery,
	domain.DeliveryModeTakeAway,
}

// CartServiceDeps bundles collaborators required to construct the cart service.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Customers   repositories.CustomerRepository
	Merchants   repositories.MerchantRepository
	Tariffs     repositories.TariffRepository
	Taxes       repositories.TaxRepository
	Promotions  PromotionService
	Routes      RouteResolver
	Geofences   GeofenceResolver
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type cartService struct {
	carts      repositories.CartRepository
	customers  repositories.CustomerRepository
	merchants  repositories.MerchantRepository
	tariffs    repositories.TariffRepository
	taxes      repositories.TaxRepository
	promotions PromotionService
	routes     RouteResolver
	geofences  GeofenceResolver
	clock      func() time.Time
	newID      func() string
	logger     func(context.Context, string, map[string]any)
}

// NewCartService wires dependencies into a concrete CartService implementation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Customers == nil {
		return nil, errors.New("cart service: customer repository is required")
	}
	if deps.Tariffs == nil {
		return nil, errors.New("cart service: tariff repository is required")
	}
	if deps.Promotions == nil {
		return nil, errors.New("cart service: promotion service is required")
	}
	if deps.Routes == nil {
		return nil, errors.New("cart service: route resolver is required")
	}
	if deps.Geofences == nil {
		return nil, errors.New("cart service: geofence resolver is required")
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

	return &cartService{
		carts:      deps.Carts,
		customers:  deps.Customers,
		merchants:  deps.Merchants,
		tariffs:    deps.Tariffs,
		taxes:      deps.Taxes,
		promotions: deps.Promotions,
		routes:     deps.Routes,
		geofences:  deps.Geofences,
		clock:      func() time.Time { return clock().UTC() },
		newID:      idGen,
		logger:     logger,
	}, nil
}

// SetDeliveryTarget establishes or resets the cart routing detail. Switching
// the delivery mode clears items and the bill so a parcel cart can never
// carry restaurant items.
func (s *cartService) SetDeliveryTarget(ctx context.Context, cmd SetDeliveryTargetCommand) (Cart, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return Cart{}, fmt.Errorf("%w: customer id is required", ErrCartInvalidInput)
	}
	if !validDeliveryMode(cmd.DeliveryMode) {
		return Cart{}, fmt.Errorf("%w: unknown delivery mode %q", ErrCartInvalidInput, cmd.DeliveryMode)
	}
	if cmd.DeliveryOption != domain.DeliveryOptionOnDemand && cmd.DeliveryOption != domain.DeliveryOptionScheduled {
		return Cart{}, fmt.Errorf("%w: unknown delivery option %q", ErrCartInvalidInput, cmd.DeliveryOption)
	}

	schedule, err := normaliseSchedule(cmd.DeliveryOption, cmd.Schedule)
	if err != nil {
		return Cart{}, err
	}

	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return Cart{}, s.translateRepoError(err)
	}

	merchantID, err := s.resolveMerchantScope(ctx, cmd)
	if err != nil {
		return Cart{}, err
	}

	now := s.clock()
	cart, err := s.carts.FindByCustomer(ctx, customerID)
	switch {
	case err == nil:
		if cart.CartDetail.DeliveryMode != cmd.DeliveryMode {
			cart.Items = nil
			cart.BillDetail = domain.BillDetail{}
			cart.PromoCode = nil
		}
	case isRepoNotFound(err):
		cart = domain.Cart{
			ID:         customerID,
			CustomerID: customerID,
			CreatedAt:  now,
		}
	default:
		return Cart{}, s.translateRepoError(err)
	}

	expected := cart.UpdatedAt
	cart.MerchantID = merchantID
	cart.CartDetail = domain.CartDetail{
		PickupLocation:   cloneLocation(cmd.PickupLocation),
		PickupAddress:    cloneAddress(cmd.PickupAddress),
		DeliveryLocation: cloneLocation(cmd.DeliveryLocation),
		DeliveryAddress:  cloneAddress(cmd.DeliveryAddress),
		DeliveryMode:     cmd.DeliveryMode,
		DeliveryOption:   cmd.DeliveryOption,
		Schedule:         schedule,
		Instructions:     strings.TrimSpace(cmd.Instructions),
		VehicleType:      cloneStringPtr(cmd.VehicleType),
	}

	if err := s.resolveRouting(ctx, &cart.CartDetail); err != nil {
		return Cart{}, err
	}
	if err := s.priceCart(ctx, &cart); err != nil {
		return Cart{}, err
	}

	cart.UpdatedAt = now
	return s.saveCart(ctx, cart, optionalTime(expected))
}

// UpsertItem adds or replaces one line. Items from a second merchant displace
// the previous merchant's items entirely.
func (s *cartService) UpsertItem(ctx context.Context, cmd UpsertCartItemCommand) (Cart, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return Cart{}, fmt.Errorf("%w: customer id is required", ErrCartInvalidInput)
	}
	item, err := normaliseCartItem(cmd.Item, s.newID)
	if err != nil {
		return Cart{}, err
	}

	cart, err := s.loadCart(ctx, customerID, cmd.ExpectedUpdatedAt)
	if err != nil {
		return Cart{}, err
	}

	if isMerchantMode(cart.CartDetail.DeliveryMode) {
		if cmd.MerchantID == nil || strings.TrimSpace(*cmd.MerchantID) == "" {
			return Cart{}, fmt.Errorf("%w: merchant id is required for %s", ErrCartInvalidInput, cart.CartDetail.DeliveryMode)
		}
		incoming := strings.TrimSpace(*cmd.MerchantID)
		if cart.MerchantID == nil || *cart.MerchantID != incoming {
			cart.Items = nil
			cart.PromoCode = nil
			cart.MerchantID = &incoming
		}
	}

	replaced := false
	for i := range cart.Items {
		if cart.Items[i].ItemID == item.ItemID {
			cart.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		cart.Items = append(cart.Items, item)
	}

	return s.repriceAndSave(ctx, cart)
}

// RemoveItem drops one line from the cart.
func (s *cartService) RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (Cart, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	itemID := strings.TrimSpace(cmd.ItemID)
	if customerID == "" || itemID == "" {
		return Cart{}, fmt.Errorf("%w: customer id and item id are required", ErrCartInvalidInput)
	}

	cart, err := s.loadCart(ctx, customerID, cmd.ExpectedUpdatedAt)
	if err != nil {
		return Cart{}, err
	}

	kept := cart.Items[:0]
	found := false
	for _, item := range cart.Items {
		if item.ItemID == itemID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return Cart{}, fmt.Errorf("%w: item %s not in cart", ErrCartNotFound, itemID)
	}
	cart.Items = kept

	return s.repriceAndSave(ctx, cart)
}

// ReplaceItems swaps the full item list in one call.
func (s *cartService) ReplaceItems(ctx context.Context, cmd ReplaceCartItemsCommand) (Cart, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return Cart{}, fmt.Errorf("%w: customer id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadCart(ctx, customerID, cmd.ExpectedUpdatedAt)
	if err != nil {
		return Cart{}, err
	}

	if isMerchantMode(cart.CartDetail.DeliveryMode) {
		if cmd.MerchantID == nil || strings.TrimSpace(*cmd.MerchantID) == "" {
			return Cart{}, fmt.Errorf("%w: merchant id is required for %s", ErrCartInvalidInput, cart.CartDetail.DeliveryMode)
		}
		incoming := strings.TrimSpace(*cmd.MerchantID)
		if cart.MerchantID == nil || *cart.MerchantID != incoming {
			cart.PromoCode = nil
		}
		cart.MerchantID = &incoming
	}

	items := make([]domain.CartItem, 0, len(cmd.Items))
	for _, raw := range cmd.Items {
		item, err := normaliseCartItem(raw, s.newID)
		if err != nil {
			return Cart{}, err
		}
		items = append(items, item)
	}
	cart.Items = items

	return s.repriceAndSave(ctx, cart)
}

// ApplyTipAndPromo attaches a tip and optionally redeems a promo code. The
// redemption counter increments atomically; a failed cart save releases the
// slot again so the counter never drifts.
func (s *cartService) ApplyTipAndPromo(ctx context.Context, cmd ApplyTipAndPromoCommand) (Cart, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return Cart{}, fmt.Errorf("%w: customer id is required", ErrCartInvalidInput)
	}
	if cmd.Tip < 0 {
		return Cart{}, fmt.Errorf("%w: tip must be non-negative", ErrCartInvalidInput)
	}

	cart, err := s.loadCart(ctx, customerID, cmd.ExpectedUpdatedAt)
	if err != nil {
		return Cart{}, err
	}

	cart.BillDetail.AddedTip = Round2(cmd.Tip)

	if cmd.PromoCode == nil || strings.TrimSpace(*cmd.PromoCode) == "" {
		return s.repriceAndSave(ctx, cart)
	}

	code := strings.ToUpper(strings.TrimSpace(*cmd.PromoCode))
	if cart.PromoCode != nil {
		if *cart.PromoCode == code {
			return Cart{}, fmt.Errorf("%w: %s", ErrCartPromoAlreadyApplied, code)
		}
		return Cart{}, fmt.Errorf("%w: clear %s before applying %s", ErrCartPromoAlreadyApplied, *cart.PromoCode, code)
	}

	// Price without the promo first so the evaluation sees current amounts.
	if err := s.priceCart(ctx, &cart); err != nil {
		return Cart{}, err
	}

	evaluation, err := s.promotions.EvaluatePromoCode(ctx, EvaluatePromoCommand{
		Code:           code,
		GeofenceID:     cart.CartDetail.GeofenceID,
		MerchantID:     cart.MerchantID,
		CartValue:      cart.BillDetail.ItemTotal,
		DeliveryCharge: cart.BillDetail.OriginalDeliveryCharge,
	})
	if err != nil {
		return Cart{}, err
	}

	if _, err := s.promotions.RedeemPromoCode(ctx, evaluation.Promotion.ID); err != nil {
		return Cart{}, err
	}

	cart.PromoCode = &code
	saved, err := s.repriceAndSave(ctx, cart)
	if err != nil {
		if releaseErr := s.promotions.ReleasePromoCode(ctx, evaluation.Promotion.ID); releaseErr != nil {
			s.logger(ctx, "cart.promo.release.failed", map[string]any{
				"promotion": evaluation.Promotion.ID,
				"customer":  customerID,
				"error":     releaseErr.Error(),
			})
		}
		return Cart{}, err
	}
	return saved, nil
}

// GetCart loads the customer's draft cart.
func (s *cartService) GetCart(ctx context.Context, customerID string) (Cart, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return Cart{}, fmt.Errorf("%w: customer id is required", ErrCartInvalidInput)
	}
	cart, err := s.carts.FindByCustomer(ctx, customerID)
	if err != nil {
		return Cart{}, s.translateRepoError(err)
	}
	return cart, nil
}

// GetBill returns the persisted bill snapshot.
func (s *cartService) GetBill(ctx context.Context, customerID string) (BillDetail, error) {
	cart, err := s.GetCart(ctx, customerID)
	if err != nil {
		return BillDetail{}, err
	}
	return cart.BillDetail, nil
}

// Clear deletes the cart. Clearing an absent cart is a no-op, not an error.
func (s *cartService) Clear(ctx context.Context, customerID string) error {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return fmt.Errorf("%w: customer id is required", ErrCartInvalidInput)
	}
	if err := s.carts.Delete(ctx, customerID); err != nil {
		if isRepoNotFound(err) {
			return nil
		}
		return s.translateRepoError(err)
	}
	return nil
}

func (s *cartService) loadCart(ctx context.Context, customerID string, expected *time.Time) (domain.Cart, error) {
	cart, err := s.carts.FindByCustomer(ctx, customerID)
	if err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}
	if expected != nil && !expected.IsZero() && !cart.UpdatedAt.Equal(expected.UTC()) {
		return domain.Cart{}, fmt.Errorf("%w: cart changed since %s", ErrCartConflict, expected.UTC().Format(time.RFC3339Nano))
	}
	return cart, nil
}

func (s *cartService) repriceAndSave(ctx context.Context, cart domain.Cart) (Cart, error) {
	if err := s.priceCart(ctx, &cart); err != nil {
		return Cart{}, err
	}
	expected := cart.UpdatedAt
	cart.UpdatedAt = s.clock()
	return s.saveCart(ctx, cart, optionalTime(expected))
}

func (s *cartService) saveCart(ctx context.Context, cart domain.Cart, expected *time.Time) (Cart, error) {
	saved, err := s.carts.Upsert(ctx, cart, expected)
	if err != nil {
		return Cart{}, s.translateRepoError(err)
	}
	return saved, nil
}

// resolveMerchantScope validates the merchant against the requested mode and
// option, returning the normalised merchant reference for merchant modes.
func (s *cartService) resolveMerchantScope(ctx context.Context, cmd SetDeliveryTargetCommand) (*string, error) {
	if !isMerchantMode(cmd.DeliveryMode) {
		return nil, nil
	}
	if cmd.MerchantID == nil || strings.TrimSpace(*cmd.MerchantID) == "" {
		return nil, fmt.Errorf("%w: merchant id is required for %s", ErrCartInvalidInput, cmd.DeliveryMode)
	}
	merchantID := strings.TrimSpace(*cmd.MerchantID)
	if s.merchants == nil {
		return &merchantID, nil
	}

	merchant, err := s.merchants.FindByID(ctx, merchantID)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	if !merchant.Status {
		return nil, fmt.Errorf("%w: merchant %s is closed", ErrCartModeUnsupported, merchantID)
	}
	if len(merchant.ServingModes) > 0 && !slices.Contains(merchant.ServingModes, cmd.DeliveryMode) {
		return nil, fmt.Errorf("%w: %s", ErrCartModeUnsupported, cmd.DeliveryMode)
	}
	if len(merchant.ServingOptions) > 0 && !slices.Contains(merchant.ServingOptions, cmd.DeliveryOption) {
		return nil, fmt.Errorf("%w: %s", ErrCartModeUnsupported, cmd.DeliveryOption)
	}
	return &merchantID, nil
}

// resolveRouting fills geofence, distance and duration. Results stay cached on
// the cart detail until the next address change rewrites the detail.
func (s *cartService) resolveRouting(ctx context.Context, detail *domain.CartDetail) error {
	anchor := detail.DeliveryLocation
	if anchor == nil {
		anchor = detail.PickupLocation
	}
	if anchor == nil {
		return fmt.Errorf("%w: at least one location is required", ErrCartInvalidInput)
	}

	geofenceID, err := s.geofences.ResolveGeofence(ctx, *anchor)
	if err != nil {
		return fmt.Errorf("cart: geofence lookup: %w", err)
	}
	detail.GeofenceID = geofenceID

	if detail.PickupLocation == nil || detail.DeliveryLocation == nil {
		detail.DistanceKm = 0
		detail.DurationMinutes = 0
		return nil
	}

	estimate, err := s.routes.RouteDistance(ctx, *detail.PickupLocation, *detail.DeliveryLocation)
	if err != nil {
		return fmt.Errorf("cart: route lookup: %w", err)
	}
	detail.DistanceKm = estimate.DistanceKm
	detail.DurationMinutes = estimate.DurationMinutes
	return nil
}

// priceCart recomputes the full bill from the cart's current items, routing
// and promo state. Every mutating operation funnels through here so the
// persisted snapshot can never drift from its inputs.
func (s *cartService) priceCart(ctx context.Context, cart *domain.Cart) error {
	detail := cart.CartDetail
	bill := domain.BillDetail{
		ItemTotal: ItemTotal(cart.Items),
		AddedTip:  cart.BillDetail.AddedTip,
	}

	var deliveryCharge float64
	if detail.DeliveryMode != domain.DeliveryModeTakeAway {
		tariff, err := s.tariffs.CustomerTariff(ctx, detail.GeofenceID, detail.DeliveryMode, detail.VehicleType)
		if err != nil {
			return s.translateRepoError(err)
		}
		deliveryCharge, err = DeliveryCharge(detail.DistanceKm, tariff.BaseFare, tariff.BaseDistanceKm, tariff.FarePerKmBeyondBase)
		if err != nil {
			return err
		}
		if detail.DeliveryMode == domain.DeliveryModePickAndDrop && tariff.FarePerKgBeyondBase > 0 {
			weightCharge, err := AdditionalWeightCharge(totalWeightKg(cart.Items), tariff.BaseWeightKg, tariff.FarePerKgBeyondBase)
			if err != nil {
				return err
			}
			deliveryCharge = Round2(deliveryCharge + weightCharge)
		}

		surge, err := s.surgeCharge(ctx, detail.GeofenceID, detail.DistanceKm)
		if err != nil {
			return err
		}
		bill.SurgePrice = surge
	}
	bill.OriginalDeliveryCharge = deliveryCharge

	totalDeliveryCharge := deliveryCharge
	if detail.DeliveryOption == domain.DeliveryOptionScheduled && detail.Schedule != nil {
		perDay := deliveryCharge
		bill.DeliveryChargePerDay = &perDay
		totalDeliveryCharge = Round2(perDay * float64(detail.Schedule.NumOfDays))
		bill.OriginalDeliveryCharge = totalDeliveryCharge
	}

	tax, err := s.taxCharge(ctx, cart, bill.ItemTotal, totalDeliveryCharge)
	if err != nil {
		return err
	}
	bill.TaxAmount = tax

	discount, err := s.cartDiscount(ctx, cart, bill)
	if err != nil {
		return err
	}

	grand := GrandTotal(bill.ItemTotal, bill.SurgePrice, totalDeliveryCharge, bill.AddedTip, bill.TaxAmount)
	bill.OriginalGrandTotal = RoundRupee(grand)
	bill.SubTotal = SubTotal(bill.ItemTotal, bill.SurgePrice, totalDeliveryCharge, bill.AddedTip, discount)

	if discount > 0 {
		amount := Round2(discount)
		discountedGrand := RoundRupee(grand - discount)
		bill.DiscountedAmount = &amount
		bill.DiscountedGrandTotal = &discountedGrand
	}

	cart.BillDetail = bill
	return nil
}

// cartDiscount combines merchant/product discounts with the applied promo.
func (s *cartService) cartDiscount(ctx context.Context, cart *domain.Cart, bill domain.BillDetail) (float64, error) {
	var discount float64
	if cart.MerchantID != nil && isMerchantMode(cart.CartDetail.DeliveryMode) {
		itemDiscount, err := s.promotions.ItemDiscount(ctx, *cart.MerchantID, cart.CartDetail.GeofenceID, cart.Items)
		if err != nil {
			return 0, err
		}
		discount += itemDiscount
	}

	if cart.PromoCode != nil {
		evaluation, err := s.promotions.EvaluatePromoCode(ctx, EvaluatePromoCommand{
			Code:           *cart.PromoCode,
			GeofenceID:     cart.CartDetail.GeofenceID,
			MerchantID:     cart.MerchantID,
			CartValue:      bill.ItemTotal,
			DeliveryCharge: bill.OriginalDeliveryCharge,
		})
		switch {
		case err == nil:
			discount += evaluation.DiscountAmount
		case errors.Is(err, ErrPromotionUsageLimitReached):
			// The applied code already holds its slot; repricing against a
			// now-exhausted counter must not void the discount.
			s.logger(ctx, "cart.promo.limit.during.reprice", map[string]any{
				"code":     *cart.PromoCode,
				"customer": cart.CustomerID,
			})
		default:
			return 0, err
		}
	}
	return Round2(discount), nil
}

func (s *cartService) surgeCharge(ctx context.Context, geofenceID string, distanceKm float64) (float64, error) {
	rule, err := s.tariffs.ActiveSurge(ctx, geofenceID, s.clock())
	if err != nil {
		if isRepoNotFound(err) {
			return 0, nil
		}
		return 0, s.translateRepoError(err)
	}
	return SurgeCharge(distanceKm, rule)
}

// taxCharge resolves the merchant's business-category tax. Non-merchant modes
// and merchants without an active rule carry no tax.
func (s *cartService) taxCharge(ctx context.Context, cart *domain.Cart, itemTotal, deliveryCharge float64) (float64, error) {
	if cart.MerchantID == nil || s.taxes == nil || s.merchants == nil {
		return 0, nil
	}
	merchant, err := s.merchants.FindByID(ctx, *cart.MerchantID)
	if err != nil {
		return 0, s.translateRepoError(err)
	}
	rule, err := s.taxes.FindRule(ctx, merchant.BusinessCategoryID, cart.CartDetail.GeofenceID)
	if err != nil {
		if isRepoNotFound(err) {
			return 0, nil
		}
		return 0, s.translateRepoError(err)
	}
	if !rule.Status {
		return 0, nil
	}
	return TaxAmount(itemTotal, deliveryCharge, rule.TaxPercent)
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCartNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCartConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
		}
	}
	return err
}

func validDeliveryMode(mode domain.DeliveryMode) bool {
	switch mode {
	case domain.DeliveryModeHomeDelivery, domain.DeliveryModeTakeAway,
		domain.DeliveryModePickAndDrop, domain.DeliveryModeCustomOrder:
		return true
	}
	return false
}

func isMerchantMode(mode domain.DeliveryMode) bool {
	return slices.Contains(merchantModes, mode)
}

func normaliseSchedule(option domain.DeliveryOption, schedule *domain.Schedule) (*domain.Schedule, error) {
	if option != domain.DeliveryOptionScheduled {
		return nil, nil
	}
	if schedule == nil {
		return nil, fmt.Errorf("%w: schedule window is required for scheduled delivery", ErrCartInvalidInput)
	}
	days, err := ScheduledDayCount(schedule.StartDate, schedule.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartInvalidInput, err)
	}
	normalised := *schedule
	normalised.NumOfDays = days
	return &normalised, nil
}

func normaliseCartItem(item domain.CartItem, newID func() string) (domain.CartItem, error) {
	if strings.TrimSpace(item.ItemName) == "" && (item.ProductID == nil || strings.TrimSpace(*item.ProductID) == "") {
		return domain.CartItem{}, fmt.Errorf("%w: item requires a product reference or descriptor", ErrCartInvalidInput)
	}
	if item.Quantity <= 0 {
		return domain.CartItem{}, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
	}
	if item.Price < 0 || item.WeightKg < 0 {
		return domain.CartItem{}, fmt.Errorf("%w: price and weight must be non-negative", ErrCartInvalidInput)
	}
	normalised := item
	if strings.TrimSpace(normalised.ItemID) == "" {
		normalised.ItemID = cartItemIDPrefix + newID()
	}
	normalised.ItemName = strings.TrimSpace(normalised.ItemName)
	normalised.TotalPrice = Round2(normalised.Price * float64(normalised.Quantity))
	return normalised, nil
}

func totalWeightKg(items []domain.CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.WeightKg * float64(item.Quantity)
	}
	return total
}

func cloneLocation(loc *domain.Location) *domain.Location {
	if loc == nil {
		return nil
	}
	cloned := *loc
	return &cloned
}

func cloneAddress(addr *domain.Address) *domain.Address {
	if addr == nil {
		return nil
	}
	cloned := *addr
	return &cloned
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	ref := *value
	return &ref
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
