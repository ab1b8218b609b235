package firestore

import (
	"time"

	domain "github.com/famto/api/internal/domain"
)

// Shared sub-documents reused across cart, order and task collections.

type locationDocument struct {
	Latitude  float64 `firestore:"latitude"`
	Longitude float64 `firestore:"longitude"`
}

type addressDocument struct {
	FullName  string  `firestore:"fullName,omitempty"`
	Phone     string  `firestore:"phone,omitempty"`
	Flat      string  `firestore:"flat,omitempty"`
	Area      string  `firestore:"area,omitempty"`
	Landmark  string  `firestore:"landmark,omitempty"`
	AddressID *string `firestore:"addressId,omitempty"`
}

type scheduleDocument struct {
	StartDate time.Time `firestore:"startDate"`
	EndDate   time.Time `firestore:"endDate"`
	Time      time.Time `firestore:"time"`
	NumOfDays int       `firestore:"numOfDays"`
}

type cartItemDocument struct {
	ItemID     string  `firestore:"itemId"`
	ProductID  *string `firestore:"productId,omitempty"`
	ItemName   string  `firestore:"itemName,omitempty"`
	Quantity   int     `firestore:"quantity"`
	Price      float64 `firestore:"price"`
	VariantID  *string `firestore:"variantId,omitempty"`
	WeightKg   float64 `firestore:"weightKg,omitempty"`
	TotalPrice float64 `firestore:"totalPrice"`
}

type billDetailDocument struct {
	ItemTotal                float64  `firestore:"itemTotal"`
	OriginalDeliveryCharge   float64  `firestore:"originalDeliveryCharge"`
	DiscountedDeliveryCharge *float64 `firestore:"discountedDeliveryCharge,omitempty"`
	SurgePrice               float64  `firestore:"surgePrice,omitempty"`
	TaxAmount                float64  `firestore:"taxAmount,omitempty"`
	AddedTip                 float64  `firestore:"addedTip,omitempty"`
	DiscountedAmount         *float64 `firestore:"discountedAmount,omitempty"`
	OriginalGrandTotal       float64  `firestore:"originalGrandTotal"`
	DiscountedGrandTotal     *float64 `firestore:"discountedGrandTotal,omitempty"`
	SubTotal                 float64  `firestore:"subTotal"`
	DeliveryChargePerDay     *float64 `firestore:"deliveryChargePerDay,omitempty"`
}

type deliveryDetailDocument struct {
	PickupLocation   *locationDocument `firestore:"pickupLocation,omitempty"`
	PickupAddress    *addressDocument  `firestore:"pickupAddress,omitempty"`
	DeliveryLocation *locationDocument `firestore:"deliveryLocation,omitempty"`
	DeliveryAddress  *addressDocument  `firestore:"deliveryAddress,omitempty"`
	DeliveryMode     string            `firestore:"deliveryMode"`
	DeliveryOption   string            `firestore:"deliveryOption"`
	Schedule         *scheduleDocument `firestore:"schedule,omitempty"`
	Instructions     string            `firestore:"instructions,omitempty"`
	VehicleType      *string           `firestore:"vehicleType,omitempty"`
	GeofenceID       string            `firestore:"geofenceId,omitempty"`
	DistanceKm       float64           `firestore:"distanceKm,omitempty"`
	DurationMinutes  float64           `firestore:"durationMinutes,omitempty"`
	DeliveryTime     *time.Time        `firestore:"deliveryTime,omitempty"`
}

// --- encoders ---------------------------------------------------------------

func encodeLocation(loc *domain.Location) *locationDocument {
	if loc == nil {
		return nil
	}
	return &locationDocument{Latitude: loc.Latitude, Longitude: loc.Longitude}
}

func encodeAddress(addr *domain.Address) *addressDocument {
	if addr == nil {
		return nil
	}
	return &addressDocument{
		FullName:  addr.FullName,
		Phone:     addr.Phone,
		Flat:      addr.Flat,
		Area:      addr.Area,
		Landmark:  addr.Landmark,
		AddressID: addr.AddressID,
	}
}

func encodeSchedule(schedule *domain.Schedule) *scheduleDocument {
	if schedule == nil {
		return nil
	}
	return &scheduleDocument{
		StartDate: schedule.StartDate.UTC(),
		EndDate:   schedule.EndDate.UTC(),
		Time:      schedule.Time.UTC(),
		NumOfDays: schedule.NumOfDays,
	}
}

func encodeCartItems(items []domain.CartItem) []cartItemDocument {
	if len(items) == 0 {
		return nil
	}
	docs := make([]cartItemDocument, 0, len(items))
	for _, item := range items {
		docs = append(docs, cartItemDocument{
			ItemID:     item.ItemID,
			ProductID:  item.ProductID,
			ItemName:   item.ItemName,
			Quantity:   item.Quantity,
			Price:      item.Price,
			VariantID:  item.VariantID,
			WeightKg:   item.WeightKg,
			TotalPrice: item.TotalPrice,
		})
	}
	return docs
}

func encodeBillDetail(bill domain.BillDetail) billDetailDocument {
	return billDetailDocument{
		ItemTotal:                bill.ItemTotal,
		OriginalDeliveryCharge:   bill.OriginalDeliveryCharge,
		DiscountedDeliveryCharge: bill.DiscountedDeliveryCharge,
		SurgePrice:               bill.SurgePrice,
		TaxAmount:                bill.TaxAmount,
		AddedTip:                 bill.AddedTip,
		DiscountedAmount:         bill.DiscountedAmount,
		OriginalGrandTotal:       bill.OriginalGrandTotal,
		DiscountedGrandTotal:     bill.DiscountedGrandTotal,
		SubTotal:                 bill.SubTotal,
		DeliveryChargePerDay:     bill.DeliveryChargePerDay,
	}
}

func encodeOrderDetail(detail domain.OrderDetail) deliveryDetailDocument {
	return deliveryDetailDocument{
		PickupLocation:   encodeLocation(detail.PickupLocation),
		PickupAddress:    encodeAddress(detail.PickupAddress),
		DeliveryLocation: encodeLocation(detail.DeliveryLocation),
		DeliveryAddress:  encodeAddress(detail.DeliveryAddress),
		DeliveryMode:     string(detail.DeliveryMode),
		DeliveryOption:   string(detail.DeliveryOption),
		Schedule:         encodeSchedule(detail.Schedule),
		Instructions:     detail.Instructions,
		VehicleType:      detail.VehicleType,
		GeofenceID:       detail.GeofenceID,
		DistanceKm:       detail.DistanceKm,
		DurationMinutes:  detail.DurationMinutes,
		DeliveryTime:     detail.DeliveryTime,
	}
}

func encodeCartDetail(detail domain.CartDetail) deliveryDetailDocument {
	return deliveryDetailDocument{
		PickupLocation:   encodeLocation(detail.PickupLocation),
		PickupAddress:    encodeAddress(detail.PickupAddress),
		DeliveryLocation: encodeLocation(detail.DeliveryLocation),
		DeliveryAddress:  encodeAddress(detail.DeliveryAddress),
		DeliveryMode:     string(detail.DeliveryMode),
		DeliveryOption:   string(detail.DeliveryOption),
		Schedule:         encodeSchedule(detail.Schedule),
		Instructions:     detail.Instructions,
		VehicleType:      detail.VehicleType,
		GeofenceID:       detail.GeofenceID,
		DistanceKm:       detail.DistanceKm,
		DurationMinutes:  detail.DurationMinutes,
	}
}

// --- decoders ---------------------------------------------------------------

func decodeLocation(doc *locationDocument) *domain.Location {
	if doc == nil {
		return nil
	}
	return &domain.Location{Latitude: doc.Latitude, Longitude: doc.Longitude}
}

func decodeAddress(doc *addressDocument) *domain.Address {
	if doc == nil {
		return nil
	}
	return &domain.Address{
		FullName:  doc.FullName,
		Phone:     doc.Phone,
		Flat:      doc.Flat,
		Area:      doc.Area,
		Landmark:  doc.Landmark,
		AddressID: doc.AddressID,
	}
}

func decodeSchedule(doc *scheduleDocument) *domain.Schedule {
	if doc == nil {
		return nil
	}
	return &domain.Schedule{
		StartDate: doc.StartDate,
		EndDate:   doc.EndDate,
		Time:      doc.Time,
		NumOfDays: doc.NumOfDays,
	}
}

func decodeCartItems(docs []cartItemDocument) []domain.CartItem {
	if len(docs) == 0 {
		return nil
	}
	items := make([]domain.CartItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, domain.CartItem{
			ItemID:     doc.ItemID,
			ProductID:  doc.ProductID,
			ItemName:   doc.ItemName,
			Quantity:   doc.Quantity,
			Price:      doc.Price,
			VariantID:  doc.VariantID,
			WeightKg:   doc.WeightKg,
			TotalPrice: doc.TotalPrice,
		})
	}
	return items
}

func decodeBillDetail(doc billDetailDocument) domain.BillDetail {
	return domain.BillDetail{
		ItemTotal:                doc.ItemTotal,
		OriginalDeliveryCharge:   doc.OriginalDeliveryCharge,
		DiscountedDeliveryCharge: doc.DiscountedDeliveryCharge,
		SurgePrice:               doc.SurgePrice,
		TaxAmount:                doc.TaxAmount,
		AddedTip:                 doc.AddedTip,
		DiscountedAmount:         doc.DiscountedAmount,
		OriginalGrandTotal:       doc.OriginalGrandTotal,
		DiscountedGrandTotal:     doc.DiscountedGrandTotal,
		SubTotal:                 doc.SubTotal,
		DeliveryChargePerDay:     doc.DeliveryChargePerDay,
	}
}

func decodeOrderDetail(doc deliveryDetailDocument) domain.OrderDetail {
	return domain.OrderDetail{
		PickupLocation:   decodeLocation(doc.PickupLocation),
		PickupAddress:    decodeAddress(doc.PickupAddress),
		DeliveryLocation: decodeLocation(doc.DeliveryLocation),
		DeliveryAddress:  decodeAddress(doc.DeliveryAddress),
		DeliveryMode:     domain.DeliveryMode(doc.DeliveryMode),
		DeliveryOption:   domain.DeliveryOption(doc.DeliveryOption),
		Schedule:         decodeSchedule(doc.Schedule),
		Instructions:     doc.Instructions,
		VehicleType:      doc.VehicleType,
		GeofenceID:       doc.GeofenceID,
		DistanceKm:       doc.DistanceKm,
		DurationMinutes:  doc.DurationMinutes,
		DeliveryTime:     doc.DeliveryTime,
	}
}

func decodeCartDetail(doc deliveryDetailDocument) domain.CartDetail {
	return domain.CartDetail{
		PickupLocation:   decodeLocation(doc.PickupLocation),
		PickupAddress:    decodeAddress(doc.PickupAddress),
		DeliveryLocation: decodeLocation(doc.DeliveryLocation),
		DeliveryAddress:  decodeAddress(doc.DeliveryAddress),
		DeliveryMode:     domain.DeliveryMode(doc.DeliveryMode),
		DeliveryOption:   domain.DeliveryOption(doc.DeliveryOption),
		Schedule:         decodeSchedule(doc.Schedule),
		Instructions:     doc.Instructions,
		VehicleType:      doc.VehicleType,
		GeofenceID:       doc.GeofenceID,
		DistanceKm:       doc.DistanceKm,
		DurationMinutes:  doc.DurationMinutes,
	}
}
