package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/famto/api/internal/services"
)

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body too large")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxCartBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseRFC3339(value string) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, time.RFC3339}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", value)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func cloneStringPointer(value *string) *string {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}

func parseFilterValues(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; ok {
				continue
			}
			seen[trimmed] = struct{}{}
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Shared wire shapes -------------------------------------------------------

type locationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type addressPayload struct {
	FullName  string  `json:"full_name,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Flat      string  `json:"flat,omitempty"`
	Area      string  `json:"area,omitempty"`
	Landmark  string  `json:"landmark,omitempty"`
	AddressID *string `json:"address_id,omitempty"`
}

type schedulePayload struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Time      string `json:"time"`
	NumOfDays int    `json:"num_of_days,omitempty"`
}

type billDetailPayload struct {
	ItemTotal                float64  `json:"item_total"`
	OriginalDeliveryCharge   float64  `json:"original_delivery_charge"`
	DiscountedDeliveryCharge *float64 `json:"discounted_delivery_charge,omitempty"`
	SurgePrice               float64  `json:"surge_price,omitempty"`
	TaxAmount                float64  `json:"tax_amount"`
	AddedTip                 float64  `json:"added_tip,omitempty"`
	DiscountedAmount         *float64 `json:"discounted_amount,omitempty"`
	OriginalGrandTotal       float64  `json:"original_grand_total"`
	DiscountedGrandTotal     *float64 `json:"discounted_grand_total,omitempty"`
	SubTotal                 float64  `json:"sub_total"`
	DeliveryChargePerDay     *float64 `json:"delivery_charge_per_day,omitempty"`
}

func buildLocationPayload(loc *services.Location) *locationPayload {
	if loc == nil {
		return nil
	}
	return &locationPayload{Latitude: loc.Latitude, Longitude: loc.Longitude}
}

func buildAddressPayload(addr *services.Address) *addressPayload {
	if addr == nil {
		return nil
	}
	return &addressPayload{
		FullName:  strings.TrimSpace(addr.FullName),
		Phone:     strings.TrimSpace(addr.Phone),
		Flat:      strings.TrimSpace(addr.Flat),
		Area:      strings.TrimSpace(addr.Area),
		Landmark:  strings.TrimSpace(addr.Landmark),
		AddressID: cloneStringPointer(addr.AddressID),
	}
}

func buildSchedulePayload(schedule *services.Schedule) *schedulePayload {
	if schedule == nil {
		return nil
	}
	return &schedulePayload{
		StartDate: formatTime(schedule.StartDate),
		EndDate:   formatTime(schedule.EndDate),
		Time:      formatTime(schedule.Time),
		NumOfDays: schedule.NumOfDays,
	}
}

func buildBillDetailPayload(bill services.BillDetail) billDetailPayload {
	return billDetailPayload{
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

func parseLocation(raw *locationPayload) *services.Location {
	if raw == nil {
		return nil
	}
	return &services.Location{Latitude: raw.Latitude, Longitude: raw.Longitude}
}

func parseAddress(raw *addressPayload) *services.Address {
	if raw == nil {
		return nil
	}
	return &services.Address{
		FullName:  strings.TrimSpace(raw.FullName),
		Phone:     strings.TrimSpace(raw.Phone),
		Flat:      strings.TrimSpace(raw.Flat),
		Area:      strings.TrimSpace(raw.Area),
		Landmark:  strings.TrimSpace(raw.Landmark),
		AddressID: cloneStringPointer(raw.AddressID),
	}
}

func parseSchedule(raw *schedulePayload) (*services.Schedule, error) {
	if raw == nil {
		return nil, nil
	}
	start, err := parseRFC3339(strings.TrimSpace(raw.StartDate))
	if err != nil {
		return nil, fmt.Errorf("start_date must be RFC3339 timestamp: %w", err)
	}
	end, err := parseRFC3339(strings.TrimSpace(raw.EndDate))
	if err != nil {
		return nil, fmt.Errorf("end_date must be RFC3339 timestamp: %w", err)
	}
	at, err := parseRFC3339(strings.TrimSpace(raw.Time))
	if err != nil {
		return nil, fmt.Errorf("time must be RFC3339 timestamp: %w", err)
	}
	return &services.Schedule{StartDate: start, EndDate: end, Time: at, NumOfDays: raw.NumOfDays}, nil
}
