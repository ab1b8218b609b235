package storage

import "testing"

func TestBuildDeliveryProofPath(t *testing.T) {
	path, err := BuildObjectPath(PurposeDeliveryProof, PathParams{
		OrderID:  "FMT-2025-000123",
		FileName: "proof-1.jpg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "uploads/orders/FMT-2025-000123/delivery-proof/proof-1.jpg"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildDeliveryProofPathWithoutOrder(t *testing.T) {
	path, err := BuildObjectPath(PurposeDeliveryProof, PathParams{
		FileName: "proof-1.jpg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "uploads/delivery-proof/proof-1.jpg"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildMerchantLogoPath(t *testing.T) {
	path, err := BuildObjectPath(PurposeMerchantLogo, PathParams{
		MerchantID: "mer_123",
		FileName:   "logo.png",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "uploads/merchants/mer_123/logo/logo.png"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildObjectPathRejectsInvalidSegment(t *testing.T) {
	_, err := BuildObjectPath(PurposeDeliveryProof, PathParams{
		OrderID:  "../bad",
		FileName: "file.png",
	})
	if err == nil {
		t.Fatalf("expected error for invalid segment")
	}
}

func TestBuildObjectPathRejectsTraversalFileName(t *testing.T) {
	_, err := BuildObjectPath(PurposePromotionBanner, PathParams{
		FileName: "..evil.png/..",
	})
	if err == nil {
		t.Fatalf("expected error for traversal file name")
	}
}
