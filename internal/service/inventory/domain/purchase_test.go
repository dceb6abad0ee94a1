package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewPurchase(t *testing.T) {
	p, err := NewPurchase(3, 4, "2024-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ProductID != 3 || p.Quantity != 4 {
		t.Fatalf("unexpected purchase: %+v", p)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !p.PurchaseDate.Equal(want) {
		t.Fatalf("expected %v, got %v", want, p.PurchaseDate)
	}
}

func TestNewPurchaseValidation(t *testing.T) {
	cases := []struct {
		name      string
		productID int64
		quantity  int
		date      string
		wantErr   error
	}{
		{"zero product id", 0, 1, "2024-01-01", ErrProductNotFound},
		{"negative product id", -1, 1, "2024-01-01", ErrProductNotFound},
		{"zero quantity", 1, 0, "2024-01-01", ErrInvalidQuantity},
		{"negative quantity", 1, -5, "2024-01-01", ErrInvalidQuantity},
		{"empty date", 1, 1, "", ErrInvalidDate},
		{"malformed date", 1, 1, "01/02/2024", ErrInvalidDate},
		{"datetime instead of date", 1, 1, "2024-01-01T10:00:00Z", ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewPurchase(tc.productID, tc.quantity, tc.date); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("  Balon  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Balon" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}

	if _, err := NewProduct("   "); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}
