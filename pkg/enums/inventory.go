package enums

import (
	"fmt"
	"strings"
)

// InventoryStatus is derived from quantity vs. the low-stock threshold.
type InventoryStatus string

const (
	InventoryStatusInStock    InventoryStatus = "IN_STOCK"
	InventoryStatusLowStock   InventoryStatus = "LOW_STOCK"
	InventoryStatusOutOfStock InventoryStatus = "OUT_OF_STOCK"
)

// String implements fmt.Stringer.
func (s InventoryStatus) String() string {
	return string(s)
}

// InventoryStatusFor derives the status from the current quantity and
// low-stock threshold.
func InventoryStatusFor(quantity, lowStockThreshold int) InventoryStatus {
	switch {
	case quantity <= 0:
		return InventoryStatusOutOfStock
	case quantity <= lowStockThreshold:
		return InventoryStatusLowStock
	default:
		return InventoryStatusInStock
	}
}

// InventoryLogReason records why an inventory adjustment happened.
type InventoryLogReason string

const (
	InventoryReasonSale       InventoryLogReason = "sale"
	InventoryReasonRestock    InventoryLogReason = "restock"
	InventoryReasonAdjustment InventoryLogReason = "adjustment"
	InventoryReasonReturn     InventoryLogReason = "return"
)

// IsValid reports whether the value is a known adjustment reason.
func (r InventoryLogReason) IsValid() bool {
	switch r {
	case InventoryReasonSale, InventoryReasonRestock, InventoryReasonAdjustment, InventoryReasonReturn:
		return true
	default:
		return false
	}
}

// ParseInventoryLogReason converts raw input into an InventoryLogReason.
func ParseInventoryLogReason(value string) (InventoryLogReason, error) {
	reason := InventoryLogReason(strings.ToLower(strings.TrimSpace(value)))
	if !reason.IsValid() {
		return "", fmt.Errorf("invalid inventory log reason %q", value)
	}
	return reason, nil
}
