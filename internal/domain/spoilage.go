package domain

import (
	"fmt"
	"time"
)

// SpoilageReason classifies lost units
type SpoilageReason string

const (
	SpoilageDamaged     SpoilageReason = "Damaged"
	SpoilageMisprint    SpoilageReason = "Misprint"
	SpoilageHoleSpotted SpoilageReason = "Hole Spotted"
	SpoilageMissingItem SpoilageReason = "Missing Item"
	SpoilageOther       SpoilageReason = "Other"
)

// IsValid reports whether r is a known reason
func (r SpoilageReason) IsValid() bool {
	switch r {
	case SpoilageDamaged, SpoilageMisprint, SpoilageHoleSpotted, SpoilageMissingItem, SpoilageOther:
		return true
	}
	return false
}

// SpoilageSource tells where spoilage was reported
type SpoilageSource string

const (
	SpoilageSourceProduction SpoilageSource = "production"
	SpoilageSourceQC         SpoilageSource = "qc"
)

// SpoilageEntry records units lost for one line item variant
type SpoilageEntry struct {
	SKU        string         `bson:"sku" json:"sku"`
	Size       string         `bson:"size" json:"size"`
	Color      string         `bson:"color" json:"color"`
	Quantity   int            `bson:"quantity" json:"quantity"`
	Reason     SpoilageReason `bson:"reason" json:"reason"`
	Notes      string         `bson:"notes,omitempty" json:"notes,omitempty"`
	Source     SpoilageSource `bson:"source,omitempty" json:"source,omitempty"`
	RecordedAt time.Time      `bson:"recordedAt" json:"recordedAt"`
}

// Validate checks the entry on its own
func (e SpoilageEntry) Validate() error {
	if e.SKU == "" {
		return NewValidationError("spoilage.sku", "sku is required")
	}
	if e.Quantity <= 0 {
		return NewValidationError("spoilage.quantity", "quantity must be greater than zero")
	}
	if !e.Reason.IsValid() {
		return NewValidationError("spoilage.reason", fmt.Sprintf("unknown spoilage reason %q", e.Reason))
	}
	return nil
}

// ValidateSpoilage checks every entry and requires its sku, size and color to
// match one of the job's line items
func ValidateSpoilage(entries []SpoilageEntry, items []LineItem) error {
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return err
		}
		if !matchesLineItem(entry, items) {
			return NewValidationError("spoilage",
				fmt.Sprintf("%s/%s/%s is not a line item of this job", entry.SKU, entry.Size, entry.Color))
		}
	}
	return nil
}

func matchesLineItem(entry SpoilageEntry, items []LineItem) bool {
	for _, item := range items {
		if item.SKU == entry.SKU && item.Size == entry.Size && item.Color == entry.Color {
			return true
		}
	}
	return false
}

// TotalSpoiled sums entry quantities
func TotalSpoiled(entries []SpoilageEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}
