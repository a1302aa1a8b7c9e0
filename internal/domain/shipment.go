package domain

import (
	"fmt"
	"math"
	"strings"
)

// Carrier used for a shipment
type Carrier string

const (
	CarrierUPS    Carrier = "UPS"
	CarrierFedEx  Carrier = "FedEx"
	CarrierUSPS   Carrier = "USPS"
	CarrierDHL    Carrier = "DHL"
	CarrierPickup Carrier = "Pickup"
)

// IsValid reports whether c is a supported carrier
func (c Carrier) IsValid() bool {
	switch c {
	case CarrierUPS, CarrierFedEx, CarrierUSPS, CarrierDHL, CarrierPickup:
		return true
	}
	return false
}

// BoxType is the packaging used for a box
type BoxType string

const (
	BoxBag   BoxType = "Bag"
	BoxSmall BoxType = "Small"
	BoxLarge BoxType = "Large"
	BoxXL    BoxType = "XL"
)

// IsValid reports whether t is a known box type
func (t BoxType) IsValid() bool {
	switch t {
	case BoxBag, BoxSmall, BoxLarge, BoxXL:
		return true
	}
	return false
}

// Equivalent returns the box-equivalent volume of one box of type t
func (t BoxType) Equivalent() float64 {
	if t == BoxBag {
		return 0.25
	}
	return 1.0
}

// Packing capacities in units per box
const (
	ShirtsPerBox  = 72
	HoodiesPerBox = 18
)

var serviceLevels = map[Carrier][]string{
	CarrierUPS:    {"ups_ground", "ups_2day", "ups_next_day_air"},
	CarrierFedEx:  {"fedex_ground", "fedex_2day"},
	CarrierUSPS:   {"usps_priority"},
	CarrierDHL:    {"dhl_express"},
	CarrierPickup: {"pickup_local"},
}

// ServiceLevels returns the service levels offered by c
func ServiceLevels(c Carrier) []string {
	return serviceLevels[c]
}

// Box is one package in a shipment plan. Weight is in pounds.
type Box struct {
	Type           BoxType `json:"type"`
	Weight         float64 `json:"weight"`
	ServiceLevel   string  `json:"serviceLevel,omitempty"`
	TrackingNumber string  `json:"trackingNumber,omitempty"`
	LabelURL       string  `json:"labelUrl,omitempty"`
	LabelGenerated bool    `json:"labelGenerated"`
}

// HasLabel reports whether the box carries a tracking number backed by a
// label, either generated here or attached by reference
func (b Box) HasLabel() bool {
	return b.TrackingNumber != "" && (b.LabelGenerated || b.LabelURL != "")
}

// PickupSignature is captured when the customer collects the order
type PickupSignature struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Strokes   string `json:"strokes"`
}

// Complete reports whether names and trace are present
func (s *PickupSignature) Complete() bool {
	return s != nil &&
		strings.TrimSpace(s.FirstName) != "" &&
		strings.TrimSpace(s.LastName) != "" &&
		strings.TrimSpace(s.Strokes) != ""
}

// ShipmentPlan is built on the shipping screen and only lives until it is confirmed
type ShipmentPlan struct {
	JobID           string           `json:"jobId"`
	Carrier         Carrier          `json:"carrier"`
	Boxes           []Box            `json:"boxes"`
	TrackingNumber  string           `json:"trackingNumber,omitempty"`
	PickupSignature *PickupSignature `json:"pickupSignature,omitempty"`
}

// PackingEstimate summarises unit classification for a job
type PackingEstimate struct {
	ShirtUnits           int `json:"shirtUnits"`
	HoodieUnits          int `json:"hoodieUnits"`
	EstimatedBoxesNeeded int `json:"estimatedBoxesNeeded"`
}

// EstimatePacking classifies line items and estimates the boxes needed
func EstimatePacking(items []LineItem) PackingEstimate {
	var est PackingEstimate
	for _, item := range items {
		if item.IsHoodie() {
			est.HoodieUnits += item.Quantity
		} else {
			est.ShirtUnits += item.Quantity
		}
	}
	est.EstimatedBoxesNeeded = ceilDiv(est.ShirtUnits, ShirtsPerBox) + ceilDiv(est.HoodieUnits, HoodiesPerBox)
	if est.EstimatedBoxesNeeded < 1 {
		est.EstimatedBoxesNeeded = 1
	}
	return est
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// BoxEquivalent sums the box-equivalent volume of boxes
func BoxEquivalent(boxes []Box) float64 {
	total := 0.0
	for _, b := range boxes {
		total += b.Type.Equivalent()
	}
	return total
}

// ValidatePacking checks plan against the job's line items. It returns one of
// ErrNoBoxes, ErrLabelsMissing, ErrPackingMismatch, ErrSignatureRequired or a
// validation error.
func ValidatePacking(plan ShipmentPlan, items []LineItem) error {
	if !plan.Carrier.IsValid() {
		return NewValidationError("carrier", fmt.Sprintf("unsupported carrier %q", plan.Carrier))
	}
	for i, box := range plan.Boxes {
		if !box.Type.IsValid() {
			return NewValidationError(fmt.Sprintf("boxes[%d].type", i), fmt.Sprintf("unknown box type %q", box.Type))
		}
		if box.Weight < 0 {
			return NewValidationError(fmt.Sprintf("boxes[%d].weight", i), "weight must not be negative")
		}
		if box.ServiceLevel != "" && !offersServiceLevel(plan.Carrier, box.ServiceLevel) {
			return NewValidationError(fmt.Sprintf("boxes[%d].serviceLevel", i),
				fmt.Sprintf("%s does not offer %s", plan.Carrier, box.ServiceLevel))
		}
	}

	if plan.Carrier == CarrierPickup {
		if !plan.PickupSignature.Complete() {
			return ErrSignatureRequired
		}
		return nil
	}

	if len(plan.Boxes) == 0 {
		return ErrNoBoxes
	}
	for _, box := range plan.Boxes {
		if !box.HasLabel() {
			return ErrLabelsMissing
		}
	}

	est := EstimatePacking(items)
	if equivalent := BoxEquivalent(plan.Boxes); equivalent < float64(est.EstimatedBoxesNeeded) {
		return fmt.Errorf("%w: %d boxes needed, %s packed",
			ErrPackingMismatch, est.EstimatedBoxesNeeded, formatEquivalent(equivalent))
	}
	return nil
}

func offersServiceLevel(c Carrier, level string) bool {
	for _, l := range serviceLevels[c] {
		if l == level {
			return true
		}
	}
	return false
}

func formatEquivalent(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// PrimaryTrackingNumber returns the first labelled box's tracking number,
// falling back to the plan level number
func (p ShipmentPlan) PrimaryTrackingNumber() string {
	for _, b := range p.Boxes {
		if b.HasLabel() {
			return b.TrackingNumber
		}
	}
	return p.TrackingNumber
}

// TotalWeight sums box weights
func (p ShipmentPlan) TotalWeight() float64 {
	total := 0.0
	for _, b := range p.Boxes {
		total += b.Weight
	}
	return total
}
