package invoice

import (
	"strings"
)

// TaxRegime is the mutually exclusive choice between the split (CGST+SGST)
// and the unified (IGST) rate fields for a whole invoice.
type TaxRegime int

const (
	// RegimeUnified applies to cross-jurisdiction supplies (IGST).
	RegimeUnified TaxRegime = iota
	// RegimeSplit applies to same-jurisdiction supplies (CGST + SGST).
	RegimeSplit
)

func (r TaxRegime) String() string {
	if r == RegimeSplit {
		return "CGST_SGST"
	}
	return "IGST"
}

// DefaultStatePrefix is the GSTIN state code treated as "same state".
const DefaultStatePrefix = "27"

// ItemInput is a line item as submitted by a client, before normalization.
// Rate fields are pointers so that "absent" and "zero" can be told apart.
type ItemInput struct {
	ProductName string   `json:"product_name" validate:"required"`
	Description string   `json:"description"`
	HSNSAC      string   `json:"hsn_sac"`
	Quantity    float64  `json:"quantity" validate:"gte=0"`
	UnitPrice   float64  `json:"unit_price" validate:"gte=0"`
	CGSTRate    *float64 `json:"cgst_rate,omitempty" validate:"omitempty,gte=0"`
	SGSTRate    *float64 `json:"sgst_rate,omitempty" validate:"omitempty,gte=0"`
	IGSTRate    *float64 `json:"igst_rate,omitempty" validate:"omitempty,gte=0"`
}

// Normalizer decides the regime from the customer's tax id and rewrites
// every item so that only that regime's fields are populated.
type Normalizer struct {
	StatePrefix string
}

// NewNormalizer returns a Normalizer for the given state prefix,
// falling back to DefaultStatePrefix.
func NewNormalizer(prefix string) Normalizer {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultStatePrefix
	}
	return Normalizer{StatePrefix: prefix}
}

// Regime returns RegimeSplit when taxID carries the home state prefix.
func (n Normalizer) Regime(taxID string) TaxRegime {
	prefix := n.StatePrefix
	if prefix == "" {
		prefix = DefaultStatePrefix
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(taxID)), strings.ToUpper(prefix)) {
		return RegimeSplit
	}
	return RegimeUnified
}

// Normalize converts client items into engine items under one regime.
// Missing split rates are derived by halving the unified rate; a missing
// unified rate is the sum of the split rates. Non-applicable fields are zeroed.
func (n Normalizer) Normalize(items []ItemInput, taxID string) []LineItem {
	regime := n.Regime(taxID)
	out := make([]LineItem, 0, len(items))
	for _, in := range items {
		it := LineItem{
			ProductName: strings.TrimSpace(in.ProductName),
			Description: strings.TrimSpace(in.Description),
			HSNSAC:      strings.TrimSpace(in.HSNSAC),
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
		}
		switch regime {
		case RegimeSplit:
			it.CGSTRate = splitRate(in.CGSTRate, in.IGSTRate)
			it.SGSTRate = splitRate(in.SGSTRate, in.IGSTRate)
		default:
			if in.IGSTRate != nil {
				it.IGSTRate = *in.IGSTRate
			} else {
				it.IGSTRate = deref(in.CGSTRate) + deref(in.SGSTRate)
			}
		}
		out = append(out, it)
	}
	return out
}

func splitRate(own, unified *float64) float64 {
	if own != nil {
		return *own
	}
	return deref(unified) / 2
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ResolveRegime reads the regime off already-normalized items. Items that
// carry no rate at all do not vote; if none vote, fallback is returned.
// An item with both regimes populated, or items disagreeing with each
// other, is a ValidationError.
func ResolveRegime(items []LineItem, fallback TaxRegime) (TaxRegime, error) {
	var (
		found  bool
		regime TaxRegime
	)
	for i, it := range items {
		split := it.CGSTRate != 0 || it.SGSTRate != 0
		unified := it.IGSTRate != 0
		var r TaxRegime
		switch {
		case split && unified:
			return fallback, &ValidationError{Field: itemField(i, "igst_rate"), Reason: "split and unified tax rates are both set"}
		case split:
			r = RegimeSplit
		case unified:
			r = RegimeUnified
		default:
			continue
		}
		if found && r != regime {
			return fallback, &ValidationError{Field: itemField(i, "tax"), Reason: "items mix " + regime.String() + " and " + r.String()}
		}
		found, regime = true, r
	}
	if !found {
		return fallback, nil
	}
	return regime, nil
}
