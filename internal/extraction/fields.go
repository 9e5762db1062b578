package extraction

import (
	"encoding/hex"
	"math"

	"github.com/google/uuid"
)

// Canonical field names, in evaluation order.
const (
	FieldMerchant = "merchant"
	FieldDate     = "date"
	FieldTotal    = "total"
	FieldCurrency = "currency"
	FieldCategory = "category"
)

// FieldNames lists the canonical fields in their fixed order. Every
// FieldMap carries exactly these keys.
var FieldNames = []string{FieldMerchant, FieldDate, FieldTotal, FieldCurrency, FieldCategory}

// Field is an extracted value with its confidence in [0,1]. An empty
// value means the field was not found; extraction never fails outright.
type Field struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// FieldMap holds one Field per canonical field name.
type FieldMap map[string]Field

// Result is the assembled output of one extraction run.
type Result struct {
	ReceiptID string   `json:"receipt_id"`
	Fields    FieldMap `json:"fields"`
}

// newReceiptID returns a short opaque identifier for one extraction
// run.
func newReceiptID() string {
	id := uuid.New()
	return "r_" + hex.EncodeToString(id[:4])
}

// round2 rounds a confidence to two decimals for presentation and
// clamps it into [0,1].
func round2(c float64) float64 {
	c = math.Round(c*100) / 100
	return math.Max(0, math.Min(c, 1))
}

// Parse turns raw OCR output into the five canonical receipt fields.
// It is total over its inputs: unusable text yields empty values with
// low confidence, never an error.
func Parse(text string, words []Word) Result {
	lines := splitLines(text)

	merchant, merchantConf := findMerchant(lines, words)
	date, dateConf := findDate(text)
	total, totalConf := findTotal(lines)
	currency, currencyConf := findCurrency(text)

	return Result{
		ReceiptID: newReceiptID(),
		Fields: FieldMap{
			FieldMerchant: {Value: merchant, Confidence: round2(merchantConf)},
			FieldDate:     {Value: date, Confidence: round2(dateConf)},
			FieldTotal:    {Value: total, Confidence: round2(totalConf)},
			FieldCurrency: {Value: currency, Confidence: round2(currencyConf)},
			// Category stays user-selected; the placeholder's low
			// confidence forces review.
			FieldCategory: {Value: "Uncategorized", Confidence: 0.2},
		},
	}
}
