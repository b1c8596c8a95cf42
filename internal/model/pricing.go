package model

// PricingLine 單一參加者的計價結果
type PricingLine struct {
	ParticipantIndex int      `json:"participant_index"`
	Age              int      `json:"age"`
	Category         Category `json:"category"`
	UnitPrice        float64  `json:"unit_price"`
}

// PricingBreakdown 報價明細，每次參加者變動都整份重算，不做局部修改
type PricingBreakdown struct {
	Lines              []PricingLine `json:"lines"`
	Subtotal           float64       `json:"subtotal"`
	DiscountRate       float64       `json:"discount_rate"`
	DiscountAmount     float64       `json:"discount_amount"`
	DiscountedSubtotal float64       `json:"discounted_subtotal"`
	TaxAmount          float64       `json:"tax_amount"`
	Total              float64       `json:"total"`
	Currency           string        `json:"currency"`
}
