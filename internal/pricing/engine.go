// Package pricing 計算行程報價：年齡級距單價、團體折扣與固定稅率 VAT。
package pricing

import (
	"fmt"
	"math"

	"tour-booking/internal/model"
	apperrors "tour-booking/pkg/app_errors"
)

const (
	// ChildPriceRatio child 以基本單價的七折計
	ChildPriceRatio = 0.7

	LargeGroupSize         = 8
	LargeGroupDiscountRate = 0.15
	GroupSize              = 4
	GroupDiscountRate      = 0.10

	// VATRate 單一固定稅率
	VATRate = 0.16
)

// UnitPrice 單一參加者的單價
func UnitPrice(baseUnitPrice float64, age int) float64 {
	switch model.CategoryForAge(age) {
	case model.CategoryInfant:
		return 0
	case model.CategoryChild:
		return ChildPriceRatio * baseUnitPrice
	default:
		return baseUnitPrice
	}
}

// DiscountRate 團體折扣不累加，先判斷較大的門檻
func DiscountRate(participantCount int) float64 {
	if participantCount >= LargeGroupSize {
		return LargeGroupDiscountRate
	}
	if participantCount >= GroupSize {
		return GroupDiscountRate
	}
	return 0
}

// RoundMoney 四捨五入到小數點後兩位
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ComputeBreakdown 依參加者年齡計算報價明細。
// 純函式，不依賴時間或外部狀態；只在最後的 Total 做四捨五入，避免中間值累積誤差。
func ComputeBreakdown(baseUnitPrice float64, ages []int, currency string) (model.PricingBreakdown, error) {
	if len(ages) == 0 {
		return model.PricingBreakdown{}, fmt.Errorf("%w: no participants", apperrors.ErrInvalidRoster)
	}
	if baseUnitPrice < 0 || math.IsNaN(baseUnitPrice) || math.IsInf(baseUnitPrice, 0) {
		return model.PricingBreakdown{}, fmt.Errorf("%w: base unit price %v", apperrors.ErrInvalidRoster, baseUnitPrice)
	}

	lines := make([]model.PricingLine, len(ages))
	subtotal := 0.0
	for i, age := range ages {
		if age < 0 {
			return model.PricingBreakdown{}, fmt.Errorf("%w: participant %d has negative age %d", apperrors.ErrInvalidRoster, i, age)
		}
		unitPrice := UnitPrice(baseUnitPrice, age)
		lines[i] = model.PricingLine{
			ParticipantIndex: i,
			Age:              age,
			Category:         model.CategoryForAge(age),
			UnitPrice:        unitPrice,
		}
		subtotal += unitPrice
	}

	rate := DiscountRate(len(ages))
	discountAmount := subtotal * rate
	discountedSubtotal := subtotal - discountAmount
	taxAmount := discountedSubtotal * VATRate

	return model.PricingBreakdown{
		Lines:              lines,
		Subtotal:           subtotal,
		DiscountRate:       rate,
		DiscountAmount:     discountAmount,
		DiscountedSubtotal: discountedSubtotal,
		TaxAmount:          taxAmount,
		Total:              RoundMoney(discountedSubtotal + taxAmount),
		Currency:           currency,
	}, nil
}

// Quote 以 Participant 清單計價
func Quote(baseUnitPrice float64, participants []model.Participant, currency string) (model.PricingBreakdown, error) {
	return ComputeBreakdown(baseUnitPrice, model.Ages(participants), currency)
}
