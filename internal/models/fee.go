package models

import "github.com/shopspring/decimal"

// FeeLineItem is one row of a fee breakdown.
type FeeLineItem struct {
	Item   string          `json:"item"`
	Amount decimal.Decimal `json:"amount"`
}

// FeeQuote is a computed permit fee.
type FeeQuote struct {
	Breakdown      []FeeLineItem   `json:"feeBreakdown"`
	PermitType     string          `json:"permitType"`
	BaseFee        decimal.Decimal `json:"baseFee"`
	AdditionalFees decimal.Decimal `json:"additionalFees"`
	TotalFee       decimal.Decimal `json:"totalFee"`
}
