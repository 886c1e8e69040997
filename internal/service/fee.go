package service

import "github.com/shopspring/decimal"

const bpsDenominator = 10000

// SplitFee divides an amount into the payee's share and the platform fee.
// The payee share is rounded down, so the fee absorbs any remainder and the
// two parts always sum to amount.
func SplitFee(amount, feeBps int64) (net, fee int64) {
	if amount <= 0 || feeBps <= 0 {
		return amount, 0
	}
	if feeBps >= bpsDenominator {
		return 0, amount
	}
	share := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(bpsDenominator - feeBps)).
		Div(decimal.NewFromInt(bpsDenominator)).
		Floor()
	net = share.IntPart()
	return net, amount - net
}
