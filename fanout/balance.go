package fanout

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-wallet-query/querycache"
)

// ZeroBalance is the neutral balance.
const ZeroBalance = "0"

// SumBalances adds decimal balance strings exactly. Empty strings mean the
// balance is unknown for that shard and contribute nothing. With no known
// balance the result is ZeroBalance; otherwise the sum keeps the widest
// fractional scale of its inputs, so "1.5" + "2.5" is "4.0". Hex integers
// prefixed with 0x are accepted.
func SumBalances(balances []string) (string, error) {
	sum := decimal.Zero
	scale := int32(0)
	counted := 0
	for i, raw := range balances {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := ParseBalance(raw)
		if err != nil {
			return "", querycache.NewValidationError(fmt.Sprintf("balance %d is not a number: %q", i, raw))
		}
		if s := -d.Exponent(); s > scale {
			scale = s
		}
		sum = sum.Add(d)
		counted++
	}
	if counted == 0 {
		return ZeroBalance, nil
	}
	return sum.StringFixed(scale), nil
}

// ParseBalance reads a decimal or 0x-prefixed hex balance.
func ParseBalance(raw string) (decimal.Decimal, error) {
	if hex, ok := strings.CutPrefix(strings.ToLower(raw), "0x"); ok {
		n, ok := new(big.Int).SetString(hex, 16)
		if !ok {
			return decimal.Zero, fmt.Errorf("invalid hex balance %q", raw)
		}
		return decimal.NewFromBigInt(n, 0), nil
	}
	return decimal.NewFromString(raw)
}

// Sum is an Aggregate combine func for balance strings.
func Sum(acc, v string) (string, error) {
	return SumBalances([]string{acc, v})
}
