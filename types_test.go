package papaya

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestCycleSeconds(t *testing.T) {
	tests := []struct {
		cycle Cycle
		want  int64
	}{
		{CycleDaily, 86_400},
		{CycleWeekly, 604_800},
		{CycleMonthly, 2_592_000},
		{CycleYearly, 31_536_000},
		{CycleUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.cycle.String(), func(t *testing.T) {
			if got := tt.cycle.Seconds(); got != tt.want {
				t.Errorf("Seconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseCycle(t *testing.T) {
	for _, cycle := range []Cycle{CycleDaily, CycleWeekly, CycleMonthly, CycleYearly} {
		got, err := ParseCycle(cycle.String())
		if err != nil {
			t.Fatalf("ParseCycle(%q) error = %v", cycle, err)
		}
		if got != cycle {
			t.Errorf("ParseCycle(%q) = %v, want %v", cycle, got, cycle)
		}
	}

	if _, err := ParseCycle("fortnightly"); !errors.Is(err, ErrInvalidCycle) {
		t.Errorf("ParseCycle(fortnightly) error = %v, want ErrInvalidCycle", err)
	}
}

func TestSubscriptionDetailsJSON(t *testing.T) {
	details := SubscriptionDetails{
		Author:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Cost:        "1.5",
		Cycle:       CycleMonthly,
		TokenSymbol: "USDC",
	}

	data, err := json.Marshal(details)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var restored SubscriptionDetails
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if restored != details {
		t.Errorf("round trip = %+v, want %+v", restored, details)
	}
}

func TestCostTokenUnits(t *testing.T) {
	usdc := TokenDescriptor{Symbol: "USDC", Scale: 1_000_000}

	tests := []struct {
		name    string
		cost    string
		want    *big.Int
		wantErr error
	}{
		{name: "whole", cost: "1", want: big.NewInt(1_000_000)},
		{name: "fractional", cost: "1.5", want: big.NewInt(1_500_000)},
		{name: "full precision", cost: "0.000001", want: big.NewInt(1)},
		{name: "excess precision", cost: "0.0000001", wantErr: ErrInvalidAmount},
		{name: "zero", cost: "0", wantErr: ErrInvalidAmount},
		{name: "negative", cost: "-1", wantErr: ErrInvalidAmount},
		{name: "garbage", cost: "one", wantErr: ErrInvalidAmount},
		{name: "empty", cost: "", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := SubscriptionDetails{Cost: tt.cost}
			got, err := details.CostTokenUnits(usdc)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CostTokenUnits() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CostTokenUnits() error = %v", err)
			}
			if got.Cmp(tt.want) != 0 {
				t.Errorf("CostTokenUnits() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAmountConversion(t *testing.T) {
	t.Run("to big int", func(t *testing.T) {
		got, err := AmountToBigInt("1.5", 1_000_000)
		if err != nil {
			t.Fatalf("AmountToBigInt() error = %v", err)
		}
		if got.Cmp(big.NewInt(1_500_000)) != 0 {
			t.Errorf("AmountToBigInt() = %s, want 1500000", got)
		}
	})

	t.Run("to string", func(t *testing.T) {
		if got := BigIntToAmount(big.NewInt(1_500_000), 1_000_000); got != "1.5" {
			t.Errorf("BigIntToAmount() = %q, want %q", got, "1.5")
		}
	})

	t.Run("nil to string", func(t *testing.T) {
		if got := BigIntToAmount(nil, 1_000_000); got != "0" {
			t.Errorf("BigIntToAmount(nil) = %q, want %q", got, "0")
		}
	})
}
