package budget

import (
	"testing"

	"github.com/blkchain/xcoin/xcoin"
)

func Test_InitialDistribution_RampEndpoints(t *testing.T) {
	at0 := InitialDistribution(0)
	want0 := xcoin.NewAmount(xcoin.TitheAmount + xcoin.InitialSubsidy)
	if at0.Cmp(want0) != 0 {
		t.Fatalf("InitialDistribution(0) = %s, want %s", at0, want0)
	}

	atEq := InitialDistribution(xcoin.EqHeight)
	if atEq.Sign() != 0 {
		t.Fatalf("InitialDistribution(EqHeight) = %s, want 0", atEq)
	}

	pastEq := InitialDistribution(xcoin.EqHeight + 1000)
	if pastEq.Sign() != 0 {
		t.Fatalf("InitialDistribution(past EqHeight) = %s, want 0", pastEq)
	}
}

func Test_InitialDistribution_Monotonic(t *testing.T) {
	prev := InitialDistribution(0)
	for h := uint32(1000); h < xcoin.EqHeight; h += 500_000 {
		cur := InitialDistribution(h)
		if cur.Cmp(prev) > 0 {
			t.Fatalf("InitialDistribution not monotonically non-increasing at height %d", h)
		}
		prev = cur
	}
}

func Test_RecipientAt_IndexBounds(t *testing.T) {
	idx0 := RecipientIndex(0)
	if idx0 != 0 {
		t.Fatalf("RecipientIndex(0) = %d, want 0", idx0)
	}
	idxEnd := RecipientIndex(xcoin.EqHeight - 1)
	if idxEnd != scheduleSize-1 {
		t.Fatalf("RecipientIndex(EqHeight-1) = %d, want %d", idxEnd, scheduleSize-1)
	}
	idxPast := RecipientIndex(xcoin.EqHeight + 1_000_000)
	if idxPast != scheduleSize-1 {
		t.Fatalf("RecipientIndex clamps past EqHeight, got %d", idxPast)
	}
}

func Test_VerifyBudget_RejectsMissingRecipient(t *testing.T) {
	h := uint32(100)
	b := InitialDistributionBudget(xcoin.MainNet, h)
	total := InitialDistribution(h)

	ledger := PaymentLedger{}
	if err := VerifyBudget(b, total, ledger); err == nil {
		t.Fatalf("expected VerifyBudget to reject an empty ledger")
	}
}

func Test_VerifyBudget_AcceptsExactPayment(t *testing.T) {
	h := uint32(100)
	b := InitialDistributionBudget(xcoin.MainNet, h)
	total := InitialDistribution(h)

	required := Apply(b, total)
	ledger := PaymentLedger{}
	for dest, amt := range required {
		ledger.Credit([]byte(dest), amt)
	}
	if err := VerifyBudget(b, total, ledger); err != nil {
		t.Fatalf("VerifyBudget rejected exact payment: %v", err)
	}
}

func Test_VerifyBudget_AllowsSurplus(t *testing.T) {
	h := uint32(100)
	b := InitialDistributionBudget(xcoin.MainNet, h)
	total := InitialDistribution(h)

	required := Apply(b, total)
	ledger := PaymentLedger{}
	for dest, amt := range required {
		ledger.Credit([]byte(dest), amt.Add(xcoin.NewAmount(1000)))
	}
	if err := VerifyBudget(b, total, ledger); err != nil {
		t.Fatalf("VerifyBudget rejected a surplus payment: %v", err)
	}
}

func Test_BlockValue_IncludesFees(t *testing.T) {
	fees := xcoin.NewAmount(500)
	withFees := BlockValue(1000, fees)
	withoutFees := BlockValue(1000, xcoin.Zero())
	if withFees.Sub(withoutFees).Cmp(fees) != 0 {
		t.Fatalf("BlockValue did not add fees exactly")
	}
}

func Test_RecipientAt_SharedAcrossNetworks(t *testing.T) {
	if string(RecipientAt(xcoin.MainNet, 0)) != string(RecipientAt(xcoin.TestNet, 0)) {
		t.Fatalf("MainNet and TestNet must share the same mandated schedule")
	}
}
