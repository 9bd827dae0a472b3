package xcoin

import "testing"

func Test_PresentValue_ZeroDepth(t *testing.T) {
	v := NewAmount(100 * COIN)
	pv := PresentValue(v, 0)
	if pv.ToBaseUnits() != 100*COIN {
		t.Fatalf("PresentValue(v, 0) = %d, want %d", pv.ToBaseUnits(), 100*COIN)
	}
}

func Test_PresentValue_Decays(t *testing.T) {
	v := NewAmount(1_000_000 * COIN)
	pv := PresentValue(v, 1)
	if pv.Cmp(v) >= 0 {
		t.Fatalf("PresentValue(v, 1) = %s, want strictly less than %s", pv, v)
	}
	if pv.Sign() <= 0 {
		t.Fatalf("PresentValue(v, 1) = %s, want positive", pv)
	}
}

func Test_PresentValue_Composes(t *testing.T) {
	// present_value(v, a+b) == present_value(present_value(v, a), b)
	v := NewAmount(7_000_000_000 * COIN)
	direct := PresentValue(v, 300)
	composed := PresentValue(PresentValue(v, 100), 200)
	if direct.Rat().Cmp(composed.Rat()) != 0 {
		t.Fatalf("present value does not compose: direct=%s composed=%s", direct, composed)
	}
}

func Test_PresentValue_MonotonicDecreasing(t *testing.T) {
	v := NewAmount(50 * COIN)
	prev := v
	for depth := int64(1); depth <= 2000; depth += 97 {
		cur := PresentValue(v, depth)
		if cur.Cmp(prev) > 0 {
			t.Fatalf("present value increased between depths: depth=%d prev=%s cur=%s", depth, prev, cur)
		}
		prev = cur
	}
}

func Test_Amount_AddSub(t *testing.T) {
	a := NewAmount(300)
	b := NewAmount(100)
	if got := a.Add(b).ToBaseUnits(); got != 400 {
		t.Fatalf("Add = %d, want 400", got)
	}
	if got := a.Sub(b).ToBaseUnits(); got != 200 {
		t.Fatalf("Sub = %d, want 200", got)
	}
}

func Test_Amount_ToBaseUnits_RoundsDown(t *testing.T) {
	// 1 base unit decayed a single block should round down, never up,
	// so that a chain of present_value calls can never manufacture value.
	v := NewAmount(1)
	pv := PresentValue(v, 1)
	if pv.ToBaseUnits() != 0 {
		t.Fatalf("ToBaseUnits() = %d, want 0", pv.ToBaseUnits())
	}
}

func Test_Zero_IsAdditiveIdentity(t *testing.T) {
	v := NewAmount(12345)
	if v.Add(Zero()).Cmp(v) != 0 {
		t.Fatalf("v + Zero() != v")
	}
}
