package core

import "testing"

func TestEncodeDecodeCurrencyParamsRoundTrip(t *testing.T) {
	p := DefaultCurrencyParams()
	raw, err := EncodeCurrencyParams("g1-test", p)
	if err != nil {
		t.Fatalf("EncodeCurrencyParams: %v", err)
	}
	name, got, err := DecodeCurrencyParams(raw)
	if err != nil {
		t.Fatalf("DecodeCurrencyParams: %v", err)
	}
	if name != "g1-test" {
		t.Fatalf("currency name = %q, want g1-test", name)
	}
	if got != p {
		t.Fatalf("decoded params = %+v, want %+v", got, p)
	}
}

func TestApplyCurrencyOverridesG1Test(t *testing.T) {
	p := ApplyCurrencyOverrides(DefaultCurrencyParams(), "g1-test")
	if p.SigRenewPeriod != 5259600/5 {
		t.Fatalf("g1-test SigRenewPeriod = %d, want %d", p.SigRenewPeriod, 5259600/5)
	}
	if p.MsPeriod != 5259600/5 {
		t.Fatalf("g1-test MsPeriod = %d, want %d", p.MsPeriod, 5259600/5)
	}
}

func TestApplyCurrencyOverridesUnknownCurrencyUnchanged(t *testing.T) {
	base := DefaultCurrencyParams()
	p := ApplyCurrencyOverrides(base, "some-other-currency")
	if p != base {
		t.Fatalf("an unrecognised currency name should leave params unchanged")
	}
}

func TestMaxConnectivity(t *testing.T) {
	p := DefaultCurrencyParams()
	want := 1.0 / p.XPercent
	if got := p.MaxConnectivity(); got != want {
		t.Fatalf("MaxConnectivity() = %v, want %v", got, want)
	}
}

func TestMaxConnectivityZeroXPercent(t *testing.T) {
	p := CurrencyParams{XPercent: 0}
	if got := p.MaxConnectivity(); got != 0 {
		t.Fatalf("MaxConnectivity() with XPercent=0 = %v, want 0", got)
	}
}

func TestCanonicalLineIsNonEmpty(t *testing.T) {
	p := DefaultCurrencyParams()
	line := p.CanonicalLine()
	if line == "" {
		t.Fatalf("CanonicalLine() should not be empty")
	}
}
