package budget

import "testing"

func TestPattern_Match(t *testing.T) {
	testCases := []struct {
		pattern string
		raw     string
		want    bool
	}{
		{"starts_with:PWP*INSTITUTE", "pwp*institute 1234", true},
		{"starts_with:PWP*INSTITUTE", "PAY PWP*INSTITUTE", false},
		{"contains:netflix", "CARD 1234 NETFLIX.COM", true},
		{"netflix", "CARD 1234 NETFLIX.COM", true},
		{"exact:ACME PAYROLL", "acme payroll", true},
		{"exact:ACME PAYROLL", "ACME PAYROLL INC", false},
		{`regex:^SQ \*[A-Z]+ COFFEE$`, "sq *joes coffee", true},
		{`regex:^SQ \*[A-Z]+ COFFEE$`, "SQ *JOES COFFEE SHOP", false},
		{"regex:([", "([", false},
		{"contains:", "anything", false},
		{"unknown:thing", "an unknown:thing here", true},
	}
	for _, tc := range testCases {
		p := ParsePattern(tc.pattern)
		if got := p.Match(tc.raw); got != tc.want {
			t.Errorf("%s.Match(%q) = %v, want %v", p, tc.raw, got, tc.want)
		}
	}
}

func TestMatchPayee(t *testing.T) {
	payees := []Payee{
		{ID: 1, Name: "Netflix", Patterns: []Pattern{ParsePattern("contains:NETFLIX")}, DefaultCategoryID: Int64(10)},
		{ID: 2, Name: "Streaming", Patterns: []Pattern{ParsePattern("contains:NET")}},
	}

	p, ok := MatchPayee(payees, "NETFLIX.COM 866")
	if !ok || p.ID != 1 {
		t.Errorf("MatchPayee() = %v, %v, want Netflix: first match wins", p, ok)
	}
	if _, ok := MatchPayee(payees, "GROCER"); ok {
		t.Error("MatchPayee() matched GROCER")
	}

	tx := ApplyPayee(payees, Transaction{PayeeRaw: "NETFLIX.COM 866", Kind: KindActual})
	if tx.Payee != "Netflix" || tx.CategoryID == nil || *tx.CategoryID != 10 {
		t.Errorf("ApplyPayee() = %q, %v", tx.Payee, tx.CategoryID)
	}
	tx = ApplyPayee(payees, Transaction{PayeeRaw: "NETFLIX.COM 866", Kind: KindActual, CategoryID: Int64(3)})
	if *tx.CategoryID != 3 {
		t.Errorf("ApplyPayee() overrode the category: %v", *tx.CategoryID)
	}
	tx = ApplyPayee(payees, Transaction{PayeeRaw: "NETFLIX.COM 866", Kind: KindTransfer})
	if tx.Payee != "" {
		t.Errorf("ApplyPayee() renamed a transfer: %q", tx.Payee)
	}
	tx = ApplyPayee(payees, Transaction{PayeeRaw: "Piano lessons", Payee: "Piano lessons", Kind: KindActual})
	if tx.Payee != "Piano lessons" {
		t.Errorf("ApplyPayee() without a matching rule cleared the payee: %q", tx.Payee)
	}
}

func TestPayee_Validate(t *testing.T) {
	if _, err := (Payee{Name: "  "}).Validate(); err == nil {
		t.Error("Validate() accepted an empty name")
	}
	if _, err := (Payee{Name: "X", Patterns: []Pattern{{Type: MatchRegex, Pattern: "(["}}}).Validate(); err == nil {
		t.Error("Validate() accepted an invalid regex")
	}
	p, err := Payee{Name: " Rent "}.Validate()
	if err != nil || p.Name != "Rent" {
		t.Errorf("Validate() = %q, %v", p.Name, err)
	}
}
