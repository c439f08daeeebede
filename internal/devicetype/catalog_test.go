package devicetype

import "testing"

func TestLabel(t *testing.T) {
	tests := []struct {
		code   Code
		want   string
		wantOK bool
	}{
		{CoinSender05, "Coin Sender 0.5", true},
		{CoinCounter, "Coin Counter", true},
		{RelayModule5, "Relay Module 5 Channels", true},
		{Unknown, "", false},
		{99, "", false},
		{-1, "", false},
	}

	for _, tt := range tests {
		got, ok := Label(tt.code)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Label(%d) = (%q, %v), want (%q, %v)", tt.code, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLabelOrBlank(t *testing.T) {
	if got := LabelOrBlank(8); got != "Coin Counter" {
		t.Errorf("LabelOrBlank(8) = %q, want Coin Counter", got)
	}
	if got := LabelOrBlank(99); got != "" {
		t.Errorf("LabelOrBlank(99) = %q, want blank", got)
	}
}

func TestOptions_Ordered(t *testing.T) {
	opts := Options()
	if len(opts) != 11 {
		t.Fatalf("len(Options()) = %d, want 11", len(opts))
	}
	for i, o := range opts {
		if o.Code != i+1 {
			t.Errorf("Options()[%d].Code = %d, want %d", i, o.Code, i+1)
		}
		if o.Label == "" {
			t.Errorf("Options()[%d] has empty label", i)
		}
	}
}

func TestOptions_ReturnsCopy(t *testing.T) {
	opts := Options()
	opts[0].Label = "mutated"

	if got := LabelOrBlank(CoinSender05); got != "Coin Sender 0.5" {
		t.Errorf("catalog mutated through Options(): %q", got)
	}
	if Options()[0].Label != "Coin Sender 0.5" {
		t.Error("Options() returned shared backing array")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Code
		wantErr bool
	}{
		{"8", 8, false},
		{"99", 99, false},
		{"Coin Counter", CoinCounter, false},
		{"Active Monitor", ActiveMonitor, false},
		{"-3", 0, true},
		{"Toaster", 0, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIndexOf(t *testing.T) {
	if got := IndexOf(CoinSender05); got != 0 {
		t.Errorf("IndexOf(1) = %d, want 0", got)
	}
	if got := IndexOf(RelayModule5); got != 10 {
		t.Errorf("IndexOf(11) = %d, want 10", got)
	}
	if got := IndexOf(42); got != -1 {
		t.Errorf("IndexOf(42) = %d, want -1", got)
	}
}

func TestOptionString(t *testing.T) {
	o := Option{Code: 8, Label: "Coin Counter"}
	if got := o.String(); got != "8 - Coin Counter" {
		t.Errorf("String() = %q", got)
	}
}
