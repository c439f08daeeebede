package devicetype

import (
	"fmt"
	"sort"
	"strconv"
)

// Code is a DomoCAN device type code as stored by the controller
type Code = int

// Device type codes known to this build
const (
	Unknown Code = iota
	CoinSender05
	CoinSender1
	CoinSender2
	CoinSender3
	CoinSender4
	CoinSender5
	CoinSender6
	CoinCounter
	CoinCounterTotal
	ActiveMonitor
	RelayModule5
)

// Option is one selectable entry of the catalog
type Option struct {
	Code  Code   `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// String returns "code - label", the form used by CLI listings
func (o Option) String() string {
	return fmt.Sprintf("%d - %s", o.Code, o.Label)
}

var labels = map[Code]string{
	CoinSender05:     "Coin Sender 0.5",
	CoinSender1:      "Coin Sender 1",
	CoinSender2:      "Coin Sender 2",
	CoinSender3:      "Coin Sender 3",
	CoinSender4:      "Coin Sender 4",
	CoinSender5:      "Coin Sender 5",
	CoinSender6:      "Coin Sender 6",
	CoinCounter:      "Coin Counter",
	CoinCounterTotal: "Coin Counter Total",
	ActiveMonitor:    "Active Monitor",
	RelayModule5:     "Relay Module 5 Channels",
}

// options is computed once; callers receive copies
var options = buildOptions()

func buildOptions() []Option {
	opts := make([]Option, 0, len(labels))
	for code, label := range labels {
		if label == "" {
			continue
		}
		opts = append(opts, Option{Code: code, Label: label})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Code < opts[j].Code })
	return opts
}

// Label returns the label for code. ok is false for codes outside the catalog.
func Label(code Code) (label string, ok bool) {
	label, ok = labels[code]
	return label, ok && label != ""
}

// LabelOrBlank returns the label for code, or "" when the code is unmapped
func LabelOrBlank(code Code) string {
	label, _ := Label(code)
	return label
}

// Valid reports whether code has a catalog label
func Valid(code Code) bool {
	_, ok := Label(code)
	return ok
}

// Options returns the catalog as (code, label) pairs in ascending code order,
// skipping codes with an empty label. The returned slice is a copy.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Codes returns the catalog codes in ascending order
func Codes() []Code {
	codes := make([]Code, len(options))
	for i, o := range options {
		codes[i] = o.Code
	}
	return codes
}

// Parse accepts either a numeric code or an exact catalog label.
// Numeric codes outside the catalog are accepted; unknown labels are not.
func Parse(s string) (Code, error) {
	if code, err := strconv.Atoi(s); err == nil {
		if code < 0 {
			return 0, fmt.Errorf("device type must not be negative: %d", code)
		}
		return code, nil
	}
	for _, o := range options {
		if o.Label == s {
			return o.Code, nil
		}
	}
	return 0, fmt.Errorf("unknown device type %q", s)
}

// IndexOf returns the position of code within Options, or -1
func IndexOf(code Code) int {
	for i, o := range options {
		if o.Code == code {
			return i
		}
	}
	return -1
}
