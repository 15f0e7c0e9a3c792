package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// field is one labelled line of text output
type field struct {
	label string
	value string
}

// render writes v as indented JSON, or the fields as an aligned table
func render(w io.Writer, format string, v any, fields []field) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f.label, f.value)
	}
	return tw.Flush()
}

func money(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + currency
}

func percent(p decimal.Decimal) string {
	return p.StringFixed(2) + "%"
}

// decimalValue is a pflag.Value parsing exact decimals
type decimalValue struct {
	d *decimal.Decimal
}

var _ pflag.Value = decimalValue{}

func newDecimalValue(p *decimal.Decimal) decimalValue {
	return decimalValue{d: p}
}

func (v decimalValue) String() string {
	if v.d == nil {
		return "0"
	}
	return v.d.String()
}

func (v decimalValue) Set(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a decimal number: %q", s)
	}
	*v.d = d
	return nil
}

func (decimalValue) Type() string {
	return "decimal"
}
