package cmd

import (
	"strings"

	costingapp "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBreakdownCommand(opts *options) *cobra.Command {
	var material, labor, overhead, quantity decimal.Decimal

	c := &cobra.Command{
		Use:   "breakdown",
		Short: "Build a cost breakdown from explicit amounts",
		Long: `Builds a cost breakdown without a database and reports the total,
the cost per unit and the share of each cost bucket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			currency := valueobject.Currency(opts.currencyOr(valueobject.DefaultCurrency))
			b, err := costing.NewCostBreakdown(material, labor, overhead, quantity, currency)
			if err != nil {
				return err
			}
			opts.logger.Debug("Breakdown built", zap.String("total_cost", b.TotalCost().Amount().String()))
			return renderBreakdown(cmd, opts, "", b, costingapp.RecordCounts{})
		},
	}

	f := c.Flags()
	f.Var(newDecimalValue(&material), "material", "direct material cost")
	f.Var(newDecimalValue(&labor), "labor", "direct labor cost")
	f.Var(newDecimalValue(&overhead), "overhead", "overhead cost")
	f.Var(newDecimalValue(&quantity), "quantity", "units produced")
	_ = c.MarkFlagRequired("quantity")
	return c
}

func renderBreakdown(cmd *cobra.Command, opts *options, orderID string, b costing.CostBreakdown, counts costingapp.RecordCounts) error {
	resp := costingapp.ToProcessCostResponse(orderID, &costingapp.CalculateProcessCostOutput{
		CostBreakdown: b,
		RecordCounts:  counts,
	})

	var fields []field
	if orderID != "" {
		fields = append(fields, field{"Order", orderID})
	}
	fields = append(fields,
		field{"Material", money(resp.MaterialCost, resp.Currency) + " (" + percent(resp.MaterialPercentage) + ")"},
		field{"Labor", money(resp.LaborCost, resp.Currency) + " (" + percent(resp.LaborPercentage) + ")"},
		field{"Overhead", money(resp.OverheadCost, resp.Currency) + " (" + percent(resp.OverheadPercentage) + ")"},
		field{"Total", money(resp.TotalCost, resp.Currency)},
		field{"Quantity", resp.Quantity.String()},
		field{"Cost per unit", resp.CostPerUnit.StringFixed(4) + " " + resp.Currency},
	)
	return render(cmd.OutOrStdout(), opts.output, resp, fields)
}

// currencyOr returns the --currency flag upper-cased, or fallback
func (o *options) currencyOr(fallback valueobject.Currency) string {
	if o.currency == "" {
		return string(fallback)
	}
	return strings.ToUpper(o.currency)
}
