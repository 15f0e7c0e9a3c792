package cmd

import (
	costingapp "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newWIPCommand(opts *options) *cobra.Command {
	var started, completed, percentage, cost decimal.Decimal
	var name string

	c := &cobra.Command{
		Use:   "wip",
		Short: "Evaluate equivalent units and work in process for one stage",
		Long: `Evaluates a single process stage without a database.

Equivalent units are the completed units plus the in-process units weighted by
their completion percentage. Cost per equivalent unit spreads the accumulated
cost over them and the WIP value prices the in-process share.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			currency := valueobject.Currency(opts.currencyOr(valueobject.DefaultCurrency))
			stage, err := costing.NewProcessStage("cli", name, 1, started, currency)
			if err != nil {
				return err
			}
			if stage, err = stage.WithUnitsCompleted(completed); err != nil {
				return err
			}
			if stage, err = stage.WithCompletionPercentage(percentage); err != nil {
				return err
			}
			if stage, err = stage.WithAccumulatedCost(cost); err != nil {
				return err
			}

			resp := costingapp.ToProcessStageResponse("", stage)
			return render(cmd.OutOrStdout(), opts.output, resp, []field{
				{"Stage", resp.Name},
				{"Units started", resp.UnitsStarted.String()},
				{"Units completed", resp.UnitsCompleted.String()},
				{"Units in process", resp.UnitsInProgress.String() + " (" + percent(resp.WIPPercentage) + ")"},
				{"Equivalent units", resp.EquivalentUnits.String()},
				{"Accumulated cost", money(resp.AccumulatedCost, resp.Currency)},
				{"Cost per equivalent unit", resp.CostPerEquivalentUnit.StringFixed(4) + " " + resp.Currency},
				{"WIP value", money(resp.TotalWIP, resp.Currency)},
			})
		},
	}

	f := c.Flags()
	f.StringVar(&name, "name", "stage", "stage name shown in the output")
	f.Var(newDecimalValue(&started), "started", "units started")
	f.Var(newDecimalValue(&completed), "completed", "units completed")
	f.Var(newDecimalValue(&percentage), "percent", "completion percentage of units still in process (0-100)")
	f.Var(newDecimalValue(&cost), "cost", "accumulated cost of the stage")
	_ = c.MarkFlagRequired("started")
	return c
}
