package cmd

import (
	"context"
	"fmt"
	"time"

	costingapp "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/erp/costing/internal/infrastructure/config"
	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/erp/costing/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCalculateCommand(opts *options) *cobra.Command {
	var (
		orderID string
		timeout time.Duration
	)

	c := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the process cost of a manufacturing order",
		Long: `Loads the order's material, labor and overhead lines from the configured
database (ERP_DATABASE_* environment variables or config.toml) and prints
the cost breakdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			gormLog := logger.NewGormLogger(opts.logger, logger.MapGormLogLevel(opts.logLevel))
			db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					opts.logger.Warn("Error closing database", zap.Error(err))
				}
			}()

			uc := costingapp.NewCalculateProcessCostUseCase(
				persistence.NewGormCostDataRepository(db.DB, cfg.Costing.QueryTimeout),
				opts.logger,
			)
			uc.SetDefaultCurrency(valueobject.Currency(cfg.Costing.DefaultCurrency))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			input := costingapp.CalculateProcessCostInput{OrderID: orderID}
			if opts.currency != "" {
				input.Currency = opts.currencyOr("")
			}
			out, err := uc.Execute(ctx, input)
			if err != nil {
				return err
			}
			return renderBreakdown(cmd, opts, orderID, out.CostBreakdown, out.RecordCounts)
		},
	}

	c.Flags().StringVar(&orderID, "order", "", "manufacturing order ID")
	c.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall time limit")
	_ = c.MarkFlagRequired("order")
	return c
}
