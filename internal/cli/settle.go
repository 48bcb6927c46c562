package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/domain/settlement"
	"trainerdesk/internal/pkg/bizday"
)

func init() {
	rootCmd.AddCommand(settleCmd)

	settleCmd.Flags().String("trainer", "", "Trainer id")
	settleCmd.Flags().String("month", "", "Month as YYYY-MM (defaults to the current month)")
	settleCmd.Flags().Bool("json", false, "Print the breakdown as JSON")
	_ = settleCmd.MarkFlagRequired("trainer")
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Print a trainer's monthly settlement breakdown",
	Args:  cobra.NoArgs,
	RunE:  runSettle,
}

func runSettle(cmd *cobra.Command, args []string) error {
	rawTrainer, _ := cmd.Flags().GetString("trainer")
	month, _ := cmd.Flags().GetString("month")
	asJSON, _ := cmd.Flags().GetBool("json")

	trainerID, err := uuid.Parse(rawTrainer)
	if err != nil {
		return fmt.Errorf("invalid --trainer %q: %w", rawTrainer, err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if month == "" {
		month = bizday.MonthKey(time.Now())
	}

	b, err := a.settlement.MonthlyTotal(cmd.Context(), access.System, trainerID, month)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	return printBreakdown(cmd, b)
}

func printBreakdown(cmd *cobra.Command, b *settlement.Breakdown) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "trainer\t%s\n", b.TrainerID)
	fmt.Fprintf(w, "month\t%s\n", b.Month)
	fmt.Fprintf(w, "policy\t%s\n", b.PolicyVersion)
	fmt.Fprintf(w, "sales\t%s\n", b.Sales.StringFixed(0))
	fmt.Fprintf(w, "six month sales\t%s\n", b.SixMonthSales.StringFixed(0))
	fmt.Fprintf(w, "incentive\t%d\n", b.Incentive)
	fmt.Fprintf(w, "master bonus\t%d\n", b.MasterBonus)
	fmt.Fprintf(w, "class bonus\t%d\t(%d classes)\n", b.ClassBonus, b.ClassCount)
	fmt.Fprintf(w, "lesson fee main\t%d\t(%d%% of %d)\n", b.LessonFeeMain, b.LessonFeeRateMain, b.LessonFeeBaseMain)
	fmt.Fprintf(w, "lesson fee other\t%d\t(%d%% of %d)\n", b.LessonFeeOther, b.LessonFeeRateOther, b.LessonFeeBaseOther)
	fmt.Fprintf(w, "ot incentive\t%d\t(%d sessions)\n", b.OTIncentive, b.OTSessionCount)
	fmt.Fprintf(w, "adjustments\t%d\n", b.AdjustmentTotal)
	fmt.Fprintf(w, "refund deductions\t-%d\n", b.RefundDeductions)
	fmt.Fprintf(w, "dayoff deduction\t-%d\t(%d days)\n", b.DayoffDeduction, b.DayoffDays)
	fmt.Fprintf(w, "total\t%d\n", b.Total)
	return w.Flush()
}
