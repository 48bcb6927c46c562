package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/domain/settlement"
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsImportCmd)
	settingsImportCmd.Flags().Bool("dry-run", false, "Validate the file without saving it")
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage salary settings",
}

var settingsImportCmd = &cobra.Command{
	Use:   "import FILE.toml",
	Short: "Replace the stored salary settings with a TOML file",
	Long: `Reads salary settings from a TOML file. Keys missing from the file keep
their default values. Tier tables are sorted by threshold before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsImport,
}

func runSettingsImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open settings file: %w", err)
	}
	defer f.Close()

	parsed, err := settlement.ParseSettingsTOML(f)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%d incentive tiers, %d lesson fee tiers)\n",
			args[0], len(parsed.IncentiveTiers), len(parsed.LessonFeeTiers))
		return nil
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.settlement.SaveSettings(cmd.Context(), access.System, parsed); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported salary settings from %s\n", args[0])
	return nil
}
