package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"trainerdesk/internal/config"
	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/pkg/jwt"
)

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("user", "", "User id (a new one is generated when empty)")
	tokenCmd.Flags().String("role", string(access.RoleTrainer), "trainer, branch_admin or main_admin")
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local development",
	Long: `Signs a token with JWT_SECRET. Production-like environments refuse
the default secret, so tokens minted here only work where the secret matches.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	rawUser, _ := cmd.Flags().GetString("user")
	rawRole, _ := cmd.Flags().GetString("role")

	role, ok := access.ParseRole(rawRole)
	if !ok {
		return fmt.Errorf("unknown role %q", rawRole)
	}
	userID := uuid.New()
	if rawUser != "" {
		parsed, err := uuid.Parse(rawUser)
		if err != nil {
			return fmt.Errorf("invalid --user %q: %w", rawUser, err)
		}
		userID = parsed
	}

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		return err
	}
	token, err := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL).GenerateToken(userID.String(), string(role))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
