package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/axellelanca/shortlink/cmd"
	"github.com/axellelanca/shortlink/internal/auth"
	"github.com/axellelanca/shortlink/internal/repository"
	"github.com/axellelanca/shortlink/internal/services"
)

var (
	usernameFlag string
	emailFlag    string
	passwordFlag string
)

// CreateUserCmd registers an account without going through the HTTP API.
var CreateUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Registers a user account.",
	RunE: func(c *cobra.Command, _ []string) error {
		log := cmd.Logger()

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer repository.Close(db)

		// the issuer is required by the service but no token is handed out here
		tokens := auth.NewTokenIssuer(cmd.Cfg.Auth.JWTSecret, cmd.Cfg.Auth.TokenTTL, auth.NewMemoryBlacklist(time.Minute))
		authService := services.NewAuthService(repository.NewUserRepository(db), tokens, cmd.Cfg.Auth.BcryptCost, log)

		user, err := authService.Register(context.Background(), usernameFlag, emailFlag, passwordFlag)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		fmt.Fprintf(c.OutOrStdout(), "User %s created.\n", user.Username)
		return nil
	},
}

func init() {
	CreateUserCmd.Flags().StringVar(&usernameFlag, "username", "", "Account username")
	CreateUserCmd.Flags().StringVar(&emailFlag, "email", "", "Account email")
	CreateUserCmd.Flags().StringVar(&passwordFlag, "password", "", "Account password")
	for _, f := range []string{"username", "email", "password"} {
		_ = CreateUserCmd.MarkFlagRequired(f)
	}

	cmd.RootCmd.AddCommand(CreateUserCmd)
}
