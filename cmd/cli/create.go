package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/shortlink/cmd"
	"github.com/axellelanca/shortlink/internal/repository"
	"github.com/axellelanca/shortlink/internal/services"
)

var (
	longURLFlag string
	ownerFlag   string
	slugFlag    string
)

// CreateCmd represents the 'create' command
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates a short URL for an existing user.",
	Long: `This command shortens the given URL on behalf of an existing user and prints the code.

Example:
  shortlink create --owner=alice --url="https://www.google.com/search?q=go+lang"
  shortlink create --owner=alice --url="https://go.dev" --slug=go-home`,
	RunE: func(c *cobra.Command, _ []string) error {
		log := cmd.Logger()
		ctx := context.Background()

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer repository.Close(db)

		// sqlite doesn't enforce the owner foreign key
		if _, err := repository.NewUserRepository(db).GetUserByUsername(ctx, ownerFlag); err != nil {
			return fmt.Errorf("owner %q: %w", ownerFlag, err)
		}

		linkService := services.NewLinkService(repository.NewLinkRepository(db), services.RandomCodeGenerator{}, cmd.Cfg, log)
		link, err := linkService.Shorten(ctx, ownerFlag, longURLFlag, slugFlag)
		if err != nil {
			return fmt.Errorf("failed to create short link: %w", err)
		}

		out := c.OutOrStdout()
		fmt.Fprintln(out, "Short URL created successfully:")
		fmt.Fprintf(out, "Code: %s\n", link.Code)
		fmt.Fprintf(out, "Full URL: %s\n", linkService.ShortURL(link.Code))
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&ownerFlag, "owner", "", "Username owning the link")
	CreateCmd.Flags().StringVar(&slugFlag, "slug", "", "Optional custom slug")
	_ = CreateCmd.MarkFlagRequired("url")
	_ = CreateCmd.MarkFlagRequired("owner")

	cmd.RootCmd.AddCommand(CreateCmd)
}
