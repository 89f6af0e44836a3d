package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/shortlink/cmd"
	apperrors "github.com/axellelanca/shortlink/internal/errors"
	"github.com/axellelanca/shortlink/internal/repository"
)

// StatsCmd represents the 'stats' command
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get statistics for a short URL",
	Long:  `Get click statistics for the provided short code. Reading stats never counts a click.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

func runStats(c *cobra.Command, args []string) error {
	code := args[0]
	ctx := context.Background()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer repository.Close(db)

	link, err := repository.NewLinkRepository(db).GetLinkByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("short code %q not found", code)
		}
		return fmt.Errorf("error retrieving statistics: %w", err)
	}

	recorded, err := repository.NewClickRepository(db).CountClicksByLinkID(ctx, link.ID)
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	fmt.Fprintf(out, "Statistics for short code: %s\n", link.Code)
	fmt.Fprintf(out, "Destination: %s\n", link.DestinationURL)
	fmt.Fprintf(out, "Owner: %s\n", link.OwnerUsername)
	fmt.Fprintf(out, "Total clicks: %d\n", link.ClickCount)
	fmt.Fprintf(out, "Detailed clicks recorded: %d\n", recorded)
	fmt.Fprintf(out, "Created at: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
