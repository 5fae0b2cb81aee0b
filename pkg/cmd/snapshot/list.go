package snapshot

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/config"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/db/postgres"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/offline"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "lists stored offline snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := postgres.InitWithURL(config.DB)
			defer pool.Close()
			manager := offline.NewManager(pool)

			statuses := manager.GetOfflineEventStatuses(cmd.Context())
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tATHLETES\tSIZE\tSAVED\tEXPIRES\tSTALE")
			for _, s := range statuses {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%t\n",
					s.ID, s.TotalAthletes, s.EstimatedSize,
					time.UnixMilli(s.Timestamp).Format(time.RFC3339),
					time.UnixMilli(s.ExpiresAt).Format(time.RFC3339),
					s.IsStale)
			}
			return w.Flush()
		},
	}
}
