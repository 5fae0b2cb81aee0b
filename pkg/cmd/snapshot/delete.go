package snapshot

import (
	"github.com/spf13/cobra"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/config"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/db/postgres"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/offline"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete snapshotId [snapshotId...]",
		Short: "deletes offline snapshots by key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := postgres.InitWithURL(config.DB)
			defer pool.Close()
			manager := offline.NewManager(pool)
			for _, id := range args {
				if err := manager.DeleteOfflineEvent(cmd.Context(), id); err != nil {
					return err
				}
				log.Info("snapshot deleted", log.String("id", id))
			}
			return nil
		},
	}
}
