package snapshot

import (
	"github.com/spf13/cobra"
)

// NewSnapshotCmd groups the offline snapshot maintenance commands.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "manage offline event snapshots",
	}
	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDeleteCmd())
	return cmd
}
