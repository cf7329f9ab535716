package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncRefresh bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Converge local configurations to the device group",
	Long: `Prune local files the server no longer declares, then download every
entry whose content hash does not match.

Without --refresh, sync reuses the cached device group metadata and only
contacts the server when no metadata is cached. Use --refresh to fetch
the latest metadata first.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncRefresh, "refresh", false, "fetch the latest device group metadata first")
}

func runSync(cmd *cobra.Command, args []string) error {
	st, err := loadStack()
	if err != nil {
		return err
	}
	defer st.close()

	ctx := cmd.Context()
	if syncRefresh || st.engine.DeviceGroup() == nil {
		if err := st.engine.CheckLatest(ctx); err != nil {
			return err
		}
	}

	outdated := len(st.engine.Outdated())
	if err := st.engine.Synchronize(ctx); err != nil {
		return err
	}

	group := st.engine.DeviceGroup()
	fmt.Printf("SYNC: %d downloaded, device group %s version %d\n",
		outdated, group.DeviceGroupID, group.DeviceGroupVersion)
	return nil
}
