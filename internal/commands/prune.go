package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete local files the device group no longer declares",
	Long: `Delete every file under the configurations directory that the cached
device group metadata does not declare, and remove directories left
empty. Does not contact the server; run 'configgery check' first to
prune against the latest metadata.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func runPrune(cmd *cobra.Command, args []string) error {
	st, err := loadStack()
	if err != nil {
		return err
	}
	defer st.close()

	if err := st.engine.Prune(); err != nil {
		return err
	}
	fmt.Println("PRUNE: done")
	return nil
}
