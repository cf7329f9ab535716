package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch the latest device group metadata and list outdated entries",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	st, err := loadStack()
	if err != nil {
		return err
	}
	defer st.close()

	if err := st.engine.CheckLatest(cmd.Context()); err != nil {
		return err
	}

	outdated := st.engine.Outdated()
	if len(outdated) == 0 {
		fmt.Println("CHECK: all configurations up to date")
		return nil
	}

	fmt.Printf("CHECK: %d configurations outdated\n", len(outdated))
	for _, c := range outdated {
		fmt.Printf("  %s (version %d)\n", c.Path, c.Version)
	}
	return nil
}
