package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show client state without contacting the server",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := loadStack()
	if err != nil {
		return err
	}
	defer st.close()

	fmt.Printf("State:        %s\n", st.engine.State())
	fmt.Printf("Directory:    %s\n", st.engine.ConfigurationsDir())

	group := st.engine.DeviceGroup()
	if group == nil {
		fmt.Println("Device group: none cached")
		return nil
	}

	fmt.Printf("Device group: %s (version %d)\n", group.DeviceGroupID, group.DeviceGroupVersion)
	fmt.Printf("Last checked: %s ago\n", st.engine.TimeSinceLastChecked().Round(time.Second))
	fmt.Printf("Entries:      %d (%d outdated)\n", len(group.Configurations), len(st.engine.Outdated()))
	return nil
}
