package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/configgery/configgery-go/internal/sync"
)

var reportCmd = &cobra.Command{
	Use:   "report <applied|upvote|downvote>",
	Short: "Report a device-state event to the server",
	Long: `Report that this device applied its configuration set, or vote on
whether the applied set works. Requires cached device group metadata so
the event can be attributed to a group and version.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	event, err := sync.ParseDeviceEvent(args[0])
	if err != nil {
		return err
	}

	st, err := loadStack()
	if err != nil {
		return err
	}
	defer st.close()

	reporter := sync.NewReporter(st.client, st.engine, st.log)
	if err := reporter.Report(cmd.Context(), event); err != nil {
		return err
	}

	fmt.Printf("REPORT: %s acknowledged\n", event)
	return nil
}
