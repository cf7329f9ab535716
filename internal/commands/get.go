package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <path-or-alias>",
	Short: "Print a downloaded configuration to stdout",
	Long: `Print the content of a configuration that has been downloaded onto
this device. The argument is matched against entry paths first, then
against aliases. Fails while local configurations are outdated, since
stale content must not be served as valid.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	st, err := loadStack()
	if err != nil {
		return err
	}
	defer st.close()

	data, err := st.engine.GetConfiguration(args[0])
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
