package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/configgery/configgery-go/internal/client"
	"github.com/configgery/configgery-go/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the device configuration file",
	Long: `Write a ` + config.FileName + ` device configuration. Values come from
flags and environment variables; on an interactive terminal, missing
values are prompted for.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initURL  string
	initDir  string
	initCert string
	initKey  string
)

func init() {
	initCmd.Flags().StringVar(&initURL, "url", "", "device API base URL (default: production endpoint)")
	initCmd.Flags().StringVar(&initDir, "dir", "", "data directory for metadata and configurations")
	initCmd.Flags().StringVar(&initCert, "cert", "", "client certificate file (PEM)")
	initCmd.Flags().StringVar(&initKey, "key", "", "client private key file (PEM)")
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{
		ServerURL:   firstNonEmpty(initURL, os.Getenv("CONFIGGERY_URL")),
		Directory:   firstNonEmpty(initDir, os.Getenv("CONFIGGERY_DIR")),
		Certificate: firstNonEmpty(initCert, os.Getenv("CONFIGGERY_CERT")),
		PrivateKey:  firstNonEmpty(initKey, os.Getenv("CONFIGGERY_KEY")),
	}

	if isInteractive() {
		if cfg.Directory == "" {
			cfg.Directory = prompt("Data directory", "/var/lib/configgery")
		}
		if cfg.Certificate == "" {
			cfg.Certificate = prompt("Client certificate (PEM)", "")
		}
		if cfg.PrivateKey == "" {
			cfg.PrivateKey = prompt("Client private key (PEM)", "")
		}
		if cfg.ServerURL == "" {
			cfg.ServerURL = prompt("Server URL", client.DefaultBaseURL)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", config.GetPath())
	return nil
}

// prompt asks for a value on stdin, re-asking until non-empty when there
// is no default.
func prompt(label, def string) string {
	reader := bufio.NewReader(os.Stdin)
	for {
		if def != "" {
			fmt.Printf("%s [%s]: ", label, def)
		} else {
			fmt.Printf("%s: ", label)
		}
		input, err := reader.ReadString('\n')
		if err != nil {
			return def
		}
		input = strings.TrimSpace(input)
		if input != "" {
			return input
		}
		if def != "" {
			return def
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
