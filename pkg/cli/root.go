package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// settings holds values resolved from flags, environment and profile.
type settings struct {
	host   string
	output string
	days   int
}

func newRootCmd() *cobra.Command {
	var (
		s       settings
		profile string
	)

	client := NewClient(s.host)

	rootCmd := &cobra.Command{
		Use:           "cryptoctl",
		Short:         "Crypto price dashboard CLI",
		Long:          "Command-line interface for the crypto price dashboard API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Config file is optional
			cfg := loadOrEmptyConfig()
			p, err := cfg.ActiveProfile(profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("CRYPTOCTL_HOST"); v != "" {
					s.host = v
				} else if p.Host != "" {
					s.host = p.Host
				}
			}
			if !cmd.Flags().Changed("output") {
				switch {
				case os.Getenv("CRYPTOCTL_OUTPUT") != "":
					s.output = os.Getenv("CRYPTOCTL_OUTPUT")
				case p.Output != "":
					s.output = p.Output
				default:
					s.output = defaultOutputFormat()
				}
				_ = cmd.Root().PersistentFlags().Set("output", s.output)
			}
			if v := os.Getenv("CRYPTOCTL_DAYS"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("invalid CRYPTOCTL_DAYS %q: %w", v, err)
				}
				s.days = n
			} else {
				s.days = p.Days
			}

			if err := validateOutputFormat(s.output); err != nil {
				return err
			}

			*client = *NewClient(s.host)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&s.host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVarP(&s.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newPricesCmd(client, &s))
	rootCmd.AddCommand(newHealthCmd(client))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
