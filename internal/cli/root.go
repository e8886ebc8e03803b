package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ghfetch",
		Short: "Download and install binaries from GitHub release assets",
		Long: `Ghfetch downloads the latest release of a GitHub repository whose
asset name matches a pattern, extracts the archive and installs
selected files into an output directory.

Supported archive formats:
  - gzip tar (.tar.gz, .tgz)
  - bzip2 tar (.tar.bz2, .tbz)
  - zstd tar (.tar.zst)
  - xz tar (.tar.xz, .txz)
  - zip (.zip)`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewFetchCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
