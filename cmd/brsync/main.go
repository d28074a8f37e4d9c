// Brsync drives BRMesh Bluetooth-mesh lights from live audio.
//
// It analyzes a PCM stream into bass/mid/treble intensities, maps them to
// RGB colour commands, and hands the encoded mesh packets to a transport.
// Several nodes can stay in sync: one master analyzes and broadcasts its
// levels over UDP, followers replay them against their local lights.
//
// Usage:
//
//	brsync [command] [flags]
//
// See 'brsync --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenjack/brsync/internal/logging"
	"github.com/lumenjack/brsync/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "brsync",
	Short: "Music sync for BRMesh lights",
	Long: `Drive BRMesh Bluetooth-mesh lights from live audio.

A master node analyzes an audio stream into band intensities and maps
them to colour commands; follower nodes receive the intensities over UDP
and drive their own lights in sync. One-shot commands build individual
mesh packets for scripting and debugging.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless BRSYNC_LOG_LEVEL is set
		return logging.InitializeFromEnv()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("brsync %s (commit: %s)\n", version.Version, version.Commit)
	},
}
