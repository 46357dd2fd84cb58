package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// The server host to connect to
	host string

	// The server port to connect to
	port int

	// debug switches logging to the development encoder
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "beacon",
	Short: "A RESP2/RESP3 client for Redis compatible servers",
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&host, "host", "a", "127.0.0.1", "The server host to connect to")
	flags.IntVarP(&port, "port", "p", 6379, "The server port to connect to")
	flags.BoolVar(&debug, "debug", false, "Log for humans instead of machines")

	rootCmd.AddCommand(ReplCmd)
	rootCmd.AddCommand(CallCmd)
	rootCmd.AddCommand(WatchCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
