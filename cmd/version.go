package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma/beacon/internal/meta"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := meta.GetInfo()

		fmt.Printf("beacon %s (%s, %s)\n", info.Version, info.Build, info.Platform)
		fmt.Printf("built %s from %s with %s\n", info.BuildTime, info.Branch, info.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(VersionCmd)
}
