package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/sparklet"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sparklet",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sparklet version %s\n", strings.TrimSpace(sparklet.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
