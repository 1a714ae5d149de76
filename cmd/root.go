package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "warlockarena",
	Short: "Cooperative monster fight with hidden warlocks",
	Long: `warlockarena hosts rounds of a cooperative battle against a monster.
Players pick a race and a class, submit one action per round and the
server resolves every round in a fixed phase order. Some players are
secretly warlocks.`,
	SilenceUsage: true,
}

// Execute 入口，由 main 调用
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
