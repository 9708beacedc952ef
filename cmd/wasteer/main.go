package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wasteer",
	Short: "Wasteer — team waste tracking API",
	Long:  "Wasteer is a multi-tenant waste-tracking API: users record waste disposal events grouped by team, with role-based access control and team-scoped analytics.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/wasteer.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
