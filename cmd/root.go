package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "authsvc",
	Short: "Pluggable authentication service",
	Long:  `An authentication service providing registration, login, token refresh with rotation, email verification and password management over swappable storage backends.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
