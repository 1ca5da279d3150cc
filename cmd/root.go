package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "profile-verify",
	Short: "A CLI tool for matching a person against a candidate profile pool",
	Long: `Profile Verify matches a query photo against a pool of candidate
profiles using facial embeddings from a face recognition engine. It can
rank candidates by face similarity alone or fuse the face score with
textual profile attributes for identity verification.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
