package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionJSON bool

// VersionOutput is the JSON shape of pibot version --json
type VersionOutput struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := VersionOutput{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
		out := cmd.OutOrStdout()

		if versionJSON {
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal json: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintln(out, "pibot version information:")
		fmt.Fprintf(out, "  Version:   %s\n", v.Version)
		fmt.Fprintf(out, "  GitCommit: %s\n", v.GitCommit)
		fmt.Fprintf(out, "  BuildTime: %s\n", v.BuildTime)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output in JSON format")
}
