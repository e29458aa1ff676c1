package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Overridden at build time via -ldflags "-X main.buildVersion=...".
var (
	buildVersion = "dev"
	buildCommit  = ""
)

var versionJSON bool

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Go      string `json:"go"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the providerhub version and build metadata.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := resolveVersionInfo()

		if versionJSON {
			b, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}

		fmt.Printf("providerhub version=%s commit=%s go=%s\n", info.Version, info.Commit, info.Go)
		return nil
	},
}

// resolveVersionInfo prefers the linker-set values and falls back to what
// the module build info recorded.
func resolveVersionInfo() versionInfo {
	info := versionInfo{
		Version: buildVersion,
		Commit:  buildCommit,
		Go:      runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	if info.Commit == "" {
		for _, setting := range bi.Settings {
			if setting.Key == "vcs.revision" {
				info.Commit = setting.Value
				break
			}
		}
	}
	return info
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
}
