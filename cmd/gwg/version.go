package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// ビルド時に ldflags で設定されるバージョン情報です。
var (
	version = ""
	commit  = ""
)

// getVersion は ldflags > debug.ReadBuildInfo > "(devel)" の順でバージョンを返します。
func getVersion() string {
	if version != "" {
		return version
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok && buildInfo.Main.Version != "" {
		return buildInfo.Main.Version
	}
	return "(devel)"
}

// getCommit はコミットハッシュの先頭7文字を返します。不明な場合は "unknown" です。
func getCommit() string {
	if commit != "" {
		return commit
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7]
				}
				return setting.Value
			}
		}
	}
	return "unknown"
}

// NewVersionCmd は version サブコマンドを生成します。
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "バージョン情報を表示します",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gwg version %s (commit: %s)\n", getVersion(), getCommit())
		},
	}
}
