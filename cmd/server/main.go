package main

import (
	"fmt"
	"os"

	"github.com/wvclabs/customs-translator/internal/cli"
)

// 版本信息，构建时通过 -ldflags 注入
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
