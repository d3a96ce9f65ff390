package cmd

import (
	"fmt"

	"github.com/haierkeys/screen-connect-controller/internal/app"
	"github.com/haierkeys/screen-connect-controller/pkg/util"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print out version info and exit. // 打印版本信息并退出。",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s v%s ( Git:%s ) BuildTime:%s Device:%s\n", app.Name, app.Version, app.GitTag, app.BuildTime, util.GetDeviceID())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
