package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitapi"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion sets the build metadata shown by the version command.
func SetVersion(v, t string) {
	version = v
	buildTime = t
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show qbtctl and daemon version information",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Printf("qbtctl %s (built %s)\n", version, buildTime)

	ctx := context.Background()
	appVersion, err := client.AppVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	apiVersion, err := client.WebAPIVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("qBittorrent %s (Web API %s)\n", appVersion, apiVersion)
	if !qbitapi.IsAppVersionSupported(appVersion) {
		fmt.Printf("note: this daemon release is newer than the latest tested (%s)\n",
			qbitapi.MostRecentSupportedAppVersion)
	}

	if info, err := client.AppBuildInfo(ctx); err == nil && info != nil {
		fmt.Printf("built with Qt %s, libtorrent %s (%d-bit)\n",
			info.Qt, info.Libtorrent, info.Bitness)
	}
	return nil
}
