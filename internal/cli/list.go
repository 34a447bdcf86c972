package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitapi"
)

var (
	filterExpr string
	preset     string
	category   string
	stateFlag  string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List torrents matching the filter criteria",
	Long: `List torrents known to the daemon, optionally narrowed by a server-side
state or category filter and by a client-side filter expression, e.g.:

  qbtctl list --filter 'Progress == 1.0 and Ratio > 2.0'
  qbtctl list --filter 'HasTag("public") and not Complete'`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	listCmd.Flags().StringVar(&preset, "preset", "", "use a preset filter from config")
	listCmd.Flags().StringVarP(&category, "category", "c", "", "only torrents in this category")
	listCmd.Flags().StringVarP(&stateFlag, "state", "s", "", "server-side state filter (downloading, seeding, completed, ...)")
}

func runList(cmd *cobra.Command, args []string) error {
	expression, err := resolveFilterExpression()
	if err != nil {
		return err
	}

	var filter *torrentFilter
	if expression != "" {
		filter, err = compileFilter(expression)
		if err != nil {
			return err
		}
		logger.Info().Str("filter", expression).Msg("Searching torrents")
	}

	ctx := context.Background()
	torrents, err := client.TorrentsInfo(ctx, qbitapi.TorrentFilterOptions{
		Filter:   stateFlag,
		Category: category,
	})
	if err != nil {
		return err
	}

	matched := make(qbitapi.TorrentList, 0, len(torrents))
	for _, t := range torrents {
		if filter == nil || filter.Evaluate(t) {
			matched = append(matched, t)
		}
	}

	if len(matched) == 0 {
		fmt.Println("No torrents found matching the filter criteria.")
		return nil
	}

	fmt.Printf("\nFound %d torrents:\n", len(matched))
	fmt.Println(strings.Repeat("-", 80))
	for _, t := range matched {
		fmt.Printf("• %s\n", t.Name)
		fmt.Printf("  %s  %.1f%%  ratio %.2f  %s\n",
			t.State, t.Progress*100, t.Ratio, formatSize(t.Size))
	}
	return nil
}

// resolveFilterExpression picks between --filter and --preset
func resolveFilterExpression() (string, error) {
	if filterExpr != "" && preset != "" {
		return "", fmt.Errorf("--filter and --preset are mutually exclusive")
	}
	if preset != "" {
		expression, ok := cfg.Presets[preset]
		if !ok {
			return "", fmt.Errorf("preset %q not found in config", preset)
		}
		return expression, nil
	}
	return filterExpr, nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
