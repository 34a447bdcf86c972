package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitapi"
)

var (
	savePath    string
	addCategory string
	addPaused   bool
	deleteFiles bool
	noConfirm   bool
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add [magnet-or-url-or-file ...]",
	Short: "Add torrents by magnet link, URL, or .torrent file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:   "pause [hash ...]",
	Short: "Pause the given torrents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.TorrentsPause(context.Background(), args...)
	},
}

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume [hash ...]",
	Short: "Resume the given torrents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.TorrentsResume(context.Background(), args...)
	},
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [hash ...]",
	Short: "Delete the given torrents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	addCmd.Flags().StringVar(&savePath, "save-path", "", "download directory")
	addCmd.Flags().StringVar(&addCategory, "category", "", "category for the new torrents")
	addCmd.Flags().BoolVar(&addPaused, "paused", false, "add in paused state")

	deleteCmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "also delete downloaded data")
	deleteCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip the confirmation prompt")
}

func runAdd(cmd *cobra.Command, args []string) error {
	opts := qbitapi.AddTorrentOptions{
		SavePath: savePath,
		Category: addCategory,
		Paused:   addPaused,
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "magnet:") ||
			strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			opts.URLs = append(opts.URLs, arg)
			continue
		}
		content, err := os.ReadFile(arg)
		if err != nil {
			return fmt.Errorf("failed to read torrent file: %w", err)
		}
		opts.Files = append(opts.Files, qbitapi.FileUpload{
			Filename: filepath.Base(arg),
			Content:  content,
		})
	}

	if err := client.TorrentsAdd(context.Background(), opts); err != nil {
		return err
	}
	logger.Info().Int("urls", len(opts.URLs)).Int("files", len(opts.Files)).
		Msg("Torrents submitted")
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if !noConfirm {
		action := "delete"
		if deleteFiles {
			action = "delete (including downloaded files)"
		}
		fmt.Printf("About to %s %d torrent(s). Continue? [y/N] ", action, len(args))
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := client.TorrentsDelete(context.Background(), deleteFiles, args...); err != nil {
		return err
	}
	logger.Info().Int("count", len(args)).Bool("delete_files", deleteFiles).
		Msg("Torrents deleted")
	return nil
}
