package cmd

import (
	"fmt"

	"yt-transcripts/app/service"

	"github.com/spf13/cobra"
)

var (
	fetchJobID      uint
	fetchVideoID    uint
	fetchStoreLines bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "抓取已有任务或单个视频的字幕",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if fetchVideoID != 0 {
			video, err := app.transcripts.FetchVideo(ctx, fetchVideoID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Transcript fetched for %s\n", video.Title)
			return nil
		}

		result, err := app.transcripts.FetchJob(ctx, fetchJobID, service.FetchOptions{StoreLines: fetchStoreLines})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "成功 %d，失败 %d\n", result.Fetched, result.Failed)
		return nil
	},
}

func init() {
	fetchCmd.Flags().UintVar(&fetchJobID, "job", 0, "任务 ID")
	fetchCmd.Flags().UintVar(&fetchVideoID, "video", 0, "视频记录 ID")
	fetchCmd.Flags().BoolVar(&fetchStoreLines, "store-lines", false, "保存字幕文本（仅 --job）")
	fetchCmd.MarkFlagsMutuallyExclusive("job", "video")
	fetchCmd.MarkFlagsOneRequired("job", "video")
	rootCmd.AddCommand(fetchCmd)
}
