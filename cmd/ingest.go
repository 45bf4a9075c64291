package cmd

import (
	"fmt"

	"yt-transcripts/app/service"

	"github.com/spf13/cobra"
)

var (
	ingestPlaylist   string
	ingestStoreLines bool
	ingestSkipFetch  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "抓取播放列表并下载字幕",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		job, err := app.ingest.Search(ctx, ingestPlaylist)
		if err != nil {
			return fmt.Errorf("抓取播放列表 %s 失败: %w", ingestPlaylist, err)
		}
		fmt.Fprintf(out, "任务 %d: %s，共 %d 个视频\n", job.ID, job.DisplayName(), job.VideoCount)

		if ingestSkipFetch {
			return nil
		}
		result, err := app.transcripts.FetchJob(ctx, job.ID, service.FetchOptions{StoreLines: ingestStoreLines})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "字幕抓取完成: 成功 %d，失败 %d\n", result.Fetched, result.Failed)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestPlaylist, "playlist", "p", "", "播放列表 ID")
	ingestCmd.Flags().BoolVar(&ingestStoreLines, "store-lines", false, "保存字幕文本")
	ingestCmd.Flags().BoolVar(&ingestSkipFetch, "skip-transcripts", false, "只抓取视频列表")
	_ = ingestCmd.MarkFlagRequired("playlist")
	rootCmd.AddCommand(ingestCmd)
}
