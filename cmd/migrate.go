package cmd

import (
	"fmt"

	"yt-transcripts/app/config"
	"yt-transcripts/app/database"
	"yt-transcripts/app/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据库表",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logger.New(cfg.Log)
		defer log.Close()

		if err := database.Init(cfg, log); err != nil {
			return err
		}
		defer database.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "数据库表已就绪")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
