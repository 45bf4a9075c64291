package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yt-transcripts/app/database"
	"yt-transcripts/app/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动服务器",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		log := app.log
		defer log.Close()

		srv, err := server.New(app.cfg, log, database.GetDB(), server.Services{
			Repo:        app.repo,
			Ingest:      app.ingest,
			Transcripts: app.transcripts,
			Maintenance: app.maintenance,
		})
		if err != nil {
			database.Close()
			return err
		}

		// 在协程中启动服务器
		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			log.Info("收到关闭信号，正在关闭服务器...")
		case err := <-errCh:
			log.Errorf("启动服务器失败: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("服务器关闭失败: %v", err)
		}
		log.Info("服务器已退出")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
