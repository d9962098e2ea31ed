package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/iamvkosarev/ai-interior-designer/config"
	"github.com/iamvkosarev/ai-interior-designer/internal/app"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "designer",
	Short: "Lumina reimagines room photos in a chosen design style",
	Long: `Lumina is an AI interior design studio. Upload a photo of a room, pick a style
and refine the result by chatting with the design consultant, in the browser
or through the optional Telegram bot.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.Run(ctx, cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the config")
}

func Execute() error {
	return rootCmd.Execute()
}
