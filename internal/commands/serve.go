package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-engine/internal/api"
	"github.com/insightdelivered/statement-engine/internal/engine"
)

func newServeCommand(deps *dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := deps.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfgs, err := deps.dialects()
			if err != nil {
				return err
			}
			eng, err := engine.New(cfgs, log)
			if err != nil {
				return err
			}

			app := fiber.New(fiber.Config{
				AppName:   "statement-engine",
				BodyLimit: 32 << 20, // statement PDFs with embedded fonts run large
			})
			api.New(eng, log).Register(app)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-stop
				log.Info("shutting down")
				_ = app.Shutdown()
			}()

			log.Info("listening", zap.String("addr", addr))
			return app.Listen(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
