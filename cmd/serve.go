package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yeremiapane/table-reservations/kds"
	"github.com/yeremiapane/table-reservations/messaging"
	"github.com/yeremiapane/table-reservations/router"
	"github.com/yeremiapane/table-reservations/services"
	"github.com/yeremiapane/table-reservations/utils"
)

func newServeCmd(configPath *string) *cobra.Command {
	var (
		migrateUp     bool
		withScheduler bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the table status scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := loadApp(*configPath, migrateUp)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.GinMode == gin.ReleaseMode {
				gin.SetMode(gin.ReleaseMode)
			}

			hub := kds.NewHub()
			defer hub.Close()
			publishers := services.MultiPublisher{hub}

			if a.cfg.AMQP.URL != "" {
				mq, err := messaging.Dial(a.cfg.AMQP.URL, a.cfg.AMQP.Exchange)
				if err != nil {
					return err
				}
				defer mq.Close()
				publishers = append(publishers, mq)
			}

			opts, cleanup, err := a.engineOptions(ctx, publishers)
			if err != nil {
				return err
			}
			defer cleanup()

			engine, err := services.NewEngine(a.store, opts)
			if err != nil {
				return err
			}

			if withScheduler {
				if err := engine.Scheduler.Start(a.cfg.Scheduler.Interval); err != nil {
					return err
				}
				defer engine.Scheduler.Stop()
			}

			srv := &http.Server{
				Addr:              ":" + a.cfg.Port,
				Handler:           router.SetupRouter(engine, hub, a.cfg),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				utils.InfoLogger.Printf("Listening on port %s", a.cfg.Port)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			utils.InfoLogger.Println("Shutting down")
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().BoolVar(&withScheduler, "scheduler", true, "run the table status scheduler in this process")
	return cmd
}
