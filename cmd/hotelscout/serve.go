package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"hotelscout/internal/api"
)

var flagStaticDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the portfolio API and the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		// Read endpoints work without a credential; only refresh needs one.
		if err := a.cfg.ValidateCredentials(); err != nil {
			a.logger.Warn("%v (refresh will fail until it is set)", err)
		}

		handler := api.NewHandler(a.svc)
		router := gin.Default()
		api.RegisterRoutes(router, handler, flagStaticDir)

		a.logger.Info("listening on :%s", a.cfg.Port)
		return router.Run(":" + a.cfg.Port)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagStaticDir, "static", "web/static", "Directory with the dashboard assets")
	rootCmd.AddCommand(serveCmd)
}
