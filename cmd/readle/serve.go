package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Nadyita/Readle-sub000/internal/api"
	"github.com/Nadyita/Readle-sub000/internal/auth"
	"github.com/Nadyita/Readle-sub000/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer log.Sync()

		dbPath := viper.GetString("db.path")
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return err
		}

		db, err := storage.NewDatabase(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		authn := auth.New(viper.GetString("server.jwt_secret"))
		router := api.NewRouter(db, newMetadataService(db, log), authn, log)

		addr := viper.GetString("server.addr")
		log.Info("server starting",
			zap.String("addr", addr),
			zap.String("db", dbPath))
		return router.Run(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "bind address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
