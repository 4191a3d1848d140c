package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Nadyita/Readle-sub000/internal/metadata"
	"github.com/Nadyita/Readle-sub000/internal/reconcile"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "readle",
	Short: "Book catalog with multi-source metadata reconciliation",
	Long: `Readle keeps a local book catalog and enriches it from external
bibliographic sources (DNB, Google Books, ISBNdb, Open Library), merging
their answers into one clean record per book.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./readle.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("readle")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/readle")
	}

	viper.SetEnvPrefix("readle")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("db.path", "./data/readle.db")
	viper.SetDefault("metadata.language", "de")
	viper.SetDefault("metadata.prefer_longest_title", false)

	// Missing config file is fine; defaults and env cover everything.
	viper.ReadInConfig()
}

func newLogger() *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if viper.GetBool("log.debug") {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	cobra.CheckErr(err)
	return log
}

// newMetadataService builds the provider fan-out in priority order. books may
// be nil when no catalog is available (CLI search).
func newMetadataService(books metadata.BookLister, log *zap.Logger) *metadata.Service {
	lang := viper.GetString("metadata.language")

	providers := []metadata.Provider{
		metadata.NewDNBProvider(lang, log),
		metadata.NewGoogleBooksProvider(viper.GetString("metadata.googlebooks_api_key")),
	}
	if key := viper.GetString("metadata.isbndb_api_key"); key != "" {
		providers = append(providers, metadata.NewISBNDBProvider(key))
	}
	providers = append(providers, metadata.NewOpenLibraryProvider())

	svc := metadata.NewService(books, log, providers...)
	svc.SetMergeOptions(reconcile.Options{
		PreferLongestTitle: viper.GetBool("metadata.prefer_longest_title"),
	})
	return svc
}
