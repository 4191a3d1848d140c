package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nadyita/Readle-sub000/internal/models"
)

var (
	searchISBN string
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the metadata sources from the command line",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		if query == "" && searchISBN == "" {
			return fmt.Errorf("a query or --isbn is required")
		}

		log := newLogger()
		defer log.Sync()

		svc := newMetadataService(nil, log)

		var (
			results []models.SearchResult
			err     error
		)
		if searchISBN != "" {
			results, err = svc.LookupISBN(context.Background(), searchISBN)
		} else {
			results, err = svc.Search(context.Background(), query)
		}
		if err != nil {
			return err
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		for _, r := range results {
			fmt.Printf("%s - %s", r.Title, r.Author)
			if r.Series != "" {
				fmt.Printf(" (%s", r.Series)
				if r.SeriesNumber != "" {
					fmt.Printf(" #%s", r.SeriesNumber)
				}
				fmt.Print(")")
			}
			if r.ISBN != "" {
				fmt.Printf(" [%s]", r.ISBN)
			}
			fmt.Printf(" <%s>\n", r.Source)
		}
		if len(results) == 0 {
			fmt.Println("no results")
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchISBN, "isbn", "", "look up a single ISBN")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(searchCmd)
}
