package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pageboundapp/pagebound-server/internal/catalog"
	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/filter"
)

func newSeedCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the books of a YAML or JSON catalog file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := catalog.LoadFile(file)
			if err != nil {
				return err
			}
			if err := a.remote.SaveCatalog(cmd.Context(), seed.Books); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "seeded %d books from %s\n", len(seed.Books), seed.Path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Catalog seed file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newBooksCmd(a *app) *cobra.Command {
	var (
		spec  domain.FilterSpec
		price string
		sort  string
		query string
	)

	cmd := &cobra.Command{
		Use:   "books",
		Short: "List the catalog through the filter engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec.PriceRange = domain.PriceRange(price)
			spec.SortBy = domain.SortBy(sort)
			if !spec.Valid() {
				return fmt.Errorf("invalid filter: price=%q sort=%q rating=%d", price, sort, spec.Rating)
			}

			books, err := a.remote.LoadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			books = filter.ApplyFilters(books, spec, query)

			if a.asJSON {
				return a.printJSON(books)
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tPRICE\tRATING")
			for _, b := range books {
				price := "free"
				if !b.IsFree {
					price = fmt.Sprintf("%.2f", b.Price)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\n", b.ID, b.Title, b.Author, b.Genre, price, b.Rating)
			}
			return tw.Flush()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&spec.Genre, "genre", domain.GenreAll, "Genre, case-insensitive")
	flags.StringVar(&price, "price", string(domain.PriceAll), "Price tier (all, free, paid)")
	flags.IntVar(&spec.Rating, "rating", 0, "Whole-star rating bucket, 0 for any")
	flags.StringVar(&sort, "sort", string(domain.SortPopularity), "Order (popularity, rating, price_low, price_high, title, newest)")
	flags.StringVarP(&query, "query", "q", "", "Substring of title, author or genre")
	return cmd
}
