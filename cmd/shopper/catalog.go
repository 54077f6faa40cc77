package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront/internal/domain"
)

func productsCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "products [id]",
		Short: "List the catalog, one category, or a single product",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				products []domain.Product
				err      error
			)
			switch {
			case len(args) == 1:
				var p *domain.Product
				if p, err = a.api.Product(ctx, args[0]); err == nil {
					products = []domain.Product{*p}
				}
			case category != "":
				products, err = a.api.ProductsByCategory(ctx, category)
			default:
				products, err = a.api.Products(ctx)
			}
			if err != nil {
				return err
			}
			return printProducts(cmd.OutOrStdout(), products)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list this category (Male, Female, Kids)")
	return cmd
}

func printProducts(w io.Writer, products []domain.Product) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tCATEGORY\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Brand, p.Category, p.Price.StringFixed(2))
	}
	return tw.Flush()
}

func printLines(w io.Writer, lines []domain.CartLine) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, l.Price.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	return tw.Flush()
}
