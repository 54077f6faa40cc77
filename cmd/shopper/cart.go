package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func cartCmd(a *app) *cobra.Command {
	show := func(cmd *cobra.Command, _ []string) error {
		if err := a.restore(cmd.Context()); err != nil {
			return err
		}
		return showCart(cmd, a)
	}
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart of the current identity",
		RunE:  show,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		RunE:  show,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add [product-id]",
		Short: "Add a product, or one more of it",
		Args:  cobra.ExactArgs(1),
		RunE: cartAction(a, func(ctx context.Context, id string) error {
			p, err := a.api.Product(ctx, id)
			if err != nil {
				return err
			}
			return a.cart.Add(ctx, *p)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "inc [product-id]",
		Short: "Increase a line's quantity by one",
		Args:  cobra.ExactArgs(1),
		RunE:  cartAction(a, func(ctx context.Context, id string) error { return a.cart.Increment(ctx, id) }),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "dec [product-id]",
		Short: "Decrease a line's quantity by one, removing it at zero",
		Args:  cobra.ExactArgs(1),
		RunE:  cartAction(a, func(ctx context.Context, id string) error { return a.cart.Decrement(ctx, id) }),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm [product-id]",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE:  cartAction(a, func(ctx context.Context, id string) error { return a.cart.Remove(ctx, id) }),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.restore(ctx); err != nil {
				return err
			}
			if err := a.cart.Clear(ctx); err != nil {
				return err
			}
			return showCart(cmd, a)
		},
	})
	return cmd
}

// cartAction restores the session, applies fn to the product id argument and prints the cart.
func cartAction(a *app, fn func(ctx context.Context, productID string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := a.restore(ctx); err != nil {
			return err
		}
		if err := fn(ctx, args[0]); err != nil {
			return err
		}
		return showCart(cmd, a)
	}
}

func showCart(cmd *cobra.Command, a *app) error {
	out := cmd.OutOrStdout()
	owner := "guest"
	if user := a.session.Profile(); user != nil {
		owner = user.Email
	}
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintf(out, "cart (%s) is empty\n", owner)
		return nil
	}
	fmt.Fprintf(out, "cart (%s), %d item(s)\n", owner, a.cart.Count())
	if err := printLines(out, lines); err != nil {
		return err
	}
	fmt.Fprintf(out, "total: %s\n", a.cart.Total().StringFixed(2))
	return nil
}
