package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront/internal/checkout"
	"storefront/internal/domain"
)

func checkoutCmd(a *app) *cobra.Command {
	var (
		method  string
		address string
		retries int
		proof   domain.PaymentProof
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Long: `Place an order for everything in the cart.

With --method card a payment session is opened first. Complete the payment
with the gateway, then pass --payment-id and --signature (or type them when
prompted). The cart is emptied only after the order is accepted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.requireLogin(ctx); err != nil {
				return err
			}
			pm, ok := domain.ParsePaymentMethod(method)
			if !ok {
				return fmt.Errorf("unknown payment method %q, want cod or card", method)
			}

			collector := &promptCollector{
				proof: proof,
				in:    bufio.NewReader(cmd.InOrStdin()),
				out:   cmd.OutOrStdout(),
			}
			flow := checkout.New(a.api, a.session, a.cart, collector, a.logger)

			order, err := flow.Checkout(ctx, checkout.Request{Method: pm, Address: address})
			for attempt := 0; transient(err) && attempt < retries; attempt++ {
				fmt.Fprintf(cmd.ErrOrStderr(), "checkout failed (%v), retrying\n", err)
				order, err = flow.Retry(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "order %s placed, %s %s, total %s\n",
				order.ID, order.Status, order.PaymentMethod, order.TotalAmount.StringFixed(2))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&method, "method", "m", string(domain.PaymentCOD), "Payment method (cod, card)")
	f.StringVar(&address, "address", "", "Shipping address; defaults to the profile address")
	f.IntVar(&retries, "retries", 1, "Times to resend a checkout that failed in transit")
	f.StringVar(&proof.GatewayOrderID, "order-id", "", "Gateway order id; defaults to the opened session")
	f.StringVar(&proof.GatewayPaymentID, "payment-id", "", "Gateway payment id")
	f.StringVar(&proof.Signature, "signature", "", "Gateway signature")
	return cmd
}

// transient reports whether resending the same checkout can succeed.
func transient(err error) bool {
	return errors.Is(err, domain.ErrUpstream) || errors.Is(err, domain.ErrPersistence)
}

// promptCollector fills the payment proof from flags, asking for whatever is missing.
type promptCollector struct {
	proof domain.PaymentProof
	in    *bufio.Reader
	out   io.Writer
}

func (c *promptCollector) Collect(_ context.Context, s *domain.PaymentSession) (domain.PaymentProof, error) {
	fmt.Fprintf(c.out, "payment session %s opened for %d %s (minor units)\n", s.ID, s.Amount, s.Currency)

	proof := c.proof
	if proof.GatewayOrderID == "" {
		proof.GatewayOrderID = s.ID
	}
	var err error
	if proof.GatewayPaymentID == "" {
		if proof.GatewayPaymentID, err = c.ask("payment id"); err != nil {
			return domain.PaymentProof{}, err
		}
	}
	if proof.Signature == "" {
		if proof.Signature, err = c.ask("signature"); err != nil {
			return domain.PaymentProof{}, err
		}
	}
	return proof, nil
}

func (c *promptCollector) ask(label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s is required for card payments", label)
	}
	return line, nil
}

func ordersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.requireLogin(ctx); err != nil {
				return err
			}
			orders, err := a.api.History(ctx, a.session.Token())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(orders) == 0 {
				fmt.Fprintln(out, "no orders yet")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPLACED\tSTATUS\tMETHOD\tITEMS\tTOTAL")
			for _, o := range orders {
				items := 0
				for _, l := range o.Items {
					items += l.Quantity
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					o.ID, o.CreatedAt.Local().Format("2006-01-02 15:04"), o.Status, o.PaymentMethod, items, o.TotalAmount.StringFixed(2))
			}
			return tw.Flush()
		},
	}
}
