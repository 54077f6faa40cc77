package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/apiclient"
)

func registerCmd(a *app) *cobra.Command {
	var in apiclient.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			token, err := a.api.Register(ctx, in)
			if err != nil {
				return err
			}
			user, err := a.session.Login(ctx, token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "Full name")
	f.StringVar(&in.Email, "email", "", "Email address")
	f.StringVar(&in.Phone, "phone", "", "10 digit phone number")
	f.StringVar(&in.City, "city", "", "City")
	f.StringVar(&in.State, "state", "", "State")
	f.StringVar(&in.District, "district", "", "District")
	f.StringVar(&in.Pincode, "pincode", "", "6 digit pincode")
	f.StringVar(&in.Address, "address", "", "Street address")
	f.StringVar(&in.Password, "password", "", "Password")
	for _, name := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and move the cart to your account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			token, err := a.api.Login(ctx, email, password)
			if err != nil {
				return err
			}
			user, err := a.session.Login(ctx, token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential and switch to the guest cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.restore(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			user := a.session.Profile()
			if user == nil {
				fmt.Fprintln(out, "guest")
				return nil
			}
			fmt.Fprintf(out, "%s <%s>\nid:      %s\nphone:   %s\naddress: %s\n",
				user.Name, user.Email, user.ID, user.Phone, user.ShippingAddress())
			return nil
		},
	}
}
