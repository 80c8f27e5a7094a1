package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"eshop/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// errNotLoggedIn gates the admin commands.
var errNotLoggedIn = errors.New("admin commands require login: run `shop login` first")

func newProductsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := e.api.ListProducts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load products: %w", err)
			}
			if len(products) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No products available.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPRICE\tDESCRIPTION")
			for _, p := range products {
				fmt.Fprintf(w, "%s\t%s\t$%s\t%s\n", p.ID, p.Title, p.Price.StringFixed(2), p.Description)
			}
			return w.Flush()
		},
	}
}

func newCartCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCart(cmd.OutOrStdout(), e)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.cart.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cart: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared.")
			return nil
		},
	})
	return cmd
}

func printCart(out io.Writer, e *env) error {
	items := e.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(out, "Your cart is empty.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tQTY\tSUBTOTAL")
	for _, item := range items {
		subtotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		fmt.Fprintf(w, "%s\t%s\t$%s\t%d\t$%s\n",
			item.Product.ID, item.Product.Title, item.Product.Price.StringFixed(2), item.Quantity, subtotal.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Items: %d  Total: $%s\n", e.cart.TotalItems(), e.cart.TotalAmount().StringFixed(2))
	return nil
}

func newAddCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product, err := e.api.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load product %s: %w", args[0], err)
			}
			if _, err := e.cart.AddItem(cmd.Context(), *product); err != nil {
				return fmt.Errorf("failed to save cart: %w", err)
			}
			return nil
		},
	}
}

func newRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := e.cart.RemoveItem(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to save cart: %w", err)
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Product %s is not in the cart.\n", args[0])
			}
			return nil
		},
	}
}

func newQtyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "qty <product-id> <quantity>",
		Short: "Set the quantity of a cart line (values below 1 become 1)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}
			updated, err := e.cart.SetQuantity(cmd.Context(), args[0], quantity)
			if err != nil {
				return fmt.Errorf("failed to save cart: %w", err)
			}
			if !updated {
				fmt.Fprintf(cmd.OutOrStdout(), "Product %s is not in the cart.\n", args[0])
				return nil
			}
			return printCart(cmd.OutOrStdout(), e)
		},
	}
}

func newLoginCmd(e *env) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email|mobile|username>",
		Short: "Log in to the admin console",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := e.api.Login(cmd.Context(), args[0], password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := e.session.SetLoggedIn(cmd.Context(), true); err != nil {
				return fmt.Errorf("failed to store session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the admin console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.session.SetLoggedIn(cmd.Context(), false); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newRegisterCmd(e *env) *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.api.Register(cmd.Context(), req); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "User created successfully.")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "username")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Mobile, "mobile", "", "mobile number (digits only)")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password")
	for _, name := range []string{"username", "email", "mobile", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newAdminCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the catalog (requires login)",
	}
	cmd.AddCommand(newAdminCreateCmd(e), newAdminUpdateCmd(e), newAdminDeleteCmd(e))
	return cmd
}

func (e *env) requireLogin(cmd *cobra.Command) error {
	loggedIn, err := e.session.LoggedIn(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if !loggedIn {
		return errNotLoggedIn
	}
	return nil
}

func newAdminCreateCmd(e *env) *cobra.Command {
	var title, description, price, imageURL string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(cmd); err != nil {
				return err
			}
			amount, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", price, err)
			}
			product, err := e.api.CreateProduct(cmd.Context(), models.ProductInput{
				Title:       title,
				Description: description,
				Price:       &amount,
				ImageURL:    imageURL,
			})
			if err != nil {
				return fmt.Errorf("failed to create product: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created product %s (%s).\n", product.ID, product.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "product title")
	cmd.Flags().StringVar(&description, "description", "", "product description")
	cmd.Flags().StringVar(&price, "price", "", "product price, e.g. 19.99")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "product image URL")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newAdminUpdateCmd(e *env) *cobra.Command {
	var title, description, price, imageURL string
	cmd := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Update the given fields of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(cmd); err != nil {
				return err
			}
			var patch models.ProductPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("image-url") {
				patch.ImageURL = &imageURL
			}
			if flags.Changed("price") {
				amount, err := decimal.NewFromString(price)
				if err != nil {
					return fmt.Errorf("invalid price %q: %w", price, err)
				}
				patch.Price = &amount
			}
			product, err := e.api.UpdateProduct(cmd.Context(), args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated product %s (%s, $%s).\n", product.ID, product.Title, product.Price.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&price, "price", "", "new price")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "new image URL")
	return cmd
}

func newAdminDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(cmd); err != nil {
				return err
			}
			if err := e.api.DeleteProduct(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete product: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Product deleted successfully.")
			return nil
		},
	}
}
