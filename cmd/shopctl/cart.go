package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-shop-client/cart"
)

func (c *cli) cartCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "cart", Short: "Manage the shopping cart"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List cart lines",
		Run: func(cmd *cobra.Command, args []string) {
			c.printCart()
		},
	}

	var name string
	var price float64
	add := &cobra.Command{
		Use:   "add PRODUCT_ID QUANTITY",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product id: %w", err)
			}
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity: %w", err)
			}
			item, err := cart.NewItem(productID, name, price, quantity)
			if err != nil {
				return err
			}
			if err := c.app.Cart().Add(cmd.Context(), item); err != nil {
				return err
			}
			c.printCart()
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "product name shown while anonymous")
	add.Flags().Float64Var(&price, "price", 0, "unit price used while anonymous")

	update := &cobra.Command{
		Use:   "update LINE_ID QUANTITY",
		Short: "Change a line's quantity; zero removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("line id: %w", err)
			}
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity: %w", err)
			}
			if err := c.app.Cart().UpdateQuantity(cmd.Context(), id, quantity); err != nil {
				return err
			}
			c.printCart()
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove LINE_ID",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("line id: %w", err)
			}
			if err := c.app.Cart().Remove(cmd.Context(), id); err != nil {
				return err
			}
			c.printCart()
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Cart().Clear(cmd.Context())
		},
	}

	cmd.AddCommand(list, add, update, remove, clearCmd)
	return cmd
}

func (c *cli) printCart() {
	crt := c.app.Cart()
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tPRODUCT\tNAME\tQTY\tPRICE")
	for _, item := range crt.Items() {
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%.2f\n", item.ID, item.ProductID, item.ProductName, item.Quantity, item.Price)
	}
	w.Flush()
	fmt.Fprintf(c.out, "%d items, total %.2f (%s)\n", crt.ItemCount(), crt.TotalPrice(), crt.State())
	if err := crt.Err(); err != nil {
		fmt.Fprintf(c.out, "last error: %v\n", err)
	}
}
