package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (c *cli) favoritesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "fav", Short: "Manage favorite products"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite product ids",
		Run: func(cmd *cobra.Command, args []string) {
			for _, id := range c.app.Favorites().Items() {
				fmt.Fprintln(c.out, id)
			}
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle PRODUCT_ID",
		Short: "Add or remove a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product id: %w", err)
			}
			added, err := c.app.Favorites().Toggle(cmd.Context(), id)
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintf(c.out, "%d added\n", id)
			} else {
				fmt.Fprintf(c.out, "%d removed\n", id)
			}
			return nil
		},
	}

	cmd.AddCommand(list, toggle)
	return cmd
}

func (c *cli) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reload cart and favorites from their current store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Sync(cmd.Context()); err != nil {
				return err
			}
			c.printCart()
			fmt.Fprintf(c.out, "%d favorites\n", len(c.app.Favorites().Items()))
			return nil
		},
	}
}
