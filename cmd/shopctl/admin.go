package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/users"
)

func (c *cli) adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage users (administrators only)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if !c.app.Session().IsAdmin() {
				return fmt.Errorf("admin: %w", errors.ErrNotAuthenticated)
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Users().Load(cmd.Context()); err != nil {
				return err
			}
			c.printUsers()
			return nil
		},
	}

	cmd.AddCommand(
		list,
		c.userAction("toggle-admin", "Grant or revoke admin rights", (*users.Directory).ToggleAdmin),
		c.userAction("toggle-active", "Enable or disable an account", (*users.Directory).ToggleActive),
		c.userAction("delete", "Delete an account", (*users.Directory).Delete),
	)
	return cmd
}

// userAction loads the directory, applies action to the user id argument and prints the result
func (c *cli) userAction(use, short string, action func(d *users.Directory, ctx context.Context, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USER_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("user id: %w", err)
			}
			if err := c.app.Users().Load(cmd.Context()); err != nil {
				return err
			}
			if err := action(c.app.Users(), cmd.Context(), id); err != nil {
				return err
			}
			c.printUsers()
			return nil
		},
	}
}

func (c *cli) printUsers() {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tADMIN\tACTIVE")
	for _, u := range c.app.Users().Users() {
		fmt.Fprintf(w, "%d\t%s\t%t\t%t\n", u.ID, u.Email, u.IsAdmin, u.IsActive)
	}
	w.Flush()
}
