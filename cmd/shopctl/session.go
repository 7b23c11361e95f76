package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-shop-client/passkey"
	"github.com/jrsteele09/go-shop-client/token"
	"github.com/jrsteele09/go-shop-client/users"
)

func (c *cli) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Inspect and manage the login session"}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show who is logged in",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.app.Session()
			identity, ok := s.Identity()
			if !s.IsAuthenticated() || !ok {
				fmt.Fprintln(c.out, "anonymous")
				return nil
			}
			fmt.Fprintf(c.out, "logged in as %s (id %d, admin %t)\n", identity.Email, identity.ID, identity.IsAdmin)
			if t, ok := s.Token(); ok {
				fmt.Fprintf(c.out, "access token expires %s\n", t.Expiry.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	login := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Log in through the development backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.DevLogin(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "logged in as %s\n", args[0])
			return nil
		},
	}

	var accessToken, refreshToken, userJSON string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Install tokens obtained elsewhere, for example from a browser passkey login",
		RunE: func(cmd *cobra.Command, args []string) error {
			var user users.Record
			if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			if _, err := token.ExpiryOf(accessToken); err != nil {
				return fmt.Errorf("--access: %w", err)
			}
			return c.app.Login(cmd.Context(), &passkey.LoginResult{
				Success:      true,
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				User:         user,
			})
		},
	}
	importCmd.Flags().StringVar(&accessToken, "access", "", "access token")
	importCmd.Flags().StringVar(&refreshToken, "refresh", "", "refresh token")
	importCmd.Flags().StringVar(&userJSON, "user", "", `user record, e.g. {"id":1,"email":"a@b.c","is_admin":false}`)
	_ = importCmd.MarkFlagRequired("access")
	_ = importCmd.MarkFlagRequired("refresh")
	_ = importCmd.MarkFlagRequired("user")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the session",
		Run: func(cmd *cobra.Command, args []string) {
			c.app.Logout()
		},
	}

	keepAlive := &cobra.Command{
		Use:   "keepalive",
		Short: "Keep renewing the access token until interrupted",
		Annotations: map[string]string{annotationKeepAlive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ka := c.app.KeepAlive()
			if ka == nil {
				return fmt.Errorf("keepalive is disabled (KEEPALIVE_ENABLED)")
			}
			if next := ka.NextRun(); next != nil {
				fmt.Fprintf(c.out, "next check %s\n", next.Format("15:04:05"))
			}
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case <-stop:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}

	cmd.AddCommand(status, login, importCmd, logout, keepAlive)
	return cmd
}
