package auth

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/crucial707/brewlog/cmd/cli/client"
	"github.com/crucial707/brewlog/cmd/cli/config"
)

// InitAuth registers account commands (register, whoami, logout) on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(registerCmd(), whoamiCmd(), logoutCmd())
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Claim one of the journal's user spots",
		Long:  "Register a username with the brewlog API and store the returned token locally. Tokens never expire.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("username is required")
			}

			var resp struct {
				User struct {
					Username string `json:"username"`
					Token    string `json:"token"`
				} `json:"user"`
				SpotsRemaining int `json:"spotsRemaining"`
			}
			err := client.CallJSONEndpoint(cmd.Context(), http.MethodPost, "/api/auth/register",
				map[string]string{"username": username}, &resp)
			if err != nil {
				return fmt.Errorf("failed to register: %w", err)
			}
			if resp.User.Token == "" {
				return fmt.Errorf("registration succeeded but no token returned")
			}

			if err := config.SaveToken(resp.User.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Token stored locally. %d spot(s) left.\n",
				resp.User.Username, resp.SpotsRemaining)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to register")
	return cmd
}

// ==========================
// Whoami
// ==========================
func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user the stored token belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return err
			}

			var resp struct {
				User struct {
					ID       int64  `json:"id"`
					Username string `json:"username"`
				} `json:"user"`
			}
			err = client.CallJSONEndpoint(cmd.Context(), http.MethodGet,
				"/api/auth/validate?token="+url.QueryEscape(token), nil, &resp)
			if err != nil {
				return fmt.Errorf("failed to validate token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", resp.User.Username, resp.User.ID)
			return nil
		},
	}
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally saved token",
		Long:  "Remove the locally saved token. The token stays valid on the server; keep a copy if you want to log back in.",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.RemoveToken()
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully.")
			return nil
		},
	}
}
