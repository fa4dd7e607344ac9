package coffees

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/crucial707/brewlog/cmd/cli/client"
	"github.com/crucial707/brewlog/cmd/cli/config"
	"github.com/crucial707/brewlog/cmd/cli/output"
)

// ==========================
// Init Coffees
// ==========================
func InitCoffees(rootCmd *cobra.Command) {
	coffeesCmd := &cobra.Command{
		Use:   "coffees",
		Short: "Read or replace your coffee list",
	}

	coffeesCmd.AddCommand(
		listCoffeesCmd(),
		saveCoffeesCmd(),
	)

	rootCmd.AddCommand(coffeesCmd)
}

// Fetch returns the stored coffee list as raw JSON objects, server fields included.
func Fetch(ctx context.Context, token string) ([]json.RawMessage, error) {
	var resp struct {
		Coffees []json.RawMessage `json:"coffees"`
	}
	err := client.CallJSONEndpoint(ctx, http.MethodGet, "/api/coffees?token="+url.QueryEscape(token), nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Coffees, nil
}

// Replace overwrites the stored coffee list and returns the number saved.
func Replace(ctx context.Context, token string, coffees []json.RawMessage) (int, error) {
	if coffees == nil {
		coffees = []json.RawMessage{}
	}
	var resp struct {
		Saved int `json:"saved"`
	}
	err := client.CallJSONEndpoint(ctx, http.MethodPost, "/api/coffees",
		map[string]any{"token": token, "coffees": coffees}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Saved, nil
}

// ==========================
// LIST
// ==========================
func listCoffeesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved coffees, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.LoadToken()
			if err != nil {
				return err
			}

			coffees, err := Fetch(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to list coffees: %w", err)
			}

			if asJSON {
				b, _ := json.MarshalIndent(coffees, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}

			if len(coffees) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No coffees saved yet.")
				return nil
			}

			rows := make([][]interface{}, 0, len(coffees))
			for _, c := range coffees {
				doc := gjson.ParseBytes(c)
				rows = append(rows, []interface{}{
					doc.Get("dbId").Int(),
					doc.Get("name").String(),
					doc.Get("origin").String(),
					doc.Get("roaster").String(),
					doc.Get("process").String(),
					doc.Get("savedAt").String(),
				})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Origin", "Roaster", "Process", "Saved"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")
	return cmd
}

// ==========================
// SAVE (full replace)
// ==========================
func saveCoffeesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Replace the stored list with a JSON array from a file",
		Long:  "Replace the stored coffee list with the JSON array in --file (\"-\" reads stdin). Anything stored before is discarded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			token, err := config.LoadToken()
			if err != nil {
				return err
			}

			var data []byte
			if file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return err
			}

			var coffees []json.RawMessage
			if err := json.Unmarshal(data, &coffees); err != nil {
				return fmt.Errorf("%s: expected a JSON array: %w", file, err)
			}

			saved, err := Replace(cmd.Context(), token, coffees)
			if err != nil {
				return fmt.Errorf("failed to save coffees: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d coffee(s).\n", saved)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON array of coffees (\"-\" for stdin)")
	return cmd
}
