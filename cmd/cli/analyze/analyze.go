package analyze

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/crucial707/brewlog/cmd/cli/client"
	"github.com/crucial707/brewlog/cmd/cli/coffees"
	"github.com/crucial707/brewlog/cmd/cli/config"
	"github.com/crucial707/brewlog/cmd/cli/output"
)

// labelFields is the display order for an analyzed label.
var labelFields = []string{"name", "origin", "process", "cultivar", "altitude", "roaster", "tastingNotes", "addedDate"}

// InitAnalyze registers the analyze command on the root command.
func InitAnalyze(rootCmd *cobra.Command) {
	rootCmd.AddCommand(analyzeCmd())
}

func analyzeCmd() *cobra.Command {
	var (
		image     string
		mediaType string
		asJSON    bool
		save      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Read a coffee bag label from a photo",
		Long:  "Send a photo of a coffee bag to the API and print the extracted label. With --save the result is added to your coffee list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if image == "" {
				return fmt.Errorf("--image is required")
			}
			data, err := os.ReadFile(image)
			if err != nil {
				return err
			}
			if mediaType == "" {
				mediaType = mime.TypeByExtension(filepath.Ext(image))
			}

			var resp struct {
				Data json.RawMessage `json:"data"`
			}
			err = client.CallJSONEndpoint(cmd.Context(), http.MethodPost, "/api/analyze-coffee", map[string]string{
				"imageData": base64.StdEncoding.EncodeToString(data),
				"mediaType": mediaType,
			}, &resp)
			if err != nil {
				return fmt.Errorf("failed to analyze image: %w", err)
			}

			if asJSON {
				var pretty any
				_ = json.Unmarshal(resp.Data, &pretty)
				b, _ := json.MarshalIndent(pretty, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
			} else {
				label := gjson.ParseBytes(resp.Data)
				fields := make([][2]string, 0, len(labelFields))
				for _, f := range labelFields {
					fields = append(fields, [2]string{f, label.Get(f).String()})
				}
				output.RenderFields(cmd.OutOrStdout(), fields)
			}

			if !save {
				return nil
			}
			return appendCoffee(cmd, resp.Data)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "path to a JPEG, PNG, GIF or WebP photo")
	cmd.Flags().StringVar(&mediaType, "media-type", "", "override the media type guessed from the file extension")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")
	cmd.Flags().BoolVar(&save, "save", false, "add the result to your coffee list")
	return cmd
}

// appendCoffee re-saves the full list with label added. The API lists records
// newest first, so existing records are written back oldest first and label last.
// Server-assigned fields are dropped so they are not stored inside the records.
func appendCoffee(cmd *cobra.Command, label json.RawMessage) error {
	token, err := config.LoadToken()
	if err != nil {
		return err
	}

	existing, err := coffees.Fetch(cmd.Context(), token)
	if err != nil {
		return fmt.Errorf("failed to load coffee list: %w", err)
	}

	list := make([]json.RawMessage, 0, len(existing)+1)
	for i := len(existing) - 1; i >= 0; i-- {
		c := existing[i]
		var m map[string]any
		if err := json.Unmarshal(c, &m); err != nil || m == nil {
			list = append(list, c)
			continue
		}
		delete(m, "dbId")
		delete(m, "savedAt")
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		list = append(list, b)
	}
	list = append(list, label)

	saved, err := coffees.Replace(cmd.Context(), token, list)
	if err != nil {
		return fmt.Errorf("failed to save coffee list: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved. Your list now has %d coffee(s).\n", saved)
	return nil
}
