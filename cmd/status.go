package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type statusReport struct {
	Access  string `json:"access"`
	Email   string `json:"email,omitempty"`
	Storage string `json:"storage"`
	Stored  bool   `json:"storage_available"`
	APIURL  string `json:"api_url"`
}

func newStatusCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session and credential store state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := statusReport{
				Access:  app.Session.GuardedAccess().String(),
				Storage: app.Config.Storage.Backend,
				Stored:  app.Store != nil,
				APIURL:  app.Config.APIURL,
			}
			if u := app.Session.User(); u != nil {
				r.Email = u.Email
			}

			out := cmd.OutOrStdout()
			if asJSON {
				b, err := json.MarshalIndent(r, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}

			fmt.Fprintf(out, "Session: %s", r.Access)
			if r.Email != "" {
				fmt.Fprintf(out, " (%s)", r.Email)
			}
			fmt.Fprintln(out)
			store := r.Storage
			if !r.Stored {
				store += " (unavailable)"
			}
			fmt.Fprintf(out, "Storage: %s\n", store)
			fmt.Fprintf(out, "API:     %s\n", r.APIURL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
