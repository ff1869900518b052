package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the Instagram accounts with feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := backendFor(cmd).Accounts(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if accounts == nil {
					accounts = []string{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(accounts)
			}
			for _, a := range accounts {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	return cmd
}
