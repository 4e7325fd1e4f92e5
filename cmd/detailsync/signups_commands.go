package main

import (
	"github.com/spf13/cobra"
	"github.com/terraincognita07/detailsync/internal/cli"
	"github.com/terraincognita07/detailsync/internal/db"
	"github.com/terraincognita07/detailsync/internal/services"
)

func newSignupsCommand(options *rootOptions) *cobra.Command {
	signups := &cobra.Command{
		Use:   "signups",
		Short: "Inspect recorded sign-ups",
	}
	signups.AddCommand(newSignupsListCommand(options), newSignupsShowCommand(options))
	return signups
}

func newSignupsListCommand(options *rootOptions) *cobra.Command {
	listOptions := cli.ListOptions{}
	command := &cobra.Command{
		Use:   "list",
		Short: "List sign-ups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader, closeStore, err := openSignupReader(cmd, options)
			if err != nil {
				return err
			}
			defer closeStore()
			return cli.RunListSignups(cmd.Context(), reader, listOptions, cmd.OutOrStdout())
		},
	}

	flags := command.Flags()
	flags.StringVar(&listOptions.Name, "name", "", "exact name")
	flags.StringVar(&listOptions.Email, "email", "", "email, matched ignoring case and surrounding spaces")
	flags.StringVar(&listOptions.BusinessSize, "business-size", "", "solo, small, medium or large")
	flags.StringVar(&listOptions.CompanyName, "company", "", "exact company name")
	flags.StringVar(&listOptions.CreatedAfter, "created-after", "", "RFC 3339 timestamp or YYYY-MM-DD")
	flags.StringVar(&listOptions.CreatedBefore, "created-before", "", "RFC 3339 timestamp or YYYY-MM-DD")
	flags.IntVar(&listOptions.Limit, "limit", 0, "maximum rows")
	flags.BoolVar(&listOptions.JSON, "json", false, "print JSON")
	return command
}

func newSignupsShowCommand(options *rootOptions) *cobra.Command {
	var asJSON bool
	command := &cobra.Command{
		Use:   "show <id|email>",
		Short: "Show one sign-up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, closeStore, err := openSignupReader(cmd, options)
			if err != nil {
				return err
			}
			defer closeStore()
			return cli.RunShowSignup(cmd.Context(), reader, args[0], asJSON, cmd.OutOrStdout())
		},
	}
	command.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return command
}

func openSignupReader(cmd *cobra.Command, options *rootOptions) (*services.SignupService, func(), error) {
	cfg, logger, err := options.load()
	if err != nil {
		return nil, nil, err
	}
	store, err := db.OpenRecordStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	service := services.NewSignupService(store, services.SignupServiceOptions{Logger: logger})
	return service, func() { _ = store.Close() }, nil
}
