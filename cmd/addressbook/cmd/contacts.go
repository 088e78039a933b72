package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/addressbook/internal/contact"
	"github.com/Aman-CERP/addressbook/internal/daemon"
	bookerrors "github.com/Aman-CERP/addressbook/internal/errors"
	"github.com/Aman-CERP/addressbook/internal/output"
)

func newCreateCmd() *cobra.Command {
	var (
		input    daemon.ContactInput
		filePath string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create contacts",
		Long: `Create one contact from flags, or a batch from a JSON file holding an
array of {"name","phone","email"} objects. Every created contact gets a
fresh id, which is printed.`,
		Example: `  addressbook create --name "Alice Smith" --phone 555-0100
  addressbook create --file contacts.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inputs, err := createInputs(cmd, input, filePath)
			if err != nil {
				return err
			}

			client, err := newClient()
			if err != nil {
				return err
			}
			created, err := client.Create(cmd.Context(), inputs)
			if err != nil {
				return err
			}

			if wantJSON(cmd.OutOrStdout()) {
				return printContacts(cmd, created)
			}
			out := output.New(cmd.OutOrStdout())
			out.Successf("Created %d contact(s)", len(created))
			out.Contacts(created)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "Contact name")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "Contact phone")
	cmd.Flags().StringVar(&input.Email, "email", "", "Contact email")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "JSON file with an array of contacts")
	cmd.MarkFlagsMutuallyExclusive("file", "name")
	cmd.MarkFlagsMutuallyExclusive("file", "phone")
	cmd.MarkFlagsMutuallyExclusive("file", "email")

	return cmd
}

// createInputs reads the batch from --file, or builds a single contact from flags.
func createInputs(cmd *cobra.Command, input daemon.ContactInput, filePath string) ([]daemon.ContactInput, error) {
	if filePath == "" {
		if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("phone") && !cmd.Flags().Changed("email") {
			return nil, bookerrors.New(bookerrors.ErrCodeInvalidInput, "nothing to create", nil).
				WithSuggestion("pass --name/--phone/--email or --file")
		}
		return []daemon.ContactInput{input}, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, bookerrors.New(bookerrors.ErrCodeFileNotFound, "failed to read contacts file", err).
			WithDetail("path", filePath)
	}
	var inputs []daemon.ContactInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, bookerrors.New(bookerrors.ErrCodeInvalidInput, "contacts file is not a JSON array of contacts", err).
			WithDetail("path", filePath)
	}
	return inputs, nil
}

func newUpdateCmd() *cobra.Command {
	var name, phone, email string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a contact",
		Long: `Update a contact in place. Only the flags given are changed; an empty
value leaves the field as it was.`,
		Example: `  addressbook update 4f1c... --phone 555-0199`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := contact.Patch{ID: args[0]}
			if cmd.Flags().Changed("name") {
				patch.Name = contact.String(name)
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = contact.String(phone)
			}
			if cmd.Flags().Changed("email") {
				patch.Email = contact.String(email)
			}

			client, err := newClient()
			if err != nil {
				return err
			}
			results, err := client.Update(cmd.Context(), []contact.Patch{patch})
			if err != nil {
				return err
			}

			var updated *contact.Contact
			if len(results) > 0 {
				updated = results[0]
			}
			if wantJSON(cmd.OutOrStdout()) {
				return output.New(cmd.OutOrStdout()).JSON(updated)
			}
			out := output.New(cmd.OutOrStdout())
			if updated == nil {
				out.Warningf("No contact with id %s", args[0])
				return nil
			}
			out.Success("Contact updated")
			out.Contacts([]contact.Contact{*updated})
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&phone, "phone", "", "New phone")
	cmd.Flags().StringVar(&email, "email", "", "New email")

	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			c, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if wantJSON(cmd.OutOrStdout()) {
				return output.New(cmd.OutOrStdout()).JSON(c)
			}
			out := output.New(cmd.OutOrStdout())
			if c == nil {
				out.Warningf("No contact with id %s", args[0])
				return nil
			}
			out.Contacts([]contact.Contact{*c})
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete contacts by id",
		Long:  `Delete contacts. Unknown ids are ignored; the count of removed contacts is printed.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			deleted, err := client.Delete(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if wantJSON(cmd.OutOrStdout()) {
				return out.JSON(daemon.DeleteResult{Deleted: deleted})
			}
			out.Successf("Deleted %d of %d contact(s)", deleted, len(args))
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <token>",
		Short: "Find contacts by one name token",
		Long: `Find contacts whose name contains the given token, ignoring case.
The query is matched as a single token: "smith" finds "Alice Smith",
but "alice smith" matches nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			found, err := client.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printContacts(cmd, found)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			all, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			return printContacts(cmd, all)
		},
	}
}

func newDuplicatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "Show groups of likely duplicate contacts",
		Long: `Group contacts whose name, phone and email are all equal ignoring case.
Only groups with two or more members are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			groups, err := client.Duplicates(cmd.Context())
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if wantJSON(cmd.OutOrStdout()) {
				if groups == nil {
					groups = [][]contact.Contact{}
				}
				return out.JSON(groups)
			}
			out.Duplicates(groups)
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the name index against the stored contacts",
		Long: `Check that every contact is indexed under each of its name tokens and
that the index references no missing contacts. With --repair, reported
issues are fixed in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			result, err := client.Check(cmd.Context(), repair)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if wantJSON(cmd.OutOrStdout()) {
				if err := out.JSON(result); err != nil {
					return err
				}
				return unrepairedIssues(result, repair)
			}
			if len(result.Issues) == 0 {
				out.Successf("Index consistent (%d contacts checked in %s)", result.Checked, result.Duration)
				return nil
			}
			out.Warningf("%d issue(s) found in %d contacts", len(result.Issues), result.Checked)
			for _, issue := range result.Issues {
				out.Status("", fmt.Sprintf("%-16s id=%s token=%q", issue.Type, issue.ContactID, issue.Token))
			}
			if repair {
				out.Successf("Repaired %d issue(s)", result.Repaired)
			}
			return unrepairedIssues(result, repair)
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Fix reported issues")
	return cmd
}

// unrepairedIssues fails the check command while index issues remain.
func unrepairedIssues(result *daemon.CheckResult, repair bool) error {
	remaining := len(result.Issues)
	if repair {
		remaining -= result.Repaired
	}
	if remaining <= 0 {
		return nil
	}
	return bookerrors.IndexInconsistentError(remaining)
}
