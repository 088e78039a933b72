package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/addressbook/internal/config"
	"github.com/Aman-CERP/addressbook/internal/contact"
	"github.com/Aman-CERP/addressbook/internal/daemon"
	"github.com/Aman-CERP/addressbook/internal/output"
)

// daemonConfig derives daemon settings from the user configuration.
// Empty paths keep the ~/.addressbook defaults.
func daemonConfig(cfg *config.Config) daemon.Config {
	dcfg := daemon.DefaultConfig()
	if cfg.Server.SocketPath != "" {
		dcfg.SocketPath = cfg.Server.SocketPath
	}
	if cfg.Server.PIDPath != "" {
		dcfg.PIDPath = cfg.Server.PIDPath
	}
	if cfg.Server.Timeout > 0 {
		dcfg.Timeout = cfg.Server.Timeout
	}
	return dcfg
}

// newClient loads the configuration and returns a daemon client for it.
func newClient() (*daemon.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return daemon.NewClient(daemonConfig(cfg)), nil
}

// wantJSON reports whether results should be printed as JSON: always with
// --json, and whenever stdout is not a terminal.
func wantJSON(w io.Writer) bool {
	return jsonOutput || !output.IsTTY(w)
}

func printContacts(cmd *cobra.Command, contacts []contact.Contact) error {
	out := output.New(cmd.OutOrStdout())
	if wantJSON(cmd.OutOrStdout()) {
		if contacts == nil {
			contacts = []contact.Contact{}
		}
		return out.JSON(contacts)
	}
	out.Contacts(contacts)
	return nil
}
