// Package main provides the entry point for the addressbook CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/addressbook/cmd/addressbook/cmd"
	bookerrors "github.com/Aman-CERP/addressbook/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, bookerrors.FormatForCLI(err))
		os.Exit(1)
	}
}
