package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/aouyang1/photobooth/api"
	"github.com/aouyang1/photobooth/store"
	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd [password]",
	Short: "Set the admin password directly in the booth database",
	Long: `Passwd replaces the admin password hash in the database under the configured
root path. Without an argument the password is read from stdin. Tokens issued by a
running server stay valid until it restarts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		password := ""
		if len(args) == 1 {
			password = args[0]
		} else {
			fmt.Fprint(cmd.ErrOrStderr(), "New admin password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return errors.New("password is required")
		}

		database, err := store.NewDatabase(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer database.Close()

		return setPassword(database, password)
	},
}

func setPassword(db *store.Database, password string) error {
	hash, err := api.HashPassword(password)
	if err != nil {
		return err
	}
	if err := db.UpsertAdminHash(hash); err != nil {
		return fmt.Errorf("store admin password: %w", err)
	}
	return nil
}
