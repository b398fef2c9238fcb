package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/aouyang1/photobooth/api/client"
	"github.com/spf13/cobra"
)

var (
	serverFlag   string
	passwordFlag string
	dirFlag      string
)

var capturesCmd = &cobra.Command{
	Use:   "captures",
	Short: "Manage the gallery of a running booth",
}

var capturesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every capture, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		captures, err := client.NewBoothClient(serverFlag).GetCaptures()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTEMPLATE\tSHOTS\tCREATED\tREMOTE")
		for _, c := range captures {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", c.Name, c.Template, c.ShotCount, c.CreatedAt.Local().Format("2006-01-02 15:04:05"), c.RemoteKey)
		}
		return tw.Flush()
	},
}

var capturesDeleteCmd = &cobra.Command{
	Use:   "delete names...",
	Short: "Delete captures (admin password required)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bc := client.NewBoothClient(serverFlag)
		if err := bc.Login(passwordFlag); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		for _, name := range args {
			if err := bc.DeleteCapture(name); err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
		}
		return nil
	},
}

var capturesDownloadCmd = &cobra.Command{
	Use:   "download [names...]",
	Short: "Download captures as PNG files, all of them when no name is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		bc := client.NewBoothClient(serverFlag)

		names := args
		if len(names) == 0 {
			captures, err := bc.GetCaptures()
			if err != nil {
				return err
			}
			for _, c := range captures {
				names = append(names, c.Name)
			}
		}

		if err := os.MkdirAll(dirFlag, 0o755); err != nil {
			return err
		}
		for _, name := range names {
			if err := downloadCapture(bc, name, filepath.Join(dirFlag, name+".png")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s\n", name)
		}
		return nil
	},
}

func downloadCapture(bc *client.BoothClient, name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bc.DownloadCapture(name, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func init() {
	capturesCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "http://localhost:8080", "Booth server URL")
	capturesDeleteCmd.Flags().StringVarP(&passwordFlag, "password", "p", os.Getenv("PB_ADMIN_PASSWORD"), "Admin password (PB_ADMIN_PASSWORD)")
	capturesDownloadCmd.Flags().StringVarP(&dirFlag, "dir", "d", ".", "Directory to write the PNG files to")
	capturesCmd.AddCommand(capturesListCmd, capturesDeleteCmd, capturesDownloadCmd)
}
