package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/internal/permission"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

var (
	permissionsBaseURL  string
	permissionsUser     string
	permissionsPassword string
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Read and replace position permissions on a running server",
	Long: `Talks to the permission registry of a running server as an admin account.
The password may also be given through the SEKRETERLIK_PASSWORD environment variable.`,
}

var permissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the permissions of every position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *permission.Client) error {
			return printJSON(c.GetAllPermissions(ctx))
		})
	},
}

var permissionsGetCmd = &cobra.Command{
	Use:   "get [position]",
	Short: "Print the permissions of one position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *permission.Client) error {
			return printJSON(c.GetPermissionsForPosition(ctx, args[0]))
		})
	},
}

var permissionsSetCmd = &cobra.Command{
	Use:   "set [position] [permission,...]",
	Short: "Replace the permissions of one position",
	Long:  `Replace the permissions of one position. An empty list revokes every permission.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var keys []string
		if len(args) == 2 {
			for _, k := range strings.Split(args[1], ",") {
				if k = strings.TrimSpace(k); k != "" {
					keys = append(keys, k)
				}
			}
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *permission.Client) error {
			if err := c.SetPermissionsForPosition(ctx, args[0], keys); err != nil {
				return err
			}
			fmt.Printf("%s: %d permissions\n", args[0], len(keys))
			return nil
		})
	},
}

func withClient(parent context.Context, fn func(context.Context, *permission.Client) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := internal.WithTimeout(parent, 15*time.Second)
	defer cancel()

	password := permissionsPassword
	if password == "" {
		password = os.Getenv("SEKRETERLIK_PASSWORD")
	}

	c := permission.NewClient(permissionsBaseURL, permission.WithClientLogger(logger.LoggerWrapper()))
	if err := c.Login(ctx, permissionsUser, password); err != nil {
		return err
	}
	return fn(ctx, c)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	permissionsCmd.PersistentFlags().StringVar(&permissionsBaseURL, "base-url", "http://localhost:8080/api/v1", "API base URL")
	permissionsCmd.PersistentFlags().StringVarP(&permissionsUser, "username", "u", "admin", "admin username")
	permissionsCmd.PersistentFlags().StringVarP(&permissionsPassword, "password", "p", "", "admin password")

	permissionsCmd.AddCommand(permissionsListCmd, permissionsGetCmd, permissionsSetCmd)
}
