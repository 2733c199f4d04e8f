package cmd

import (
	"fmt"
	"github.com/shrinex/bridge/rememberme"
	"github.com/spf13/cobra"
	"os"
	"path/filepath"
)

var (
	keygenDir   string
	keygenForce bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create the remember-me key",
	Long: `Creates the key protecting remember-me cookies ahead of deployment. An existing key
is kept unless --force is given; replacing it logs out every remembered visitor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := keygenDir
		if dir == "" {
			dir = cfg.Auth.KeyDir
		}
		path := filepath.Join(dir, rememberme.KeyFile)

		if _, err := os.Stat(path); err == nil && !keygenForce {
			if _, err = rememberme.LoadOrCreateKey(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key already present at %s\n", path)
			return nil
		}

		if _, err := rememberme.GenerateKey(dir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "key written to %s\n", path)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenDir, "dir", "", "key directory (default: auth.key_dir)")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "replace an existing key")
}
