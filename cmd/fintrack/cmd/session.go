package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the stored session",
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a valid session token is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := cli.OpenSession(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer sess.Close()

		sess.Store.Initialize(ctx)
		state := sess.Store.State()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status:  %s\n", state.Status)
		if !state.IsAuthenticated() {
			return nil
		}
		if state.Subject != "" {
			fmt.Fprintf(out, "subject: %s\n", state.Subject)
		}
		if claims, err := session.DecodeToken(state.Token); err == nil {
			if exp, ok := claims.Expiry(); ok {
				fmt.Fprintf(out, "expires: %s\n", exp.Local().Format(time.RFC3339))
			}
		}
		return nil
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := cli.OpenSession(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Store.Logout(ctx); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionStatusCmd, sessionLogoutCmd)
	rootCmd.AddCommand(sessionCmd)
}
