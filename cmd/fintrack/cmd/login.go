package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/api"
	"fintrack/internal/cli"
	"fintrack/internal/log"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Sign in against the finance API and store the returned token in the
configured session backend. The web client picks it up on its next start.
Without --password the password is read from the first line of stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if loginUsername == "" {
			return errors.New("--username is required")
		}
		password := loginPassword
		if password == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		sess, err := cli.OpenSession(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer sess.Close()
		sess.Store.Initialize(ctx)

		client := cli.NewAPIClient(cfg, sess.Store, logger)
		token, err := client.Authenticate(ctx, loginUsername, password)
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrNotFound) {
				return errors.New("invalid username or password")
			}
			return fmt.Errorf("sign in: %s", api.UserMessage(err))
		}
		if err := sess.Store.Login(ctx, token); err != nil {
			return fmt.Errorf("store session: %w", err)
		}

		logger.Info("Signed in", log.FieldOperation, log.OpLogin, log.FieldSubject, sess.Store.State().Subject)
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", loginUsername)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (read from stdin when empty)")
	rootCmd.AddCommand(loginCmd)
}
