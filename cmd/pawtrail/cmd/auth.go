package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		defer app.close()

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		if err := app.sessions.Login(cmd.Context(), args[0], password); err != nil {
			return err
		}
		user := app.sessions.User()
		fmt.Printf("signed in as %s\n", user.Username)

		// A buffered guest walk rides along with the fresh session.
		migrated, err := app.migrator().MigratePending(cmd.Context(), guestBuffer(app))
		if err != nil {
			fmt.Fprintf(os.Stderr, "guest walk migration failed: %v\n", err)
			return nil
		}
		if migrated {
			fmt.Println("guest walk migrated to your account")
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		defer app.close()

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		if err := app.sessions.Register(cmd.Context(), args[0], args[1], password); err != nil {
			return err
		}
		fmt.Println("account created and signed in")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Destroy the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		defer app.close()

		app.sessions.Logout(cmd.Context())
		fmt.Println("signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		defer app.close()

		app.sessions.Restore(cmd.Context())
		if !app.sessions.IsAuthenticated() {
			fmt.Println("not signed in")
			return nil
		}
		user := app.sessions.User()
		fmt.Printf("%s <%s>\n", user.Username, user.Email)
		return nil
	},
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
