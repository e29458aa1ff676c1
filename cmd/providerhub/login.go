package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/providerhub/providerhub/internal/auth"
	"github.com/providerhub/providerhub/internal/client"
	"github.com/providerhub/providerhub/internal/config"
	"github.com/providerhub/providerhub/internal/fielderrors"
	"github.com/providerhub/providerhub/internal/settings"
)

var loginEmail string

// loginCmd drives the login flow from a terminal: it posts credentials to
// {api_location}api/login/ and stores the returned token in the local
// settings file for later commands.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against a ProviderHub server and store the API token.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOptionalDB()
		if err != nil {
			return err
		}

		s, err := settings.Open(settingsPath(cfg))
		if err != nil {
			return err
		}
		if _, ok := s.Get(settings.KeyAPILocation); !ok {
			if err := s.Set(settings.KeyAPILocation, cfg.APILocation); err != nil {
				return err
			}
		}

		email := auth.NormalizeEmail(loginEmail)
		if email == "" {
			email, err = promptLine(cmd, "Email: ")
			if err != nil {
				return err
			}
			email = auth.NormalizeEmail(email)
		}
		if email == "" {
			return errors.New("email is required")
		}

		password, err := promptPassword(cmd)
		if err != nil {
			return err
		}

		ui := &terminalUI{out: cmd.OutOrStdout()}
		form := &client.LoginForm{Settings: s, Surface: ui, Menu: ui}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := form.Submit(ctx, email, password); err != nil {
			var fieldErrs fielderrors.Map
			if errors.As(err, &fieldErrs) {
				return &exitError{code: 1, silent: true}
			}
			return err
		}

		cmd.Printf("logged in as %s\n", email)
		return nil
	},
}

func settingsPath(cfg config.Config) string {
	if cfg.SettingsPath != "" {
		return cfg.SettingsPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".providerhub/settings.json"
	}
	return filepath.Join(home, ".providerhub", "settings.json")
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)
	var line string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(cmd *cobra.Command) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return promptLine(cmd, "Password: ")
	}
	cmd.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// terminalUI renders the login surface on a terminal: error slots become
// prefixed lines, navigation and menu flips become short notices.
type terminalUI struct {
	out io.Writer
}

func (u *terminalUI) ClearErrors() {}

func (u *terminalUI) ShowError(field, message string) {
	if field == fielderrors.NonField {
		fmt.Fprintln(u.out, message)
		return
	}
	fmt.Fprintf(u.out, "%s: %s\n", field, message)
}

func (u *terminalUI) Navigate(route string) {
	if route == client.RouteService {
		fmt.Fprintln(u.out, "token stored; you can submit service listings now")
	}
}

func (u *terminalUI) ShowLogin()  {}
func (u *terminalUI) HideLogin()  {}
func (u *terminalUI) ShowLogout() {}
func (u *terminalUI) HideLogout() {}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when omitted)")
}
