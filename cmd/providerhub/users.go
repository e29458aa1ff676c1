package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/providerhub/providerhub/internal/auth"
	"github.com/providerhub/providerhub/internal/config"
	"github.com/providerhub/providerhub/internal/store"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage ProviderHub staff users.",
}

var (
	bootstrapStaffEmail          string
	bootstrapStaffPassword       string
	bootstrapStaffPasswordStdin  bool
	bootstrapStaffGeneratePasswd bool
)

var bootstrapStaffCmd = &cobra.Command{
	Use:   "bootstrap-staff",
	Short: "Create the first staff reviewer (idempotent if one already exists).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := auth.NormalizeEmail(bootstrapStaffEmail)
		if email == "" {
			return errors.New("--email is required")
		}

		password, generated, err := resolveBootstrapPassword(cmd)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		s := store.NewPG(pool)

		staffCount, err := s.CountStaffUsers(ctx)
		if err != nil {
			return err
		}
		if staffCount > 0 {
			cmd.Println("staff user already exists; nothing to do")
			return nil
		}

		if _, err := s.GetUserByEmail(ctx, email); err == nil {
			return fmt.Errorf("user already exists: %s", email)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		_, err = s.CreateUser(ctx, store.CreateUserParams{
			Email:        email,
			PasswordHash: hash,
			Role:         auth.RoleStaff,
			IsActive:     true,
			TokenKey:     auth.NewKey(),
		})
		if err != nil {
			return err
		}

		cmd.Printf("created staff user: %s\n", email)
		if generated {
			cmd.Printf("generated password: %s\n", password)
		}
		return nil
	},
}

func resolveBootstrapPassword(cmd *cobra.Command) (string, bool, error) {
	if bootstrapStaffPasswordStdin && bootstrapStaffGeneratePasswd {
		return "", false, errors.New("--password-stdin and --generate-password are mutually exclusive")
	}
	if bootstrapStaffPasswordStdin && bootstrapStaffPassword != "" {
		return "", false, errors.New("--password-stdin and --password are mutually exclusive")
	}
	if bootstrapStaffGeneratePasswd && bootstrapStaffPassword != "" {
		return "", false, errors.New("--generate-password and --password are mutually exclusive")
	}

	if bootstrapStaffPasswordStdin {
		raw, err := readAllStdin()
		if err != nil {
			return "", false, err
		}
		password := strings.TrimRight(raw, "\r\n")
		if password == "" {
			return "", false, errors.New("password is empty")
		}
		return password, false, nil
	}

	if bootstrapStaffGeneratePasswd {
		password, err := generatePassword(24)
		if err != nil {
			return "", false, err
		}
		return password, true, nil
	}

	if bootstrapStaffPassword != "" {
		return bootstrapStaffPassword, false, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", false, errors.New("no password provided (use --password, --password-stdin, or --generate-password)")
	}

	cmd.Print("Password: ")
	pass1, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", false, err
	}
	if len(pass1) == 0 {
		return "", false, errors.New("password is empty")
	}

	cmd.Print("Confirm password: ")
	pass2, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", false, err
	}

	if string(pass1) != string(pass2) {
		return "", false, errors.New("passwords do not match")
	}

	return string(pass1), false, nil
}

func readAllStdin() (string, error) {
	in, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}
	if in.Mode()&os.ModeCharDevice != 0 {
		return "", errors.New("stdin is a terminal; use --password or omit to prompt")
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return scanner.Text(), nil
}

func generatePassword(length int) (string, error) {
	if length < 16 {
		return "", errors.New("password length too short")
	}
	const alphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const alphabetLen = byte(len(alphabet))
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = alphabet[b[i]%alphabetLen]
	}
	return string(b), nil
}

func init() {
	bootstrapStaffCmd.Flags().StringVar(&bootstrapStaffEmail, "email", "", "email for the staff account")
	bootstrapStaffCmd.Flags().StringVar(&bootstrapStaffPassword, "password", "", "password for the staff account")
	bootstrapStaffCmd.Flags().BoolVar(&bootstrapStaffPasswordStdin, "password-stdin", false, "read the password from stdin")
	bootstrapStaffCmd.Flags().BoolVar(&bootstrapStaffGeneratePasswd, "generate-password", false, "generate a random password and print it")
	usersCmd.AddCommand(bootstrapStaffCmd)
}
