package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prevozkop/backend/config"
	"github.com/prevozkop/backend/database"
	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/models"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const minPasswordLen = 8

var adminEmail string

// prevozkop admin
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage back-office accounts",
}

// prevozkop admin create --email
var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, repo, closeDB, err := bootAdminRepo()
		if err != nil {
			return err
		}
		defer closeDB()

		hash, err := promptPasswordHash(cmd, cfg)
		if err != nil {
			return err
		}

		admin := &models.Admin{Email: adminEmail, PasswordHash: hash}
		if err := repo.Add(cmd.Context(), admin); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return fmt.Errorf("admin %s already exists", database.NormalizeEmail(adminEmail))
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", admin.Email, admin.ID)
		return nil
	},
}

// prevozkop admin set-password --email
var adminSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Replace the password of an existing admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, repo, closeDB, err := bootAdminRepo()
		if err != nil {
			return err
		}
		defer closeDB()

		hash, err := promptPasswordHash(cmd, cfg)
		if err != nil {
			return err
		}

		if err := repo.UpdatePassword(cmd.Context(), adminEmail, hash); err != nil {
			if errs.IsNotFound(err) {
				return fmt.Errorf("no admin with email %s", database.NormalizeEmail(adminEmail))
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", database.NormalizeEmail(adminEmail))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{adminCreateCmd, adminSetPasswordCmd} {
		c.Flags().StringVar(&adminEmail, "email", "", "admin email address")
		_ = c.MarkFlagRequired("email")
		adminCmd.AddCommand(c)
	}
}

func bootAdminRepo() (*config.Config, *database.AdminRepo, func(), error) {
	cfg := loadConfig()
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	currentDB := database.New(db)
	return cfg, currentDB.AdminRepo(), func() { currentDB.Close() }, nil
}

// promptPasswordHash reads the password without echo on a terminal, or as a
// single line when stdin is piped.
func promptPasswordHash(cmd *cobra.Command, cfg *config.Config) (string, error) {
	password, err := readPassword(cmd.ErrOrStderr(), os.Stdin)
	if err != nil {
		return "", err
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func readPassword(prompt io.Writer, in *os.File) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Enter Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
