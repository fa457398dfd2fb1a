package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aussiebroadwan/murmur/internal/auth/app"
	"github.com/aussiebroadwan/murmur/internal/auth/service"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// NewUserCmd creates the user command group.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(NewUserCreateCmd())
	return cmd
}

type userCreateOptions struct {
	username      string
	email         string
	passwordStdin bool
}

// NewUserCreateCmd creates the user create subcommand.
func NewUserCreateCmd() *cobra.Command {
	opts := &userCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create an account with the same validation as the registration form.
The password is prompted for without echo, or read from the first line of
stdin with --password-stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUserCreate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "account username")
	cmd.Flags().StringVar(&opts.email, "email", "", "account email address")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runUserCreate(cmd *cobra.Command, opts *userCreateOptions) error {
	password, password2, err := readNewPassword(cmd, opts.passwordStdin)
	if err != nil {
		return oops.Code("PASSWORD_INPUT").With("operation", "read password").Wrap(err)
	}

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg)

	db, err := app.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "open database").Wrap(err)
	}
	defer db.Close()

	creds, err := app.NewCredentialService(cfg, db)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load pepper").Wrap(err)
	}
	users := app.NewUserService(creds, db, nil)

	identity, err := users.Register(cmd.Context(), service.RegistrationInput{
		Username:  opts.username,
		Email:     opts.email,
		Password:  password,
		Password2: password2,
	})
	var verrs service.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			cmd.PrintErrf("%s: %s\n", fe.Field, fe.Message)
		}
		return oops.Code("INVALID_ACCOUNT").Errorf("account not created")
	}
	if err != nil {
		return oops.Code("CREATE_FAILED").With("operation", "create account").Wrap(err)
	}

	cmd.Printf("Created user %s (%s)\n", identity.Username, identity.ID)
	return nil
}

// readNewPassword returns the password and its confirmation. From stdin the
// single line serves as both.
func readNewPassword(cmd *cobra.Command, fromStdin bool) (string, string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", "", err
		}
		pw := strings.TrimRight(line, "\r\n")
		return pw, pw, nil
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", "", errors.New("stdin is not a terminal; use --password-stdin")
	}

	w := cmd.ErrOrStderr()
	pw, err := promptPassword(w, fd, "Password: ")
	if err != nil {
		return "", "", err
	}
	pw2, err := promptPassword(w, fd, "Repeat password: ")
	if err != nil {
		return "", "", err
	}
	return pw, pw2, nil
}

func promptPassword(w io.Writer, fd int, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
