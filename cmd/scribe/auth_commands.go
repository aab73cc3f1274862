package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/logging"
	"scribe/internal/platform"
	"scribe/internal/session"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var email string
	var password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("--email is required")
			}
			if passwordStdin {
				value, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = value
			}
			if password == "" {
				return errors.New("a password is required (use --password or --password-stdin)")
			}
			return ctx.withClient(cmd, func(rt *runtime) error {
				resp, err := rt.client.Auth.Login(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !rt.session.IsAuthenticated() {
					message := strings.TrimSpace(resp.Message)
					if message == "" {
						message = "the server did not issue a token"
					}
					return fmt.Errorf("sign-in incomplete: %s", message)
				}
				fmt.Fprintf(out, "Signed in as %s\n", rt.session.Identity().DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				out := cmd.OutOrStdout()
				if !rt.session.IsAuthenticated() {
					fmt.Fprintln(out, "Not signed in")
					return nil
				}
				if err := rt.client.Auth.Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Signed out")
				return nil
			})
		},
	}
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var req platform.RegisterRequest
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Email = strings.TrimSpace(req.Email)
			req.Name = strings.TrimSpace(req.Name)
			if req.Email == "" || req.Name == "" {
				return errors.New("--email and --name are required")
			}
			if passwordStdin {
				value, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				req.Password = value
			}
			if req.Password == "" {
				return errors.New("a password is required (use --password or --password-stdin)")
			}
			if req.Role != "" && !session.Role(req.Role).Valid() {
				return fmt.Errorf("unknown role %q", req.Role)
			}
			return ctx.withClient(cmd, func(rt *runtime) error {
				if err := rt.client.Auth.Register(cmd.Context(), req); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s; run `scribe login` to sign in\n", req.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&req.Name, "name", "n", "", "Full name")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Account password")
	cmd.Flags().StringVar(&req.Role, "role", "", "Requested role (admin, user, reviewer)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				if !rt.session.IsAuthenticated() {
					return session.ErrNotAuthenticated
				}
				identity := rt.session.Identity()
				if refresh || identity == nil {
					fresh, err := rt.client.Auth.Profile(cmd.Context())
					if err != nil {
						return err
					}
					identity = fresh
				}
				if identity == nil {
					return errors.New("no profile stored for this session")
				}
				if jsonOutput {
					return writeJSON(cmd, identity)
				}
				out := cmd.OutOrStdout()
				for _, line := range identityLines(identity, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the profile from the server instead of the stored copy")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the stored session",
	}

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show what the session store currently holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				cfg := rt.cfg
				for _, line := range renderSectionHeader("Session", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, cfg.Storage.Backend, colorize))
				if path := cfg.StoragePath(); path != "" {
					fmt.Fprintln(out, renderStatusLine("Location", statusInfo, path, colorize))
				}
				authKind := statusWarn
				if rt.session.IsAuthenticated() {
					authKind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("Signed in", authKind, yesNo(rt.session.IsAuthenticated()), colorize))
				if identity := rt.session.Identity(); identity != nil {
					fmt.Fprintln(out, renderStatusLine("Account", statusInfo, identity.Email, colorize))
				}

				snapshot, err := rt.storage.Snapshot()
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(snapshot))
				for key := range snapshot {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, key := range keys {
					value := snapshot[key]
					if logging.IsSensitiveKey(key) {
						value = "[redacted]"
					} else if len(value) > 48 {
						value = value[:45] + "..."
					}
					rows = append(rows, []string{key, value})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil))
				}
				return nil
			})
		},
	})

	return sessionCmd
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
