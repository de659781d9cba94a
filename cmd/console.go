package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	sessionDatamodel "github.com/frahmantamala/admin-console/internal/core/datamodel/session"
	"github.com/frahmantamala/admin-console/internal/dialog"
	"github.com/frahmantamala/admin-console/internal/errfmt"
	"github.com/frahmantamala/admin-console/internal/session"
	sessionPostgres "github.com/frahmantamala/admin-console/internal/session/postgres"
	"github.com/frahmantamala/admin-console/internal/workspace"
	"github.com/frahmantamala/admin-console/pkg/logger"
)

// localSessionID is the single session the CLI keeps in its local store.
const localSessionID = "local"

// screenColumns are the table columns the CLI prints per screen.
var screenColumns = map[string][]string{
	"users":     {"id", "username", "name", "email", "designation", "status"},
	"roles":     {"id", "name", "description"},
	"companies": {"id", "name", "location", "shops_count"},
	"locations": {"id", "name"},
	"shops":     {"id", "name", "company", "location"},
}

var (
	loginUsername string
	loginPassword string

	listSearch   string
	listStatus   string
	listPage     int
	listPageSize int

	setFields []string
)

type console struct {
	cfg      *internal.Config
	sessions *session.Manager
	client   *backend.Client
}

func openConsole() (*console, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Backend.Validate(); err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	if err := cfg.Security.Validate(); err != nil {
		return nil, fmt.Errorf("security config: %w", err)
	}

	storePath := cfg.Session.LocalStore
	if storePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate home directory: %w", err)
		}
		storePath = filepath.Join(home, ".admin-console", "session.db")
	}
	if err := os.MkdirAll(filepath.Dir(storePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session store directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(storePath), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	if err := db.AutoMigrate(&sessionDatamodel.ConsoleSession{}); err != nil {
		return nil, fmt.Errorf("failed to prepare session store: %w", err)
	}

	lg := logger.LoggerWrapper()
	client := backend.NewClient(backend.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout}, lg)
	sessions := session.NewManager(
		sessionPostgres.NewSessionRepository(db),
		client,
		session.NewSealer(cfg.Security.SessionSecret),
		session.Config{
			AccessTTL:   cfg.Session.AccessTTL,
			RefreshTTL:  cfg.Session.RefreshTTL,
			RefreshPath: cfg.Backend.RefreshPath,
		},
		lg,
	)
	return &console{cfg: cfg, sessions: sessions, client: client}, nil
}

// workspace returns the workspace of the stored CLI session.
func (c *console) workspace(ctx context.Context) (*workspace.Workspace, error) {
	s, ok, err := c.sessions.CurrentSession(ctx, localSessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("not logged in; run `admin-console login` first")
	}
	factory := workspace.NewFactory(c.client, c.sessions, nil, c.cfg.Console, logger.LoggerWrapper())
	return factory(s.ID, s.Username), nil
}

func (c *console) screen(ctx context.Context, name string) (workspace.ScreenAPI, error) {
	ws, err := c.workspace(ctx)
	if err != nil {
		return nil, err
	}
	screen, err := ws.Screen(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := screen.Err(); err != nil {
		return nil, errors.New(errfmt.Format(err))
	}
	return screen, nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backend and keep the session locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openConsole()
		if err != nil {
			return err
		}
		password := loginPassword
		if password == "" {
			password = os.Getenv("CONSOLE_PASSWORD")
		}
		s, err := c.sessions.LoginWithID(cmd.Context(), localSessionID, loginUsername, password)
		if err != nil {
			return errors.New(errfmt.Format(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (session valid until %s)\n", s.Username, s.RefreshExpiresAt.Format("2006-01-02 15:04"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openConsole()
		if err != nil {
			return err
		}
		if err := c.sessions.Logout(cmd.Context(), localSessionID); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:       "list <screen>",
	Short:     "List records of a screen",
	Args:      cobra.ExactArgs(1),
	ValidArgs: workspace.ScreenNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openConsole()
		if err != nil {
			return err
		}
		screen, err := c.screen(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		update := workspace.ViewUpdate{Search: &listSearch, Status: &listStatus}
		if listPageSize > 0 {
			update.PageSize = &listPageSize
		}
		update.Page = &listPage
		screen.UpdateView(update)

		return printSnapshot(cmd.OutOrStdout(), screen.Snapshot())
	},
}

func mutationCmd(use, short string, mode dialog.Mode, withID bool) *cobra.Command {
	args := cobra.ExactArgs(1)
	if withID {
		args = cobra.ExactArgs(2)
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if withID {
				if _, err := fmt.Sscan(args[1], &id); err != nil {
					return fmt.Errorf("invalid id %q", args[1])
				}
			}
			fields, err := parseFields(setFields)
			if err != nil {
				return err
			}

			c, err := openConsole()
			if err != nil {
				return err
			}
			return runMutation(cmd.Context(), cmd.OutOrStdout(), c, args[0], mode, id, fields)
		},
	}
}

func runMutation(ctx context.Context, out io.Writer, c *console, name string, mode dialog.Mode, id int64, fields map[string]string) error {
	screen, err := c.screen(ctx, name)
	if err != nil {
		return err
	}
	if err := screen.Open(ctx, mode, id); err != nil {
		return errors.New(errfmt.Format(err))
	}
	if modal := screen.Snapshot().Modal; modal.Phase == dialog.PhaseBlocked {
		return errors.New(modal.Error)
	}
	if len(fields) > 0 {
		if err := screen.SetFields(fields); err != nil {
			return errors.New(errfmt.Format(err))
		}
	}

	if err := screen.Submit(ctx); err != nil {
		var submitErr *dialog.SubmitError
		if errors.As(err, &submitErr) {
			for _, field := range sortedKeys(submitErr.FieldErrors) {
				fmt.Fprintf(out, "  %s: %s\n", field, submitErr.FieldErrors[field])
			}
			return errors.New(submitErr.Message)
		}
		return errors.New(errfmt.Format(err))
	}

	fmt.Fprintf(out, "%s: %s done\n", name, mode)
	return printSnapshot(out, screen.Snapshot())
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard widgets",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openConsole()
		if err != nil {
			return err
		}
		ws, err := c.workspace(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, widget := range ws.Dashboard(cmd.Context()).Snapshot().Widgets {
			switch {
			case widget.Error != "":
				fmt.Fprintf(out, "%-20s error: %s\n", widget.Name, widget.Error)
			default:
				data, _ := json.Marshal(widget.Data)
				fmt.Fprintf(out, "%-20s %s\n", widget.Name, data)
			}
		}
		return nil
	},
}

func parseFields(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --set %q, expected field=value", pair)
		}
		fields[strings.TrimSpace(key)] = value
	}
	return fields, nil
}

func printSnapshot(out io.Writer, snap workspace.ScreenSnapshot) error {
	if snap.Error != "" {
		fmt.Fprintln(out, "Error:", snap.Error)
	}

	raw, err := json.Marshal(snap.Items)
	if err != nil {
		return err
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return err
	}

	columns := screenColumns[snap.Screen]
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(columns, "\t")))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row[col]; ok && v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if snap.Total == 0 {
		fmt.Fprintln(out, "No records")
		return nil
	}
	fmt.Fprintf(out, "page %d of %d (%d records)\n", snap.Page, snap.PageCount, snap.Total)
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "backend username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "backend password (or CONSOLE_PASSWORD)")
	_ = loginCmd.MarkFlagRequired("username")

	listCmd.Flags().StringVar(&listSearch, "search", "", "case-insensitive search")
	listCmd.Flags().StringVar(&listStatus, "status", "All", "status filter")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 0, "rows per page")

	createCmd := mutationCmd("create <screen>", "Create a record", dialog.ModeCreate, false)
	updateCmd := mutationCmd("update <screen> <id>", "Update a record", dialog.ModeEdit, true)
	deleteCmd := mutationCmd("delete <screen> <id>", "Delete a record", dialog.ModeDelete, true)
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringArrayVar(&setFields, "set", nil, "field=value, repeatable")
	}

	rootCmd.AddCommand(loginCmd, logoutCmd, listCmd, createCmd, updateCmd, deleteCmd, dashboardCmd)
}
