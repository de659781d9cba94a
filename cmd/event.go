package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/admin-console/internal/audit"
	auditPostgres "github.com/frahmantamala/admin-console/internal/audit/postgres"
	"github.com/frahmantamala/admin-console/internal/core/events"
	"github.com/frahmantamala/admin-console/pkg/logger"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail commands",
	Long:  `Inspect the audit trail of committed mutations and record entries by hand`,
}

var recentAuditCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent audit entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openAudit()
		if err != nil {
			return err
		}
		defer closeDB()

		entries, err := svc.Recent(cmd.Context(), auditLimit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "OCCURRED\tEVENT\tRESOURCE\tID\tLABEL\tUSER")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
				e.OccurredAt.Format("2006-01-02 15:04:05"), e.EventType, e.Resource, e.RecordID, e.Label, e.Username)
		}
		return tw.Flush()
	},
}

var recordAuditCmd = &cobra.Command{
	Use:   "record <event-type> <resource> <id> <label>",
	Short: "Record an audit entry through the event bus",
	Long:  `Publish a record event the way a committed mutation does, for backfilling or debugging`,
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscan(args[2], &id); err != nil {
			return fmt.Errorf("invalid id %q", args[2])
		}
		eventType := args[0]
		if !isRecordType(eventType) {
			return fmt.Errorf("unknown event type %q, expected one of %v", eventType, events.RecordTypes)
		}

		svc, closeDB, err := openAudit()
		if err != nil {
			return err
		}
		defer closeDB()

		bus := events.NewEventBus(logger.LoggerWrapper())
		svc.Subscribe(bus)

		username := auditUser
		if username == "" {
			username = os.Getenv("USER")
		}
		event := events.NewRecordEvent(eventType, args[1], id, args[3], username, "")
		if err := bus.PublishSync(cmd.Context(), event); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recorded %s %s/%d\n", eventType, args[1], id)
		return nil
	},
}

var (
	auditLimit int
	auditUser  string
)

func openAudit() (*audit.Service, func(), error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, nil, fmt.Errorf("database config: %w", err)
	}
	sqlDB, _, err := initDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	svc := audit.NewService(auditPostgres.NewAuditRepository(sqlDB), logger.LoggerWrapper())
	return svc, func() { _ = sqlDB.Close() }, nil
}

func isRecordType(eventType string) bool {
	for _, t := range events.RecordTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

func init() {
	recentAuditCmd.Flags().IntVar(&auditLimit, "limit", 20, "number of entries to show")
	recordAuditCmd.Flags().StringVar(&auditUser, "user", "", "username recorded on the entry (defaults to $USER)")

	auditCmd.AddCommand(recentAuditCmd)
	auditCmd.AddCommand(recordAuditCmd)

	rootCmd.AddCommand(auditCmd)
}
