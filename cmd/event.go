package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sekreterlik/sekreterlik/internal/core/events"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the access events and their audit log handler`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample access event through the audit log",
	Long:      `Publish a sample access event to an in-process bus with the audit log attached, for checking log output`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: events.AccessEventTypes,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(cmd.Context(), args[0])
	},
}

var listEventsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the access event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.AccessEventTypes {
			fmt.Println(t)
		}
	},
}

var (
	eventPosition    string
	eventPermissions string
	eventUsername    string
)

func sampleEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypePermissionsUpdated:
		var keys []string
		if eventPermissions != "" {
			keys = strings.Split(eventPermissions, ",")
		}
		return events.NewPermissionsUpdatedEvent(eventPosition, keys), nil
	case events.EventTypeUserLoggedIn:
		return events.NewUserLoggedInEvent("0", eventUsername), nil
	case events.EventTypeUserLoggedOut:
		return events.NewUserLoggedOutEvent("0", eventUsername), nil
	default:
		return nil, fmt.Errorf("unknown event type %q, expected one of %s", eventType, strings.Join(events.AccessEventTypes, ", "))
	}
}

func publishSampleEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()

	ev, err := sampleEvent(eventType)
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus(lg)
	events.RegisterAuditLog(eventBus, lg)

	lg.Info("publishing sample event", "event_type", ev.EventType(), "event_id", ev.EventID())
	if err := eventBus.PublishSync(ctx, ev); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	lg.Info("sample event published")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventPosition, "position", "STK Birim Başkanı", "position of a permissions.updated event")
	publishEventCmd.Flags().StringVar(&eventPermissions, "permissions", "manage_stk,add_stk", "comma separated permission keys")
	publishEventCmd.Flags().StringVar(&eventUsername, "username", "admin", "username of a session event")

	eventCmd.AddCommand(publishEventCmd, listEventsCmd)
}
