package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/core/events"
	"github.com/frahmantamala/feegateway/internal/payment"
	"github.com/frahmantamala/feegateway/internal/reconciliation"
	"github.com/frahmantamala/feegateway/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish sample payment events through the event bus and the fee ledger notifier`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [verified|rejected]",
	Short:     "Publish a sample payment event",
	Long:      `Publish a sample payment event to check fee ledger connectivity`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"verified", "rejected"},
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var (
	eventTenantID int64
	eventOrderID  string
	eventAmount   string
	eventWait     time.Duration
)

func publishTestEvent(kind string) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.LoggerWrapper()

	amount, err := decimal.NewFromString(eventAmount)
	if err != nil {
		log.Fatalf("invalid amount %q: %v", eventAmount, err)
	}

	eventBus := events.NewEventBus(lg)

	var notifier *reconciliation.Notifier
	var sink payment.VerifiedPaymentSink
	if cfg.Notifier.Enabled() {
		notifier = reconciliation.NewNotifier(reconciliation.Config{
			URL:     cfg.Notifier.URL,
			APIKey:  cfg.Notifier.APIKey,
			Timeout: cfg.Notifier.Timeout,
		}, nil, lg)
		// Waits for queued fee ledger deliveries.
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), eventWait)
			defer cancel()
			notifier.Shutdown(ctx)
		}()
		sink = notifier
	} else {
		lg.Warn("notifier url not configured, event is only logged")
	}
	payment.NewEventHandler(sink, lg).RegisterEventHandlers(eventBus)

	result := &paymentgatewaytypes.VerificationResult{
		Provider:       paymentgatewaytypes.ProviderSimulation,
		Outcome:        paymentgatewaytypes.OutcomeSuccess,
		OrderID:        eventOrderID,
		TransactionID:  fmt.Sprintf("CLI-%d", time.Now().Unix()),
		Amount:         amount,
		SignatureValid: true,
		Simulated:      true,
	}

	var event events.Event
	switch kind {
	case "verified":
		event = events.NewPaymentVerifiedEvent(eventTenantID, result)
	default:
		result.Outcome = paymentgatewaytypes.OutcomeFailed
		result.SignatureValid = false
		result.Reason = paymentgatewaytypes.ReasonSignatureMismatch
		result.Error = "published from cli"
		event = events.NewPaymentRejectedEvent(eventTenantID, result)
	}

	lg.Info("publishing test event", "event_type", event.EventType(), "event_id", event.EventID())

	if err := eventBus.PublishSync(context.Background(), event); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	lg.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventTenantID, "tenant", 1, "tenant id")
	publishEventCmd.Flags().StringVar(&eventOrderID, "order-id", "CLI-ORDER-1", "order id")
	publishEventCmd.Flags().StringVar(&eventAmount, "amount", "1.00", "amount in rupees")
	publishEventCmd.Flags().DurationVar(&eventWait, "wait", 2*time.Second, "time to wait for fee ledger delivery")

	eventCmd.AddCommand(publishEventCmd)
}
