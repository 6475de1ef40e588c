// Package reconciliation forwards verified payments to the school's fee
// ledger service. Delivery is asynchronous and best effort; the verification
// ledger remains the source of truth.
package reconciliation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/core/events"
)

var (
	ErrQueueFull    = errors.New("notification queue full")
	ErrShuttingDown = errors.New("notifier is shutting down")
)

// Notification is what the fee ledger receives for one verified callback.
type Notification struct {
	EventID       string    `json:"event_id"`
	TenantID      int64     `json:"tenant_id"`
	OrderID       string    `json:"order_id"`
	Provider      string    `json:"provider"`
	Outcome       string    `json:"outcome"`
	TransactionID string    `json:"transaction_id"`
	BankReference string    `json:"bank_reference,omitempty"`
	Amount        string    `json:"amount"`
	Simulated     bool      `json:"simulated"`
	VerifiedAt    time.Time `json:"verified_at"`
}

type Worker struct {
	ID         int
	WorkerPool chan chan Notification
	JobChannel chan Notification
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Notification, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Notification),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, deliver func(Notification)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("notifier worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("notifier worker delivering", "worker_id", w.ID, "order_id", job.OrderID)
				deliver(job)
			case <-ctx.Done():
				w.Logger.Debug("notifier worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	URL                string
	APIKey             string
	Timeout            time.Duration
	MaxWorkers         int
	QueueSize          int
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

type Notifier struct {
	url     string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger

	jobQueue   chan Notification
	workerPool chan chan Notification
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once

	// mu orders Enqueue against Shutdown so pending never grows while
	// Shutdown waits on it.
	mu          sync.Mutex
	closing     bool
	pending     sync.WaitGroup
	outstanding atomic.Int64
}

func NewNotifier(config Config, client *http.Client, logger *slog.Logger) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	maxFailures := config.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	n := &Notifier{
		url:     config.URL,
		apiKey:  config.APIKey,
		timeout: timeout,
		client:  client,
		logger:  logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Notification, queueSize),
		workerPool: make(chan chan Notification, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	n.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fee-ledger",
		Timeout: config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("fee ledger circuit breaker changed state",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	n.start()

	return n
}

func (n *Notifier) start() {
	n.startOnce.Do(func() {
		for i := 0; i < n.maxWorkers; i++ {
			worker := NewWorker(i, n.workerPool, n.logger)
			worker.Start(n.ctx, &n.wg, n.deliver)
		}

		n.wg.Add(1)
		go n.dispatch()

		n.logger.Info("fee ledger notifier started",
			"max_workers", n.maxWorkers,
			"queue_size", cap(n.jobQueue))
	})
}

func (n *Notifier) dispatch() {
	defer n.wg.Done()

	for {
		select {
		case job := <-n.jobQueue:
			select {
			case jobChannel := <-n.workerPool:
				select {
				case jobChannel <- job:
				case <-n.ctx.Done():
					n.logger.Info("notifier dispatcher shutting down")
					return
				}
			case <-n.ctx.Done():
				n.logger.Info("notifier dispatcher shutting down")
				return
			}
		case <-n.ctx.Done():
			n.logger.Info("notifier dispatcher shutting down")
			return
		}
	}
}

// Enqueue hands a notification to the worker pool without blocking.
func (n *Notifier) Enqueue(job Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closing || n.ctx.Err() != nil {
		return ErrShuttingDown
	}

	n.pending.Add(1)
	n.outstanding.Add(1)
	select {
	case n.jobQueue <- job:
		n.logger.Debug("fee ledger notification queued",
			"order_id", job.OrderID,
			"queue_length", len(n.jobQueue))
		return nil
	default:
		n.outstanding.Add(-1)
		n.pending.Done()
		n.logger.Warn("fee ledger notification queue full",
			"order_id", job.OrderID,
			"queue_capacity", cap(n.jobQueue))
		return ErrQueueFull
	}
}

// HandlePaymentVerified subscribes the notifier to the event bus. Only
// successful payments reach the fee ledger.
func (n *Notifier) HandlePaymentVerified(ctx context.Context, event events.Event) error {
	verified, ok := event.(*events.PaymentVerifiedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if verified.Outcome != string(paymentgatewaytypes.OutcomeSuccess) {
		return nil
	}

	return n.Enqueue(Notification{
		EventID:       verified.EventID(),
		TenantID:      verified.TenantID,
		OrderID:       verified.OrderID,
		Provider:      verified.Provider,
		Outcome:       verified.Outcome,
		TransactionID: verified.TransactionID,
		BankReference: verified.BankReference,
		Amount:        verified.Amount,
		Simulated:     verified.Simulated,
		VerifiedAt:    verified.OccurredAt(),
	})
}

func (n *Notifier) deliver(job Notification) {
	defer func() {
		n.outstanding.Add(-1)
		n.pending.Done()
	}()

	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.post(job)
	})
	if err != nil {
		n.logger.Error("fee ledger notification failed",
			"order_id", job.OrderID,
			"tenant_id", job.TenantID,
			"breaker_state", n.breaker.State().String(),
			"error", err)
		return
	}

	n.logger.Info("fee ledger notified",
		"order_id", job.OrderID,
		"tenant_id", job.TenantID,
		"outcome", job.Outcome)
}

func (n *Notifier) post(job Notification) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(n.ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", job.EventID)
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("fee ledger returned status %d", resp.StatusCode)
	}
	return nil
}

// BreakerState exposes the circuit state for health reporting.
func (n *Notifier) BreakerState() string {
	return n.breaker.State().String()
}

// Shutdown stops accepting work and delivers what is already queued until ctx
// ends. Anything still undelivered at that point is dropped and logged.
func (n *Notifier) Shutdown(ctx context.Context) {
	n.stopOnce.Do(func() {
		n.logger.Info("shutting down fee ledger notifier", "queued", n.outstanding.Load())

		n.mu.Lock()
		n.closing = true
		n.mu.Unlock()

		drained := make(chan struct{})
		go func() {
			n.pending.Wait()
			close(drained)
		}()

		select {
		case <-drained:
		case <-ctx.Done():
			n.logger.Warn("fee ledger notifier drain interrupted", "error", ctx.Err())
		}

		n.cancel()
		n.wg.Wait()

		if dropped := n.outstanding.Load(); dropped > 0 {
			n.logger.Error("fee ledger notifications dropped", "count", dropped)
		}
		n.logger.Info("fee ledger notifier shutdown complete")
	})
}
