// Package metrics exposes the Prometheus instruments of the presale bot.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/agro-presale/internal/apiclient"
	"github.com/Proton-105/agro-presale/internal/investment"
	"github.com/Proton-105/agro-presale/internal/state"
	"github.com/Proton-105/agro-presale/internal/wallet"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of dialog state transitions",
		},
		[]string{"from", "to"},
	)
	workflowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investment_workflow_transitions_total",
			Help: "Total number of investment workflow transitions",
		},
		[]string{"from", "to"},
	)
	investmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investment_submissions_total",
			Help: "Investment submit attempts by outcome",
		},
		[]string{"outcome"},
	)
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presale_api_requests_total",
			Help: "Requests to the presale API by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "presale_api_request_duration_seconds",
			Help:    "Latency of presale API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	walletConnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_connects_total",
			Help: "Wallet connect attempts by outcome",
		},
		[]string{"status"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_updates_total",
			Help: "Updates rejected by the rate limiter",
		},
		[]string{"rule"},
	)
	activeUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_users",
			Help: "Current number of users with a stored dialog state",
		},
	)
	usersByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "users_by_state",
			Help: "Number of users per dialog state",
		},
		[]string{"state"},
	)
	openDialogs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "open_investment_dialogs",
			Help: "Investment dialogs currently open",
		},
	)
)

var trackedStates = []state.State{
	state.StateIdle,
	state.StateSelectingOffering,
	state.StateEnteringAmount,
	state.StateConfirming,
	state.StateError,
}

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
	investment.RegisterTransitionRecorder(RecordWorkflowTransition)
	investment.RegisterOutcomeRecorder(RecordInvestment)
	wallet.RegisterConnectRecorder(RecordWalletConnect)
	apiclient.RegisterRequestRecorder(RecordAPIRequest)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	botCommandsTotal.WithLabelValues(orUnknown(command), orUnknown(status)).Inc()
	commandDurationSeconds.WithLabelValues(orUnknown(command)).Observe(duration.Seconds())
}

// RecordStateTransition tracks dialog FSM transitions.
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(orUnknown(from), orUnknown(to)).Inc()
}

// RecordWorkflowTransition tracks investment workflow transitions.
func RecordWorkflowTransition(from, to string) {
	workflowTransitionsTotal.WithLabelValues(orUnknown(from), orUnknown(to)).Inc()
}

func RecordInvestment(outcome string) {
	investmentsTotal.WithLabelValues(orUnknown(outcome)).Inc()
}

func RecordAPIRequest(endpoint, status string, duration time.Duration) {
	apiRequestsTotal.WithLabelValues(orUnknown(endpoint), orUnknown(status)).Inc()
	apiRequestDuration.WithLabelValues(orUnknown(endpoint)).Observe(duration.Seconds())
}

func RecordWalletConnect(status string) {
	walletConnectsTotal.WithLabelValues(orUnknown(status)).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	errorsTotal.WithLabelValues(orUnknown(errType), orUnknown(severity)).Inc()
}

func RecordRateLimited(rule string) {
	rateLimitedTotal.WithLabelValues(orUnknown(rule)).Inc()
}

// SetActiveUsers updates the gauge for current active users.
func SetActiveUsers(count int) {
	activeUsers.Set(float64(count))
}

// SetUsersByState updates the gauge for the given state.
func SetUsersByState(state string, count int) {
	usersByState.WithLabelValues(orUnknown(state)).Set(float64(count))
}

func SetOpenDialogs(count int) {
	openDialogs.Set(float64(count))
}

// StatusLabel renders an HTTP-ish status code as a label value.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

// DialogCounter reports how many investment dialogs are open.
type DialogCounter interface {
	OpenDialogs() int
}

// StateCollector periodically gathers FSM state counts and emits gauge metrics.
type StateCollector struct {
	fsm      state.StateMachine
	dialogs  DialogCounter
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the provided FSM. dialogs may be nil.
func NewStateCollector(fsm state.StateMachine, dialogs DialogCounter) *StateCollector {
	return &StateCollector{fsm: fsm, dialogs: dialogs, interval: 10 * time.Second}
}

// Run polls every 10 seconds, updating gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.fsm == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	if c.dialogs != nil {
		SetOpenDialogs(c.dialogs.OpenDialogs())
	}

	states, err := c.fsm.GetAllStates(ctx)
	if err != nil {
		return err
	}

	SetActiveUsers(len(states))

	stateCounts := make(map[string]int, len(states))
	for _, st := range states {
		label := "unknown"
		if st != nil && st.CurrentState != "" {
			label = string(st.CurrentState)
		}
		stateCounts[label]++
	}

	usersByState.Reset()

	for _, tracked := range trackedStates {
		label := string(tracked)
		SetUsersByState(label, stateCounts[label])
		delete(stateCounts, label)
	}

	for label, count := range stateCounts {
		SetUsersByState(label, count)
	}

	return nil
}
