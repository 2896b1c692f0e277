package metrics

import (
	"math/big"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SamAg19/SealBid/core/events"
	"github.com/SamAg19/SealBid/core/types"
	"github.com/SamAg19/SealBid/native/mortgage"
	"github.com/SamAg19/SealBid/native/pool"
)

// LendingMetrics exposes pool and loan lifecycle activity to Prometheus.
type LendingMetrics struct {
	poolReserve     prometheus.Gauge
	poolTotalLoaned prometheus.Gauge
	exchangeRate    prometheus.Gauge
	loansOriginated prometheus.Counter
	paymentsOK      prometheus.Counter
	paymentsMissed  prometheus.Counter
	loansDefaulted  prometheus.Counter
	liquidations    *prometheus.CounterVec
}

var (
	lendingOnce     sync.Once
	lendingRegistry *LendingMetrics
)

// Lending returns the lazily-initialised lending metrics registry.
func Lending() *LendingMetrics {
	lendingOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			poolReserve: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "sealbid_pool_reserve",
				Help: "Liquid USDC reserve currently held by the pool vault.",
			}),
			poolTotalLoaned: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "sealbid_pool_total_loaned",
				Help: "Aggregate outstanding principal across active loans.",
			}),
			exchangeRate: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "sealbid_pool_exchange_rate",
				Help: "Reserve value per receipt share, scaled by 1e18.",
			}),
			loansOriginated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "sealbid_loans_originated_total",
				Help: "Count of loans activated through claim.",
			}),
			paymentsOK: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "sealbid_payments_recorded_total",
				Help: "Count of periodic payments recorded.",
			}),
			paymentsMissed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "sealbid_payments_missed_total",
				Help: "Count of missed payments recorded by default tracking.",
			}),
			loansDefaulted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "sealbid_loans_defaulted_total",
				Help: "Count of loans handed off to liquidation.",
			}),
			liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "sealbid_liquidations_settled_total",
				Help: "Count of settled liquidations segmented by recovery outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			lendingRegistry.poolReserve,
			lendingRegistry.poolTotalLoaned,
			lendingRegistry.exchangeRate,
			lendingRegistry.loansOriginated,
			lendingRegistry.paymentsOK,
			lendingRegistry.paymentsMissed,
			lendingRegistry.loansDefaulted,
			lendingRegistry.liquidations,
		)
	})
	return lendingRegistry
}

// attributed is satisfied by engine events that carry a structured payload.
type attributed interface {
	Event() *types.Event
}

// Recorder bridges engine events into the metrics registry while forwarding
// them to the next emitter. Wire it between the engines and the real event
// sink.
type Recorder struct {
	metrics *LendingMetrics
	next    events.Emitter
}

// NewRecorder wraps the next emitter. Passing nil discards forwarded events.
func NewRecorder(next events.Emitter) *Recorder {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &Recorder{metrics: Lending(), next: next}
}

// Emit implements the events.Emitter interface.
func (r *Recorder) Emit(evt events.Event) {
	if r == nil || evt == nil {
		return
	}
	r.record(evt)
	r.next.Emit(evt)
}

func (r *Recorder) record(evt events.Event) {
	var payload *types.Event
	if a, ok := evt.(attributed); ok {
		payload = a.Event()
	}
	switch evt.EventType() {
	case pool.EventTypePoolDeposited, pool.EventTypePoolWithdrawn,
		pool.EventTypePoolDisbursed, pool.EventTypePoolRepaid:
		r.updatePoolGauges(payload)
	case mortgage.EventTypeLoanClaimed:
		r.metrics.loansOriginated.Inc()
	case mortgage.EventTypePaymentRecorded:
		r.metrics.paymentsOK.Inc()
	case mortgage.EventTypePaymentMissed:
		r.metrics.paymentsMissed.Inc()
	case mortgage.EventTypeLoanDefaulted:
		r.metrics.loansDefaulted.Inc()
	case mortgage.EventTypeLiquidationSettled:
		outcome := "unknown"
		if payload != nil {
			if v, ok := payload.Attributes["outcome"]; ok {
				outcome = v
			}
		}
		r.metrics.liquidations.WithLabelValues(outcome).Inc()
	}
}

func (r *Recorder) updatePoolGauges(payload *types.Event) {
	if payload == nil {
		return
	}
	if v, ok := bigAttr(payload, "reserve"); ok {
		r.metrics.poolReserve.Set(v)
	}
	if v, ok := bigAttr(payload, "totalLoaned"); ok {
		r.metrics.poolTotalLoaned.Set(v)
	}
	if v, ok := bigAttr(payload, "rate"); ok {
		r.metrics.exchangeRate.Set(v)
	}
}

// bigAttr parses a big integer attribute into a float gauge value. Precision
// loss is acceptable for monitoring; the ledger itself stays integral.
func bigAttr(payload *types.Event, key string) (float64, bool) {
	raw, ok := payload.Attributes[key]
	if !ok {
		return 0, false
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v, true
	}
	parsed, ok := new(big.Float).SetString(raw)
	if !ok {
		return 0, false
	}
	v, _ := parsed.Float64()
	return v, true
}
