package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "library"

// BorrowMetrics counts lifecycle events of borrow records.
type BorrowMetrics struct {
	borrows     *prometheus.CounterVec
	returns     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	fines       prometheus.Counter
}

// NewBorrowMetrics registers the lifecycle counters on reg. A nil registerer
// yields a no-op recorder.
func NewBorrowMetrics(reg prometheus.Registerer) *BorrowMetrics {
	if reg == nil {
		return &BorrowMetrics{}
	}
	borrows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrow_attempts_total",
		Help:      "Borrow attempts by outcome.",
	}, []string{"outcome"})
	returns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "returns_total",
		Help:      "Completed returns split by lateness.",
	}, []string{"late"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Status changes applied by the refresh pass.",
	}, []string{"to"})
	fines := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fines_assessed_minor_units_total",
		Help:      "Fine amount fixed at return time, in minor currency units.",
	})
	reg.MustRegister(borrows, returns, transitions, fines)
	return &BorrowMetrics{borrows: borrows, returns: returns, transitions: transitions, fines: fines}
}

// ObserveBorrow records a borrow attempt outcome such as "ok" or "unavailable".
func (m *BorrowMetrics) ObserveBorrow(outcome string) {
	if m == nil || m.borrows == nil {
		return
	}
	m.borrows.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveReturn records a completed return and the fine it fixed.
func (m *BorrowMetrics) ObserveReturn(late bool, fine int) {
	if m == nil || m.returns == nil {
		return
	}
	label := "false"
	if late {
		label = "true"
	}
	m.returns.WithLabelValues(label).Inc()
	if fine > 0 {
		m.fines.Add(float64(fine))
	}
}

// ObserveTransition records a refresh-driven status change.
func (m *BorrowMetrics) ObserveTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}
