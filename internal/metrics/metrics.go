package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ingest activity. The registry is read in-process; nothing is
// served over the network.
type Metrics struct {
	Lines       *prometheus.CounterVec
	ParseErrors *prometheus.CounterVec
	Coordinates prometheus.Counter
	PendingJoin prometheus.Gauge
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Lines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telemetry",
				Name:      "lines_total",
				Help:      "Lines received, by classified kind",
			},
			[]string{"kind"},
		),
		ParseErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "telemetry",
				Name:      "parse_errors_total",
				Help:      "Recognized lines dropped because the value did not parse",
			},
			[]string{"kind"},
		),
		Coordinates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "telemetry",
				Name:      "coordinates_total",
				Help:      "Latitude/longitude pairs joined and stored",
			},
		),
		PendingJoin: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "telemetry",
				Name:      "pending_join",
				Help:      "1 while half a coordinate is held, 0 otherwise",
			},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Lines, m.ParseErrors, m.Coordinates, m.PendingJoin} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Sample is one flattened counter or gauge value.
type Sample struct {
	Name  string
	Value float64
}

// Summary flattens every counter and gauge in g into name{labels} samples,
// sorted by name.
func Summary(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if lp := m.GetLabel(); len(lp) > 0 {
				parts := make([]string, 0, len(lp))
				for _, l := range lp {
					parts = append(parts, l.GetName()+"="+l.GetValue())
				}
				name += "{" + strings.Join(parts, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out = append(out, Sample{Name: name, Value: m.GetCounter().GetValue()})
			case m.GetGauge() != nil:
				out = append(out, Sample{Name: name, Value: m.GetGauge().GetValue()})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
