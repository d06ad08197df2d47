package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/greenhouse-agent/gha/internal/config"
)

const (
	startCelsius  = 21.0
	startHumidity = 55.0
	maxStepC      = 0.3
	maxStepH      = 1.0
)

// sensorGauges are the three gauges one temperature/humidity sensor exposes.
type sensorGauges struct {
	name     string
	celsius  prometheus.Gauge
	fahrenh  prometheus.Gauge
	humidity prometheus.Gauge

	c float64
	h float64
}

// Sensors owns the simulated readings and the gauges that publish them.
type Sensors struct {
	mu       sync.Mutex
	rng      *rand.Rand
	sensors  []*sensorGauges
	switches map[uint32]prometheus.Gauge
}

// NewSensors registers <name>_c, <name>_f and <name>_h for every sensor and
// <switch>_state for every switch.
func NewSensors(reg prometheus.Registerer, sensors []config.SensorConfig, switches []config.SwitchConfig, seed int64) (*Sensors, error) {
	s := &Sensors{
		rng:      rand.New(rand.NewSource(seed)),
		switches: make(map[uint32]prometheus.Gauge, len(switches)),
	}

	for _, sc := range sensors {
		g := &sensorGauges{
			name:     sc.Name,
			celsius:  prometheus.NewGauge(prometheus.GaugeOpts{Name: sc.Name + "_c", Help: sc.Name + " temperature in Celsius"}),
			fahrenh:  prometheus.NewGauge(prometheus.GaugeOpts{Name: sc.Name + "_f", Help: sc.Name + " temperature in Fahrenheit"}),
			humidity: prometheus.NewGauge(prometheus.GaugeOpts{Name: sc.Name + "_h", Help: sc.Name + " relative humidity"}),
			c:        startCelsius,
			h:        startHumidity,
		}
		for _, c := range []prometheus.Collector{g.celsius, g.fahrenh, g.humidity} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("registering gauges for sensor %q: %w", sc.Name, err)
			}
		}
		g.publish()
		s.sensors = append(s.sensors, g)
	}

	for _, sw := range switches {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: sw.Name + "_state",
			Help: sw.Name + " switch state",
		})
		if err := reg.Register(gauge); err != nil {
			return nil, fmt.Errorf("registering gauge for switch %q: %w", sw.Name, err)
		}
		s.switches[sw.GPIOPin] = gauge
	}

	return s, nil
}

// Step moves every reading by a small random amount.
func (s *Sensors) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.sensors {
		g.c = clamp(g.c+(s.rng.Float64()*2-1)*maxStepC, -10, 45)
		g.h = clamp(g.h+(s.rng.Float64()*2-1)*maxStepH, 5, 100)
		g.publish()
	}
}

// Set pins a sensor to specific readings.
func (s *Sensors) Set(name string, celsius, humidity float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.sensors {
		if g.name == name {
			g.c, g.h = celsius, humidity
			g.publish()
			return true
		}
	}
	return false
}

// SetSwitch publishes a switch's pin state.
func (s *Sensors) SetSwitch(pin uint32, on bool) {
	gauge, ok := s.switches[pin]
	if !ok {
		return
	}
	if on {
		gauge.Set(1)
	} else {
		gauge.Set(0)
	}
}

func (g *sensorGauges) publish() {
	g.celsius.Set(round1(g.c))
	g.fahrenh.Set(round1(CelsiusToFahrenheit(g.c)))
	g.humidity.Set(round1(g.h))
}

// CelsiusToFahrenheit converts the way the agent does.
func CelsiusToFahrenheit(c float64) float64 {
	return c*1.8 + 32
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
