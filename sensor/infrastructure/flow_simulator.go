// Package infrastructure provides concrete implementation of sensor domain entities.
package infrastructure

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	sensorDomain "github.com/samoilenko/water_monitor/sensor/domain"
)

const (
	episodeStartChance = 0.08
	unattendedChance   = 0.2
	idlePresenceChance = 0.05
	minEpisodeTicks    = 5
	maxEpisodeTicks    = 40
	minFlowLPM         = 1.5
	maxFlowLPM         = 9.0
)

// FlowSimulator produces synthetic readings of a tap: idle periods with no flow,
// usage episodes with a noisy flow and a running cumulative total. Some episodes
// are unattended, i.e. water runs while nobody is in front of the tap.
type FlowSimulator struct {
	mu         sync.Mutex
	rnd        *rand.Rand
	tick       time.Duration
	cumulative float64

	episodeLeft int
	baseFlow    float64
	unattended  bool
}

// GetValue advances the simulation by one tick.
func (s *FlowSimulator) GetValue() (sensorDomain.SensorValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.episodeLeft == 0 && s.rnd.Float64() < episodeStartChance {
		s.episodeLeft = minEpisodeTicks + s.rnd.IntN(maxEpisodeTicks-minEpisodeTicks+1)
		s.baseFlow = minFlowLPM + s.rnd.Float64()*(maxFlowLPM-minFlowLPM)
		s.unattended = s.rnd.Float64() < unattendedChance
	}

	if s.episodeLeft == 0 {
		presence := 0
		if s.rnd.Float64() < idlePresenceChance {
			presence = 1
		}
		return sensorDomain.SensorValue{CumulativeLiters: roundTo(s.cumulative, 3), Presence: presence}, nil
	}

	s.episodeLeft--
	flow := math.Max(0, s.baseFlow+s.rnd.NormFloat64()*0.3)
	flow = roundTo(flow, 2)
	s.cumulative += flow * s.tick.Minutes()

	presence := 1
	if s.unattended {
		presence = 0
	}

	return sensorDomain.SensorValue{
		FlowLPM:          flow,
		CumulativeLiters: roundTo(s.cumulative, 3),
		Presence:         presence,
	}, nil
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}

// NewFlowSimulator creates a simulator ticking at rate. The same seed yields the same sequence.
func NewFlowSimulator(rate sensorDomain.Rate, seed uint64) *FlowSimulator {
	return &FlowSimulator{
		rnd:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		tick: rate.Period(),
	}
}
