package lifecycle

import (
	"context"
	"sort"
)

// Phase orders shutdown hooks.
type Phase int

const (
	// PhaseDrain stops intake: probes, the bot poller, the ops server.
	PhaseDrain Phase = iota
	// PhaseFlush waits for in-flight work such as investment submissions.
	PhaseFlush
	// PhaseClose releases connections and flushes telemetry.
	PhaseClose
)

// Hook describes a named shutdown hook.
type Hook struct {
	Name  string
	Phase Phase
	Fn    func(ctx context.Context) error
}

func phasesOf(hooks []Hook) []Phase {
	seen := make(map[Phase]struct{})
	phases := make([]Phase, 0, 3)
	for _, h := range hooks {
		if _, ok := seen[h.Phase]; ok {
			continue
		}
		seen[h.Phase] = struct{}{}
		phases = append(phases, h.Phase)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i] < phases[j] })
	return phases
}
