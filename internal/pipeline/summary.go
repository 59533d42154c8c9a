package pipeline

import "time"

// Summary carries the end-of-run totals the CLI reports. Counter
// fields accumulate across runs on the same coordinator; Mode, Lines,
// and Duration describe the most recent run.
type Summary struct {
	// Mode of the most recent run
	Mode string `json:"mode"`
	// Lines handed to the most recent run
	Lines int `json:"lines"`
	// Processed records across all runs
	Processed int64 `json:"processed"`
	// Dropped lines no parser claimed
	Dropped int64 `json:"dropped"`
	// Failed lines that parsed or processed with an error
	Failed int64 `json:"failed"`
	// Sensors distinct in the composite tree
	Sensors int `json:"sensors"`
	// Alerts emitted by the alert actor
	Alerts int64 `json:"alerts"`
	// Duration of the most recent run
	Duration time.Duration `json:"duration"`
}

// Summary snapshots the run totals. Alerts reads the actor's mirrored
// counter, so a Summary taken mid-run may trail records still sitting
// in the alert mailbox.
func (c *Coordinator) Summary() Summary {
	c.mu.Lock()
	mode, lines, elapsed := c.modeLabel, c.lastLines, c.lastDuration
	c.mu.Unlock()

	return Summary{
		Mode:      mode,
		Lines:     lines,
		Processed: c.processed.Load(),
		Dropped:   c.dropped.Load(),
		Failed:    c.failed.Load(),
		Sensors:   c.tree.SensorCount(),
		Alerts:    c.actors.Alerts().Emitted(),
		Duration:  elapsed,
	}
}
