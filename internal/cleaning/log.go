package cleaning

import "fmt"

// Entry is a single human-readable record of a pipeline action
type Entry struct {
	Action   string `json:"action"`
	Detail   string `json:"detail"`
	Affected int    `json:"affected"`
}

// Log is the ordered record of actions taken during a cleaning run,
// created fresh per run and consumed by the report builder
type Log []Entry

func (l *Log) add(action string, affected int, format string, args ...interface{}) {
	*l = append(*l, Entry{
		Action:   action,
		Detail:   fmt.Sprintf(format, args...),
		Affected: affected,
	})
}

// Lines renders the log as plain detail strings for the report
func (l Log) Lines() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.Detail
	}
	return out
}
