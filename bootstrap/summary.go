package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/collector/component"
)

// Summary prints what the job started with: the registered infrastructure
// and its live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	taskDuration    time.Duration
	out             io.Writer
}

// NewSummary creates a summary writing to out (os.Stdout when nil).
func NewSummary(serviceName, version string, out io.Writer) *Summary {
	if out == nil {
		out = os.Stdout
	}
	return &Summary{serviceName: serviceName, version: version, out: out}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) { s.startupDuration = d }

// SetTaskDuration records how long the task ran.
func (s *Summary) SetTaskDuration(d time.Duration) { s.taskDuration = d }

// TaskDuration returns the recorded task duration.
func (s *Summary) TaskDuration() time.Duration { return s.taskDuration }

// Display writes the startup summary, describing every registered component
// that implements component.Describable.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	fmt.Fprintf(s.out, "\n%s v%s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	var comps []component.Component
	if registry != nil {
		comps = registry.All()
	}
	if len(comps) == 0 {
		fmt.Fprintf(s.out, "   └── No components registered\n\n")
		return
	}

	fmt.Fprintf(s.out, "Infrastructure\n")
	for i, c := range comps {
		name, kind, details := c.Name(), "", ""
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name != "" {
				name = desc.Name
			}
			kind, details = desc.Type, desc.Details
		}
		h := c.Health(ctx)

		line := name
		if kind != "" {
			line += " [" + kind + "]"
		}
		if details != "" {
			line += ": " + details
		}
		status := strings.ToLower(string(h.Status))
		if h.Message != "" {
			status += " (" + h.Message + ")"
		}
		fmt.Fprintf(s.out, "   %s %s %s, %s\n", treePrefix(i, len(comps)), healthStatusIcon(h.Status), line, status)
	}
	fmt.Fprintln(s.out)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
