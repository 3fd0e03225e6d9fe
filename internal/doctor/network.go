package doctor

import (
	"fmt"
	"net"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/spot"
)

// DefaultTimeout bounds each network check.
const DefaultTimeout = 5 * time.Second

// RBNServerCheck dials the spot server and waits for its login prompt.
// It never sends a callsign.
type RBNServerCheck struct {
	Addr    string
	Timeout time.Duration
}

func (c *RBNServerCheck) Name() string     { return "rbn_server" }
func (c *RBNServerCheck) Category() string { return CategoryNetwork }

func (c *RBNServerCheck) Run() CheckResult {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	conn, err := net.DialTimeout("tcp", c.Addr, timeout)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot reach %s: %v", c.Addr, err),
			Suggestion: "Check your network connection and 'rbn.addr'",
		}
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var seen []byte
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		seen = append(seen, buf[:n]...)
		if spot.PromptEnd(seen) >= 0 {
			return CheckResult{
				Name:    c.Name(),
				Status:  StatusPass,
				Message: fmt.Sprintf("%s answered with a login prompt in %s", c.Addr, time.Since(start).Round(time.Millisecond)),
			}
		}
		if err != nil || len(seen) > spot.MaxLineLength*4 {
			return CheckResult{
				Name:       c.Name(),
				Status:     StatusWarn,
				Message:    fmt.Sprintf("%s accepted the connection but sent no login prompt", c.Addr),
				Suggestion: "Check that 'rbn.addr' points at an RBN telnet port",
			}
		}
	}
}

// MetricsListenCheck verifies the metrics address can be bound.
type MetricsListenCheck struct {
	Addr string
}

func (c *MetricsListenCheck) Name() string     { return "metrics_listen" }
func (c *MetricsListenCheck) Category() string { return CategoryNetwork }

func (c *MetricsListenCheck) Run() CheckResult {
	if c.Addr == "" {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "Metrics endpoint disabled",
		}
	}

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot listen on %s: %v", c.Addr, err),
			Suggestion: "Pick a free port for 'metrics.listen'",
		}
	}
	ln.Close()

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Metrics can be served on %s", c.Addr),
	}
}
