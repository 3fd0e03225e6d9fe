package radio

import (
	"bufio"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
)

// CommandError is a nonzero RPRT code returned by rigctld.
type CommandError struct {
	Command string
	Code    int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("rigctld %q returned RPRT %d", e.Command, e.Code)
}

// Rigctld talks to a hamlib rigctld daemon over its line protocol.
// One request is in flight at a time.
type Rigctld struct {
	addr    string
	timeout time.Duration
	log     logger.Logger

	mu   sync.Mutex
	conn net.Conn
	rd   *bufio.Reader
}

// NewRigctld returns a disconnected rigctld controller.
func NewRigctld(addr string, timeout time.Duration, log logger.Logger) *Rigctld {
	if addr == "" {
		addr = DefaultRigctldAddr
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Rigctld{addr: addr, timeout: timeout, log: log}
}

// Name implements Controller.
func (r *Rigctld) Name() string { return BackendRigctld }

// Addr returns the daemon address.
func (r *Rigctld) Addr() string { return r.addr }

// IsConnected implements Controller.
func (r *Rigctld) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// Connect dials the daemon. Connecting while connected is a no-op.
func (r *Rigctld) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", r.addr, r.timeout)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Cannot reach rigctld at %s", r.addr),
			"Start rigctld (e.g. rigctld -m <model> -r /dev/ttyUSB1) or fix 'radio.addr'")
	}
	r.conn = conn
	r.rd = bufio.NewReader(conn)
	r.log.Info("connected to rigctld at %s", r.addr)
	return nil
}

// Disconnect closes the connection.
func (r *Rigctld) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLocked()
}

func (r *Rigctld) dropLocked() {
	if r.conn == nil {
		return
	}
	_ = r.conn.Close()
	r.conn = nil
	r.rd = nil
}

// Tune sets frequency then mode.
func (r *Rigctld) Tune(frequencyKHz float64, mode Mode) error {
	if frequencyKHz <= 0 || math.IsNaN(frequencyKHz) || math.IsInf(frequencyKHz, 0) {
		return errors.New(errors.ErrControl,
			fmt.Sprintf("Invalid frequency %v kHz", frequencyKHz),
			"Frequencies are given in kHz, e.g. 14033.2")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return ErrNotConnected
	}

	hz := int64(math.Round(frequencyKHz * 1000))
	if err := r.commandLocked(fmt.Sprintf("F %d", hz)); err != nil {
		return err
	}
	if err := r.commandLocked(fmt.Sprintf("M %s 0", mode)); err != nil {
		return err
	}
	r.log.Debug("tuned %d Hz %s", hz, mode)
	return nil
}

// commandLocked sends one set command and reads its RPRT line. I/O failures
// and unparseable replies drop the connection, since the reply stream can no
// longer be matched to commands; a nonzero code leaves it up.
func (r *Rigctld) commandLocked(cmd string) error {
	if err := r.conn.SetDeadline(time.Now().Add(r.timeout)); err != nil {
		r.dropLocked()
		return errors.WrapWithCode(err, errors.ErrConnection, "rigctld connection lost", "Reconnect to the radio")
	}

	if _, err := r.conn.Write([]byte(cmd + "\n")); err != nil {
		r.dropLocked()
		return errors.WrapWithCode(err, errors.ErrConnection, "rigctld connection lost", "Reconnect to the radio")
	}

	line, err := r.rd.ReadString('\n')
	if err != nil {
		r.dropLocked()
		return errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("No reply from rigctld to %q", cmd),
			"Check that rigctld is running and responsive")
	}

	code, err := parseReport(line)
	if err != nil {
		r.dropLocked()
		return errors.WrapWithCode(err, errors.ErrControl,
			fmt.Sprintf("Unexpected reply from rigctld to %q", cmd),
			"Check that the address points at rigctld")
	}
	if code != 0 {
		return errors.WrapWithCode(&CommandError{Command: cmd, Code: code}, errors.ErrControl,
			"Radio rejected the command",
			"Check the rig supports this frequency and mode")
	}
	return nil
}

// parseReport parses "RPRT <code>".
func parseReport(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "RPRT" {
		return 0, fmt.Errorf("malformed reply %q", strings.TrimSpace(line))
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("malformed reply %q", strings.TrimSpace(line))
	}
	return code, nil
}
