// Package rbn connects to a Reverse Beacon Network telnet server, logs in with
// a callsign and streams parsed spots onto a channel.
//
// A Client runs at most one session at a time. Reconnection is manual: a
// session that ends, by error or by Disconnect, leaves the client
// Disconnected until Connect is called again.
package rbn

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
	"github.com/rileyhilliard/rbnvfd/internal/metrics"
	"github.com/rileyhilliard/rbnvfd/internal/spot"
)

// Defaults for Options.
const (
	DefaultAddr         = "rbn.telegraphy.de:7000"
	DefaultDialTimeout  = 10 * time.Second
	DefaultReadTimeout  = 500 * time.Millisecond
	DefaultLoginTimeout = 30 * time.Second
	DefaultEventBuffer  = 4096
)

const readBufferSize = 4096

// ConnState is the connection lifecycle state.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	AwaitingPrompt
	Streaming
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case AwaitingPrompt:
		return "awaiting prompt"
	case Streaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

// Status is a snapshot of the connection.
type Status struct {
	State    ConnState
	Callsign string
	// LastError is why the last session ended, or nil after a clean Disconnect.
	LastError error
	Since     time.Time
}

// Stats counts session activity since the client was created.
type Stats struct {
	Connects int64
	Spots    int64 // delivered onto Events
	Dropped  int64 // discarded because Events was full
	Parser   spot.ParserStats
}

// Options configures a Client. Zero fields take the defaults above.
type Options struct {
	Addr         string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration // bound on each blocking read
	LoginTimeout time.Duration
	EventBuffer  int
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.LoginTimeout <= 0 {
		o.LoginTimeout = DefaultLoginTimeout
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = DefaultEventBuffer
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ErrNotConfigured is returned by Connect when no callsign is given.
var ErrNotConfigured = errors.New(errors.ErrNotConfigured,
	"No callsign configured",
	"Set 'callsign' in config.yaml or pass --callsign")

// ErrClosed is returned by Connect after Close.
var ErrClosed = errors.New(errors.ErrConnection,
	"RBN client is closed",
	"Create a new client")

// Client is the spot ingestor.
type Client struct {
	opts   Options
	log    logger.Logger
	parser *spot.Parser

	events  chan spot.RawSpot
	updates chan Status

	// lifecycle serializes Connect, Disconnect and Close.
	lifecycle sync.Mutex

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
	closed bool

	connects  atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64

	// Owned by the session goroutine.
	reportedMalformed int64
}

// NewClient creates a disconnected client.
func NewClient(opts Options, log logger.Logger) *Client {
	opts = opts.withDefaults()
	if log == nil {
		log = logger.Noop()
	}
	return &Client{
		opts:    opts,
		log:     log,
		parser:  spot.NewParser(opts.Now, log),
		events:  make(chan spot.RawSpot, opts.EventBuffer),
		updates: make(chan Status, 16),
		status:  Status{State: Disconnected, Since: opts.Now()},
	}
}

// Events carries parsed spots. It is closed by Close.
func (c *Client) Events() <-chan spot.RawSpot {
	return c.events
}

// Updates carries status changes. Slow readers miss intermediate states;
// Status always has the latest. It is closed by Close.
func (c *Client) Updates() <-chan Status {
	return c.updates
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Stats returns counters since creation.
func (c *Client) Stats() Stats {
	return Stats{
		Connects: c.connects.Load(),
		Spots:    c.delivered.Load(),
		Dropped:  c.dropped.Load(),
		Parser:   c.parser.Stats(),
	}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.opts.Addr
}

// Connect starts a session logged in as callsign, replacing any current one.
// It returns once the session is started; failures show up in Status.
func (c *Client) Connect(callsign string) error {
	callsign = strings.TrimSpace(callsign)
	if callsign == "" {
		return ErrNotConfigured
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.isClosed() {
		return ErrClosed
	}
	c.stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.connects.Add(1)
	metrics.RecordConnect()
	c.setState(Connecting, callsign, nil)

	go c.session(ctx, callsign, done)
	return nil
}

// Disconnect ends the current session and waits for it to exit. The
// in-flight read is interrupted rather than waited out.
func (c *Client) Disconnect() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stop()
}

// Close disconnects and closes Events and Updates.
func (c *Client) Close() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.isClosed() {
		return nil
	}
	c.stop()

	c.mu.Lock()
	c.closed = true
	close(c.events)
	close(c.updates)
	c.mu.Unlock()
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// stop cancels the session and waits for its goroutine. Callers hold lifecycle.
func (c *Client) stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Client) setState(state ConnState, callsign string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if callsign == "" {
		callsign = c.status.Callsign
	}
	c.status = Status{State: state, Callsign: callsign, LastError: err, Since: c.opts.Now()}
	metrics.SetConnectionState(int(state))

	if c.closed {
		return
	}
	select {
	case c.updates <- c.status:
	default:
		// Make room so the newest state is the one queued.
		select {
		case <-c.updates:
		default:
		}
		select {
		case c.updates <- c.status:
		default:
		}
	}
}

func (c *Client) session(ctx context.Context, callsign string, done chan struct{}) {
	defer close(done)

	err := c.run(ctx, callsign)
	if ctx.Err() != nil {
		c.log.Info("disconnected from %s", c.opts.Addr)
		c.setState(Disconnected, "", nil)
		return
	}

	metrics.RecordSessionError(errors.CodeOf(err))
	c.log.Warn("session ended: %s", errors.Summary(err))
	c.setState(Disconnected, "", err)
}

func (c *Client) run(ctx context.Context, callsign string) error {
	c.log.Info("connecting to %s", c.opts.Addr)

	dialer := net.Dialer{Timeout: c.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.opts.Addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Cannot connect to %s", c.opts.Addr),
			"Check your network connection and 'rbn.addr'")
	}
	defer conn.Close()

	// Unblock any read in progress the moment the session is cancelled.
	stopAfter := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
		_ = conn.Close()
	})
	defer stopAfter()

	c.setState(AwaitingPrompt, "", nil)
	rest, err := c.login(ctx, conn, callsign)
	if err != nil {
		return err
	}

	c.log.Info("logged in to %s as %s", c.opts.Addr, callsign)
	c.parser.Reset()
	c.setState(Streaming, "", nil)
	c.feed(rest)

	return c.stream(ctx, conn)
}

// login waits for the prompt, answers it and returns whatever followed the
// prompt line in the same reads.
func (c *Client) login(ctx context.Context, conn net.Conn, callsign string) ([]byte, error) {
	deadline := time.Now().Add(c.opts.LoginTimeout)
	buf := make([]byte, readBufferSize)
	var pending []byte

	for {
		n, err := c.read(ctx, conn, buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			if end := spot.PromptEnd(pending); end >= 0 {
				if err := c.sendCallsign(conn, callsign); err != nil {
					return nil, err
				}
				return afterLine(pending[end:]), nil
			}
			// Keep enough of the tail to match a prompt split across reads.
			if keep := len(spot.LoginPrompt); len(pending) > spot.MaxLineLength {
				pending = append([]byte(nil), pending[len(pending)-keep:]...)
			}
		}

		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTimeout(err) {
			if time.Now().After(deadline) {
				return nil, errors.New(errors.ErrConnection,
					fmt.Sprintf("No login prompt from %s within %s", c.opts.Addr, c.opts.LoginTimeout),
					"Check that 'rbn.addr' points at an RBN telnet port")
			}
			continue
		}
		return nil, errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Connection to %s closed before login", c.opts.Addr),
			"The server may be busy; try connecting again")
	}
}

func (c *Client) sendCallsign(conn net.Conn, callsign string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(c.opts.DialTimeout))
	if _, err := conn.Write([]byte(callsign + "\r\n")); err != nil {
		return errors.WrapWithCode(err, errors.ErrConnection,
			"Failed to send callsign",
			"Try connecting again")
	}
	return nil
}

func (c *Client) stream(ctx context.Context, conn net.Conn) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.read(ctx, conn, buf)
		if n > 0 {
			c.feed(buf[:n])
		}

		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isTimeout(err) {
			continue
		}
		return errors.WrapWithCode(err, errors.ErrStream,
			fmt.Sprintf("Spot stream from %s interrupted", c.opts.Addr),
			"Reconnect to resume spots")
	}
}

func (c *Client) read(ctx context.Context, conn net.Conn, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	return conn.Read(buf)
}

func (c *Client) feed(chunk []byte) {
	c.deliver(c.parser.Feed(chunk))

	if m := c.parser.Stats().Malformed; m > c.reportedMalformed {
		metrics.RecordMalformed(m - c.reportedMalformed)
		c.reportedMalformed = m
	}
}

// deliver never blocks: spots that do not fit are dropped and counted.
func (c *Client) deliver(spots []spot.RawSpot) {
	if len(spots) == 0 {
		return
	}
	sent, dropped := 0, 0
	for _, s := range spots {
		select {
		case c.events <- s:
			sent++
		default:
			dropped++
		}
	}
	c.delivered.Add(int64(sent))
	if dropped > 0 {
		c.dropped.Add(int64(dropped))
		c.log.Debug("event buffer full, dropped %d spots", dropped)
	}
	metrics.RecordSpots(sent, dropped)
}

// afterLine returns what follows the first newline in b. The prompt line
// itself usually ends without one, in which case nothing follows.
func afterLine(b []byte) []byte {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return nil
	}
	return append([]byte(nil), b[i+1:]...)
}

func isTimeout(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
