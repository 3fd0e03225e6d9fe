package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/rbnvfd/internal/config"
	"github.com/rileyhilliard/rbnvfd/internal/display"
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/lock"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
	"github.com/rileyhilliard/rbnvfd/internal/radio"
	"github.com/rileyhilliard/rbnvfd/internal/rbn"
	"github.com/rileyhilliard/rbnvfd/internal/spot"
	"github.com/rileyhilliard/rbnvfd/internal/vfd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBanner = "Welcome to the Reverse Beacon Network\r\n\r\nPlease enter your call: "

var testSpotLines = []string{
	"DX de W6JSV-#:   14033.0  WO6W           CW    24 dB  28 WPM  CQ      2259Z\r\n",
	"DX de K9LC-#:    14033.4  WO6W           CW    31 dB  26 WPM  CQ      2259Z\r\n",
}

// rbnServer answers the login prompt and sends testSpotLines to every session.
type rbnServer struct {
	ln net.Listener

	mu        sync.Mutex
	callsigns []string
}

func newRBNServer(t *testing.T) *rbnServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &rbnServer{ln: ln}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *rbnServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *rbnServer) handle(conn net.Conn) {
	defer conn.Close()
	if _, err := conn.Write([]byte(testBanner)); err != nil {
		return
	}
	rd := bufio.NewReader(conn)
	line, err := rd.ReadString('\n')
	if err != nil {
		return
	}
	s.mu.Lock()
	s.callsigns = append(s.callsigns, strings.TrimSpace(line))
	s.mu.Unlock()

	for _, l := range testSpotLines {
		if _, err := conn.Write([]byte(l)); err != nil {
			return
		}
	}
	_, _ = rd.ReadString('\n')
}

func (s *rbnServer) logins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.callsigns...)
}

// memPort is an in-memory serial port.
type memPort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (p *memPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(b)
}

func (p *memPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *memPort) written() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Len()
}

func testConfig(addr string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Callsign = "N0CALL"
	cfg.RBN.Addr = addr
	cfg.RBN.DialTimeout = time.Second
	cfg.RBN.ReadTimeout = 50 * time.Millisecond
	cfg.RBN.LoginTimeout = 2 * time.Second
	cfg.Display.Port = "/dev/ttyTEST"
	cfg.Display.RefreshInterval = 10 * time.Millisecond
	cfg.Display.Seed = 1
	cfg.Spots.PurgeInterval = 50 * time.Millisecond
	return cfg
}

func newTestStation(t *testing.T, cfg *config.Config, port *memPort) *Station {
	t.Helper()
	st, err := NewStation(cfg, StationOptions{
		Log:     func(string) logger.Logger { return logger.Noop() },
		LockDir: t.TempDir(),
		Opener: func(path string) (vfd.Port, error) {
			port.mu.Lock()
			port.closed = false
			port.mu.Unlock()
			return port, nil
		},
	})
	require.NoError(t, err)
	return st
}

func waitForSpots(t *testing.T, st *Station, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(st.Snapshot().Spots) == n
	}, 3*time.Second, 10*time.Millisecond)
}

func TestStation_StreamsSpotsToDisplay(t *testing.T) {
	srv := newRBNServer(t)
	port := &memPort{}
	st := newTestStation(t, testConfig(srv.ln.Addr().String()), port)

	require.NoError(t, st.Start(context.Background()))
	defer st.Close()

	waitForSpots(t, st, 1)
	assert.Equal(t, []string{"N0CALL"}, srv.logins())

	require.Eventually(t, func() bool {
		return strings.Contains(st.Snapshot().Frame.String(), "WO6W")
	}, 3*time.Second, 10*time.Millisecond)

	snap := st.Snapshot()
	assert.Equal(t, "N0CALL", snap.Callsign)
	assert.Equal(t, rbn.Streaming, snap.Conn.State)
	assert.Equal(t, "WO6W", snap.Spots[0].Call)
	assert.Equal(t, 2, snap.Spots[0].Count)
	assert.Equal(t, 31, snap.Spots[0].HighestSNR)
	assert.Equal(t, display.ModeStatic, snap.Mode)
	assert.Equal(t, "/dev/ttyTEST", snap.DevicePath)
	assert.True(t, snap.DeviceOpen)
	assert.NoError(t, snap.DeviceErr)
	assert.Equal(t, radio.BackendDisabled, snap.Radio)
	assert.Greater(t, port.written(), 0)
}

func TestStation_DisconnectAndRecover(t *testing.T) {
	srv := newRBNServer(t)
	port := &memPort{}
	st := newTestStation(t, testConfig(srv.ln.Addr().String()), port)

	require.NoError(t, st.Start(context.Background()))
	defer st.Close()
	waitForSpots(t, st, 1)

	st.Disconnect()
	assert.Equal(t, rbn.Disconnected, st.Client.Status().State)

	require.NoError(t, st.Device.Close())
	assert.False(t, st.Snapshot().DeviceOpen)

	st.Recover()

	require.Eventually(t, func() bool {
		return st.Client.Status().State == rbn.Streaming
	}, 3*time.Second, 10*time.Millisecond)
	assert.Len(t, srv.logins(), 2)
	assert.True(t, st.Device.IsOpen())
}

func TestStation_DeviceLocked(t *testing.T) {
	cfg := testConfig("127.0.0.1:1")
	cfg.Callsign = ""
	dir := t.TempDir()

	newStation := func(port *memPort) *Station {
		st, err := NewStation(cfg, StationOptions{
			Log:     func(string) logger.Logger { return logger.Noop() },
			LockDir: dir,
			Opener:  func(string) (vfd.Port, error) { return port, nil },
		})
		require.NoError(t, err)
		return st
	}

	first := newStation(&memPort{})
	require.NoError(t, first.Start(context.Background()))

	second := newStation(&memPort{})
	err := second.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, lock.ErrLocked))
	assert.True(t, errors.IsCode(err, errors.ErrLock))

	first.Close()
	require.NoError(t, second.Start(context.Background()))
	second.Close()
}

func TestStation_ReopenDisplay(t *testing.T) {
	port := &memPort{}
	cfg := testConfig("127.0.0.1:1")
	cfg.Callsign = ""
	st := newTestStation(t, cfg, port)

	require.NoError(t, st.Start(context.Background()))
	defer st.Close()

	err := st.ReopenDisplay()
	assert.True(t, errors.Is(err, vfd.ErrAlreadyOpen))

	require.NoError(t, st.Device.Close())
	require.NoError(t, st.ReopenDisplay())
	assert.True(t, st.Device.IsOpen())
}

func TestStation_NoDevice(t *testing.T) {
	cfg := testConfig("127.0.0.1:1")
	cfg.Callsign = ""
	st, err := NewStation(cfg, StationOptions{
		NoDevice: true,
		Log:      func(string) logger.Logger { return logger.Noop() },
	})
	require.NoError(t, err)
	assert.Nil(t, st.Device)

	require.NoError(t, st.Start(context.Background()))
	defer st.Close()

	err = st.ReopenDisplay()
	assert.True(t, errors.IsCode(err, errors.ErrNotConfigured))

	snap := st.Snapshot()
	assert.Empty(t, snap.DevicePath)
	assert.Equal(t, rbn.Disconnected, snap.Conn.State)

	// The preview still receives the idle pattern.
	require.Eventually(t, func() bool {
		return st.Preview.Writes() > 0
	}, time.Second, 10*time.Millisecond)
}

func TestStation_ConnectWithoutCallsign(t *testing.T) {
	cfg := testConfig("127.0.0.1:1")
	cfg.Callsign = ""
	st, err := NewStation(cfg, StationOptions{NoDevice: true, Log: func(string) logger.Logger { return logger.Noop() }})
	require.NoError(t, err)
	defer st.Close()

	err = st.Connect()
	assert.True(t, errors.IsCode(err, errors.ErrNotConfigured))
}

func TestStation_SetForceIdle(t *testing.T) {
	srv := newRBNServer(t)
	port := &memPort{}
	st := newTestStation(t, testConfig(srv.ln.Addr().String()), port)

	require.NoError(t, st.Start(context.Background()))
	defer st.Close()
	waitForSpots(t, st, 1)

	st.SetForceIdle(true)
	require.Eventually(t, func() bool {
		return st.Snapshot().Mode == display.ModeIdle
	}, time.Second, 10*time.Millisecond)
	assert.True(t, st.Snapshot().ForceIdle)

	st.SetForceIdle(false)
	require.Eventually(t, func() bool {
		return st.Snapshot().Mode == display.ModeStatic
	}, time.Second, 10*time.Millisecond)
}

func TestStation_TuneDisabled(t *testing.T) {
	cfg := testConfig("127.0.0.1:1")
	st, err := NewStation(cfg, StationOptions{NoDevice: true, Log: func(string) logger.Logger { return logger.Noop() }})
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Tune(spot.AggregatedSpot{Call: "WO6W", FrequencyKHz: 14033.2, Mode: "CW"})
	assert.True(t, errors.Is(err, radio.ErrDisabled))
}

func TestStation_TuneRigctld(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	var mu sync.Mutex
	var cmds []string
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			mu.Lock()
			cmds = append(cmds, sc.Text())
			mu.Unlock()
			fmt.Fprint(conn, "RPRT 0\n")
		}
	}()

	cfg := testConfig("127.0.0.1:1")
	cfg.Radio.Backend = radio.BackendRigctld
	cfg.Radio.Addr = ln.Addr().String()
	st, err := NewStation(cfg, StationOptions{NoDevice: true, Log: func(string) logger.Logger { return logger.Noop() }})
	require.NoError(t, err)
	defer st.Close()

	msg, err := st.Tune(spot.AggregatedSpot{Call: "K1ABC", FrequencyKHz: 7074.0, Mode: "FT8"})
	require.NoError(t, err)
	assert.Equal(t, "Tuned K1ABC 7074.0 kHz LSB", msg)
	assert.True(t, st.Snapshot().RadioConnected)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"F 7074000", "M LSB 0"}, cmds)
}

func TestStation_MetricsEndpoint(t *testing.T) {
	cfg := testConfig("127.0.0.1:1")
	cfg.Callsign = ""
	cfg.Metrics.Listen = "127.0.0.1:0"
	st, err := NewStation(cfg, StationOptions{NoDevice: true, Log: func(string) logger.Logger { return logger.Noop() }})
	require.NoError(t, err)

	require.NoError(t, st.Start(context.Background()))
	defer st.Close()

	addr := st.MetricsAddr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStation_MetricsListenInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig("127.0.0.1:1")
	cfg.Callsign = ""
	cfg.Metrics.Listen = ln.Addr().String()
	st, err := NewStation(cfg, StationOptions{NoDevice: true, Log: func(string) logger.Logger { return logger.Noop() }})
	require.NoError(t, err)
	defer st.Close()

	err = st.Start(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestNewStation_BadSort(t *testing.T) {
	cfg := testConfig("127.0.0.1:1")
	cfg.Spots.Sort = "loudness"
	_, err := NewStation(cfg, StationOptions{NoDevice: true})
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
