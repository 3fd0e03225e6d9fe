package spot

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	rbnerrors "github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
)

// LoginPrompt is the substring the RBN telnet server sends when it wants a callsign.
// Matching is case-insensitive.
const LoginPrompt = "please enter your call"

// MaxLineLength bounds the reassembly buffer. A fragment that grows past it
// without a newline is dropped and counted as malformed.
const MaxLineLength = 4096

const spotPrefix = "DX de"

// spotPattern follows the RBN telnet field order:
//
//	DX de <spotter>:  <freq>  <call>  <mode>  <snr> dB  <speed> WPM  ...
var spotPattern = regexp.MustCompile(`^DX de (\S+):\s+(\d+\.?\d*)\s+(\S+)\s+(\w+)\s+(-?\d+)\s+dB\s+(\d+)\s+WPM`)

var (
	// ErrNotSpot marks server chatter: lines that are not spot reports at all.
	ErrNotSpot = errors.New("not a spot line")
	// ErrMalformedLine marks "DX de" lines that do not fit the grammar. The
	// parser counts and drops them; it never leaves the package as a failure.
	ErrMalformedLine = rbnerrors.New(rbnerrors.ErrMalformed,
		"Malformed spot line",
		"The line is dropped and counted")
)

// ParserStats counts what the parser has seen.
type ParserStats struct {
	Lines     int64 // Complete lines processed
	Spots     int64 // Lines that produced a RawSpot
	Malformed int64 // Spot lines that failed the grammar, plus overlong fragments
	Ignored   int64 // Banners and other server chatter
	Prompts   int64 // Login prompt lines
}

// Parser turns telnet bytes into RawSpots. Feed must be called from a single
// goroutine; Stats may be read from any goroutine.
type Parser struct {
	now func() time.Time
	log logger.Logger
	buf []byte

	lines     atomic.Int64
	spots     atomic.Int64
	malformed atomic.Int64
	ignored   atomic.Int64
	prompts   atomic.Int64
}

// NewParser creates a parser. now stamps each spot; nil means time.Now.
func NewParser(now func() time.Time, log logger.Logger) *Parser {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Parser{now: now, log: log}
}

// Feed consumes a chunk that may hold any number of lines, including a partial
// one at the end, and returns the spots from every complete line. The trailing
// fragment is kept for the next call.
func (p *Parser) Feed(chunk []byte) []RawSpot {
	p.buf = append(p.buf, chunk...)

	var out []RawSpot
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(p.buf[:i], "\r"))
		p.buf = p.buf[i+1:]
		if s, ok := p.handleLine(line); ok {
			out = append(out, s)
		}
	}

	if len(p.buf) > MaxLineLength {
		p.malformed.Add(1)
		p.log.Debug("dropping %d byte fragment with no line terminator", len(p.buf))
		p.buf = nil
	} else if len(p.buf) == 0 {
		p.buf = nil
	}
	return out
}

// Pending returns the unterminated fragment currently buffered.
func (p *Parser) Pending() []byte {
	return p.buf
}

// Reset drops any buffered fragment. Counters are kept.
func (p *Parser) Reset() {
	p.buf = nil
}

// Stats returns the current counters.
func (p *Parser) Stats() ParserStats {
	return ParserStats{
		Lines:     p.lines.Load(),
		Spots:     p.spots.Load(),
		Malformed: p.malformed.Load(),
		Ignored:   p.ignored.Load(),
		Prompts:   p.prompts.Load(),
	}
}

func (p *Parser) handleLine(line string) (RawSpot, bool) {
	p.lines.Add(1)

	if ContainsPrompt([]byte(line)) {
		p.prompts.Add(1)
		return RawSpot{}, false
	}

	s, err := parseLine(line, p.now())
	switch {
	case err == nil:
		p.spots.Add(1)
		return s, true
	case errors.Is(err, ErrMalformedLine):
		p.malformed.Add(1)
		p.log.Debug("malformed spot line: %q", line)
	default:
		p.ignored.Add(1)
	}
	return RawSpot{}, false
}

func parseLine(line string, at time.Time) (RawSpot, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, spotPrefix) {
		return RawSpot{}, ErrNotSpot
	}

	m := spotPattern.FindStringSubmatch(line)
	if m == nil {
		return RawSpot{}, ErrMalformedLine
	}

	freq, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return RawSpot{}, ErrMalformedLine
	}
	snr, err := strconv.Atoi(m[5])
	if err != nil {
		return RawSpot{}, ErrMalformedLine
	}
	speed, err := strconv.Atoi(m[6])
	if err != nil {
		return RawSpot{}, ErrMalformedLine
	}

	spotter := strings.TrimRight(m[1], "-#:")
	if spotter == "" {
		return RawSpot{}, ErrMalformedLine
	}

	return RawSpot{
		Spotter:      spotter,
		Call:         m[3],
		FrequencyKHz: freq,
		SNR:          snr,
		Speed:        speed,
		Mode:         m[4],
		SeenAt:       at,
	}, nil
}

// ContainsPrompt reports whether b contains the login prompt, ignoring case.
func ContainsPrompt(b []byte) bool {
	return promptIndex(b) >= 0
}

// PromptEnd returns the offset just past the login prompt in b, or -1.
func PromptEnd(b []byte) int {
	i := promptIndex(b)
	if i < 0 {
		return -1
	}
	return i + len(LoginPrompt)
}

// promptIndex lowers ASCII letters byte by byte so offsets stay valid for
// whatever else the server sends.
func promptIndex(b []byte) int {
	lower := make([]byte, len(b))
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower[i] = c
	}
	return bytes.Index(lower, []byte(LoginPrompt))
}
