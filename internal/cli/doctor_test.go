package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rileyhilliard/rbnvfd/internal/config"
	"github.com/rileyhilliard/rbnvfd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCommand_JSON(t *testing.T) {
	dir := isolate(t)
	srv := newRBNServer(t)

	cfg := config.DefaultConfig()
	cfg.Callsign = "W6JSV"
	cfg.RBN.Addr = srv.ln.Addr().String()
	writeConfig(t, dir, cfg)

	var buf bytes.Buffer
	require.NoError(t, doctorCommand(&buf, true))

	var out DoctorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 0, out.Summary.Fail)
	assert.Equal(t, 1, out.Summary.Warn) // no display port
	assert.False(t, out.Summary.AllClear)

	var names []string
	for _, c := range out.Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"CONFIG", "NETWORK", "DISPLAY", "RADIO"}, names)
}

func TestDoctorCommand_FailsWithoutCallsign(t *testing.T) {
	dir := isolate(t)
	srv := newRBNServer(t)

	cfg := config.DefaultConfig()
	cfg.RBN.Addr = srv.ln.Addr().String()
	writeConfig(t, dir, cfg)

	var buf bytes.Buffer
	err := doctorCommand(&buf, false)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, buf.String(), "No callsign configured")
	assert.Contains(t, buf.String(), "CONFIG")
}
