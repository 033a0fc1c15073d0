package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PieterD/wake"
)

type recordingSender struct {
	sender *wake.Sender
	sent   []wake.HardwareAddr
	fail   bool
}

func (r *recordingSender) Send(_ context.Context, hw wake.HardwareAddr) error {
	if r.fail {
		return &wake.TransmitError{Addr: hw, Dest: r.sender.Destination(), Op: "send", Err: errors.New("network is unreachable")}
	}
	r.sent = append(r.sent, hw)
	return nil
}

type harness struct {
	app    *app
	rec    *recordingSender
	stdout bytes.Buffer
	stderr bytes.Buffer
	dir    string
}

func newHarness(t *testing.T, lookup string) *harness {
	t.Helper()
	h := &harness{rec: &recordingSender{}, dir: t.TempDir()}
	if lookup != "" {
		require.NoError(t, os.WriteFile(filepath.Join(h.dir, "MAC.config"), []byte(lookup), 0o600))
	}
	h.app = &app{
		stdout: &h.stdout,
		stderr: &h.stderr,
		newSender: func(opts ...wake.SenderOption) (wake.Transmitter, error) {
			s, err := wake.NewSender(opts...)
			if err != nil {
				return nil, err
			}
			h.rec.sender = s
			return h.rec, nil
		},
	}
	return h
}

func (h *harness) run(args ...string) int {
	args = append([]string{"wake", "--config-dir", h.dir}, args...)
	err := h.app.command().Run(context.Background(), args)
	if err == nil {
		return 0
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		return 2
	}
	return 1
}

func TestWakeMAC(t *testing.T) {
	h := newHarness(t, "")

	code := h.run("--mac", "FF-FF-FF-FF-FF-FF")
	require.Equal(t, 0, code, h.stderr.String())
	require.Len(t, h.rec.sent, 1)
	assert.Equal(t, wake.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, h.rec.sent[0])
	assert.Equal(t, "255.255.255.255:9", h.rec.sender.Destination().String())
	assert.Contains(t, h.stdout.String(), "FF-FF-FF-FF-FF-FF")

	_, err := os.Stat(filepath.Join(h.dir, "MAC.config"))
	assert.NoError(t, err, "lookup file should be created")
}

func TestWakeKeepsOrder(t *testing.T) {
	h := newHarness(t, "office : AA-BB-CC-DD-EE-FF\nhome : 11-22-33-44-55-66\n")

	code := h.run("-l", "home", "-m", "01-02-03-04-05-06", "--lookup", "office", "-m", "aa-aa-aa-aa-aa-aa")
	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, []wake.HardwareAddr{
		{0x11, 0x22, 0x33, 0x44, 0x55, 0x66},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06},
		{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA},
	}, h.rec.sent)
}

func TestWakeFailuresContinue(t *testing.T) {
	h := newHarness(t, "office : AA-BB-CC-DD-EE-FF\n")

	code := h.run("-l", "garage", "-m", "xx", "-l", "office")
	assert.Equal(t, 1, code)
	assert.Equal(t, []wake.HardwareAddr{{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}}, h.rec.sent)
	assert.Contains(t, h.stdout.String(), `Failed to resolve lookup target "garage"`)
	assert.Contains(t, h.stdout.String(), `Invalid MAC address "xx"`)
	assert.Contains(t, h.stdout.String(), `Sent magic packet to MAC address "AA-BB-CC-DD-EE-FF"`)
}

func TestWakeTransmitFailure(t *testing.T) {
	h := newHarness(t, "")
	h.rec.fail = true

	code := h.run("-m", "01-02-03-04-05-06")
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stdout.String(), `Failed to send magic packet to MAC address "01-02-03-04-05-06"`)
}

func TestWakeDefaultEntry(t *testing.T) {
	h := newHarness(t, "nas : 11-22-33-44-55-66\n")

	require.Equal(t, 0, h.run())
	assert.Equal(t, []wake.HardwareAddr{{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}}, h.rec.sent)
}

func TestWakeNoTargetEmptyConfig(t *testing.T) {
	h := newHarness(t, "")

	assert.Equal(t, 1, h.run())
	assert.Empty(t, h.rec.sent)
}

func TestWakeHelp(t *testing.T) {
	h := newHarness(t, "")

	require.Equal(t, 0, h.run("--help"))
	assert.Contains(t, h.stdout.String(), "--mac")
	assert.Contains(t, h.stdout.String(), "--lookup")
	assert.Empty(t, h.rec.sent)
}

func TestWakeUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--frobnicate"}},
		{"missing argument", []string{"-m"}},
		{"stray argument", []string{"office"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "")
			assert.Equal(t, 2, h.run(tt.args...))
			assert.Empty(t, h.rec.sent)
		})
	}
}

func TestWakeSettingsOverride(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "wake.yaml"), []byte("port: 7\n"), 0o600))

	require.Equal(t, 0, h.run("-m", "01-02-03-04-05-06"))
	assert.Equal(t, "255.255.255.255:7", h.rec.sender.Destination().String())

	h = newHarness(t, "")
	require.Equal(t, 0, h.run("--port", "4000", "--broadcast", "10.0.0.255", "-m", "01-02-03-04-05-06"))
	assert.Equal(t, "10.0.0.255:4000", h.rec.sender.Destination().String())
}

func TestWakeRejectsPortZero(t *testing.T) {
	h := newHarness(t, "")

	assert.Equal(t, 1, h.run("--port", "0", "-m", "01-02-03-04-05-06"))
	assert.Empty(t, h.rec.sent)
}

func TestRunExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"wake", "--frobnicate"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "frobnicate")

	stdout.Reset()
	assert.Equal(t, 0, run(context.Background(), []string{"wake", "-h"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "wake")
}

func TestWakeRejectsIPv6Broadcast(t *testing.T) {
	h := newHarness(t, "")

	assert.Equal(t, 1, h.run("--broadcast", "ff02::1", "-m", "01-02-03-04-05-06"))
	assert.Empty(t, h.rec.sent)
}
