package pacsclient

import (
	"testing"

	"github.com/mijuny/pacs-agent/internal/config"
)

var _ scu = (*netdicomSCU)(nil)

// TestNetdicomSCUConnectsAndFailsWithoutAPeer drives the real adapter,
// not the fake client_test.go otherwise exercises exclusively, against
// a port nothing listens on. connect() always succeeds (the library
// doesn't block on the handshake), so the failure to reach an archive
// has to surface from the first real operation instead.
func TestNetdicomSCUConnectsAndFailsWithoutAPeer(t *testing.T) {
	cfg := &config.Config{
		PACS: config.PACSConfig{Host: "127.0.0.1", Port: 1, AETitle: "NOBODY"},
		SCP:  config.SCPConfig{AETitle: "AHJO-loader", Port: 9012},
	}
	conn := newNetdicomSCU(cfg)

	if err := conn.connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.release()

	if _, err := conn.cEcho(); err == nil {
		t.Error("expected C-ECHO against a port with no listener to fail")
	}
}
