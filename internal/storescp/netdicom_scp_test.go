package storescp

import (
	"testing"

	"github.com/suyashkumar/dicom"

	"github.com/mijuny/pacs-agent/internal/config"
)

var _ scp = (*netdicomSCP)(nil)

// TestNetdicomSCPStartAndStop drives the real service provider adapter,
// not the fakeSCP receiver_test.go otherwise exercises exclusively: it
// binds a listener, confirms start returns without error, and tears
// the listener down again.
func TestNetdicomSCPStartAndStop(t *testing.T) {
	cfg := config.SCPConfig{AETitle: "AHJO-loader", Port: 19012}
	s := newNetdicomSCP(cfg)

	err := s.start(func(ds *dicom.Dataset, transferSyntaxUID, sopClassUID, sopInstanceUID string) uint16 {
		return 0x0000
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	s.stop()
}
