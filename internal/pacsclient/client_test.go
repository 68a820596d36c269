package pacsclient

import (
	"errors"
	"testing"

	"github.com/mijuny/pacs-agent/internal/config"
)

// fakeSCU lets the business logic in this package (status
// interpretation, safe-field filtering, release-on-every-path) be
// tested without a live DICOM association.
type fakeSCU struct {
	connectErr   error
	released     bool
	echoStatus   uint16
	echoErr      error
	findResp     []findResponse
	findErr      error
	moveResp     []moveResponse
	moveErr      error
}

func (f *fakeSCU) connect() error { return f.connectErr }
func (f *fakeSCU) release()       { f.released = true }
func (f *fakeSCU) cEcho() (uint16, error) {
	return f.echoStatus, f.echoErr
}
func (f *fakeSCU) cFind(map[string]string) (<-chan findResponse, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make(chan findResponse, len(f.findResp))
	for _, r := range f.findResp {
		out <- r
	}
	close(out)
	return out, nil
}
func (f *fakeSCU) cMove(map[string]string, string) (<-chan moveResponse, error) {
	if f.moveErr != nil {
		return nil, f.moveErr
	}
	out := make(chan moveResponse, len(f.moveResp))
	for _, r := range f.moveResp {
		out <- r
	}
	close(out)
	return out, nil
}

func newTestClient(fake *fakeSCU) *Client {
	return &Client{
		cfg:    &config.Config{SCP: config.SCPConfig{AETitle: "AHJO-loader"}},
		newSCU: func(*config.Config) scu { return fake },
	}
}

func TestEchoSuccessReleasesAssociation(t *testing.T) {
	fake := &fakeSCU{echoStatus: statusSuccess}
	c := newTestClient(fake)

	ok, err := c.Echo()
	if err != nil {
		t.Fatalf("Echo: %v", err)
	}
	if !ok {
		t.Error("expected Echo to report success")
	}
	if !fake.released {
		t.Error("expected association to be released")
	}
}

func TestEchoFailureStillReleases(t *testing.T) {
	fake := &fakeSCU{echoErr: errors.New("boom")}
	c := newTestClient(fake)

	if _, err := c.Echo(); err == nil {
		t.Fatal("expected error")
	}
	if !fake.released {
		t.Error("expected association to be released even on error")
	}
}

func TestFindByAccessionFiltersToSafeFields(t *testing.T) {
	fake := &fakeSCU{
		findResp: []findResponse{
			{status: statusPending1, payload: map[string]string{
				"AccessionNumber":  "ACC1",
				"StudyInstanceUID": "1.2.3",
				"Modality":         "CT",
				"PatientName":      "SHOULD^NOT^APPEAR",
			}},
		},
	}
	c := newTestClient(fake)

	descriptors, err := c.FindByAccession("ACC1")
	if err != nil {
		t.Fatalf("FindByAccession: %v", err)
	}
	if len(descriptors) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(descriptors))
	}
	d := descriptors[0]
	if d.AccessionNumber != "ACC1" || d.StudyInstanceUID != "1.2.3" || d.Modality != "CT" {
		t.Errorf("unexpected descriptor: %+v", d)
	}
}

func TestFindByAccessionIgnoresNonPendingStatus(t *testing.T) {
	fake := &fakeSCU{
		findResp: []findResponse{
			{status: statusSuccess, payload: map[string]string{"AccessionNumber": "ACC1"}},
		},
	}
	c := newTestClient(fake)

	descriptors, err := c.FindByAccession("ACC1")
	if err != nil {
		t.Fatalf("FindByAccession: %v", err)
	}
	if len(descriptors) != 0 {
		t.Errorf("expected no descriptors from a terminal-status response, got %d", len(descriptors))
	}
}

func TestMoveStudyReadsCounters(t *testing.T) {
	fake := &fakeSCU{
		moveResp: []moveResponse{
			{status: statusPending1, terminal: false},
			{status: statusSuccess, terminal: true, completed: 150, failed: 0, warning: 0},
		},
	}
	c := newTestClient(fake)

	result, err := c.MoveStudy("1.2.3")
	if err != nil {
		t.Fatalf("MoveStudy: %v", err)
	}
	if result.Completed != 150 {
		t.Errorf("Completed = %d, want 150", result.Completed)
	}
}

func TestMoveStudyFailureStatus(t *testing.T) {
	fake := &fakeSCU{
		moveResp: []moveResponse{{status: statusFailed, terminal: true}},
	}
	c := newTestClient(fake)

	if _, err := c.MoveStudy("1.2.3"); err == nil {
		t.Fatal("expected error on 0xC000 status")
	}
}
