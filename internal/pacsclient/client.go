// Package pacsclient implements the SCU (Service Class User) half of
// the DICOM conversation: verification, query, and retrieve against a
// configured remote archive. Every operation establishes its own
// association and releases it on every exit path, including error.
package pacsclient

import (
	"fmt"
	"strconv"

	"github.com/mijuny/pacs-agent/internal/config"
)

// atoiOrZero coerces a descriptor field to an integer, defaulting to 0
// for blank or non-numeric values the archive may return.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// safeFields is the allowlist of descriptor fields FindByAccession is
// permitted to return. Anything else the archive includes in its
// response payload is dropped, even if the archive sends it.
var safeFields = map[string]struct{}{
	"AccessionNumber":               {},
	"StudyInstanceUID":              {},
	"Modality":                      {},
	"ModalitiesInStudy":             {},
	"StudyDate":                     {},
	"StudyTime":                     {},
	"StudyDescription":              {},
	"NumberOfStudyRelatedSeries":    {},
	"NumberOfStudyRelatedInstances": {},
	"PatientSex":                    {},
	"PatientAge":                    {},
}

// StudyDescriptor is a study record returned by FindByAccession,
// restricted to the safe-fields allowlist. It never carries an
// identifying field even if the archive's response payload contained
// one.
type StudyDescriptor struct {
	AccessionNumber               string
	StudyInstanceUID              string
	Modality                      string
	ModalitiesInStudy             string
	StudyDate                     string
	StudyTime                     string
	StudyDescription              string
	NumberOfStudyRelatedSeries    int
	NumberOfStudyRelatedInstances int
	PatientSex                    string
	PatientAge                    string
}

// MoveResult reports the sub-operation counters from a completed
// C-MOVE.
type MoveResult struct {
	Completed int
	Failed    int
	Warning   int
}

// scu is the narrow surface this package needs from the underlying
// DIMSE network library. Isolating it behind an interface keeps the
// find/move/echo business logic (status interpretation, safe-field
// filtering, always-release semantics) testable against a fake,
// independent of the exact third-party call shapes.
type scu interface {
	connect() error
	release()
	cEcho() (status uint16, err error)
	cFind(query map[string]string) (<-chan findResponse, error)
	cMove(query map[string]string, destAE string) (<-chan moveResponse, error)
}

// findResponse is one pending response from a C-FIND conversation.
type findResponse struct {
	status  uint16
	payload map[string]string
}

// moveResponse is one response from a C-MOVE conversation, either a
// progress update (in which case terminal is false) or the terminal
// status with final sub-operation counts.
type moveResponse struct {
	status    uint16
	terminal  bool
	completed int
	failed    int
	warning   int
}

const (
	statusSuccess  = 0x0000
	statusPending1 = 0xFF00
	statusPending2 = 0xFF01
	statusFailed   = 0xC000
)

// Client drives the three SCU conversations against one configured
// remote archive.
type Client struct {
	cfg    *config.Config
	newSCU func(*config.Config) scu
}

// New creates a Client bound to cfg, using the real DIMSE network
// adapter.
func New(cfg *config.Config) *Client {
	return &Client{cfg: cfg, newSCU: newNetdicomSCU}
}

// Echo sends a C-ECHO verification request and reports whether the
// archive responded with success status.
func (c *Client) Echo() (bool, error) {
	conn := c.newSCU(c.cfg)
	if err := conn.connect(); err != nil {
		return false, fmt.Errorf("associate: %w", err)
	}
	defer conn.release()

	status, err := conn.cEcho()
	if err != nil {
		return false, fmt.Errorf("C-ECHO: %w", err)
	}
	return status == statusSuccess, nil
}

// FindByAccession queries the archive for studies matching accession
// and returns only descriptors built from the safe-fields allowlist.
// If the archive returns more than one descriptor for the accession,
// only the first is meaningful to callers; all are returned so the
// caller can decide how to handle duplicates.
func (c *Client) FindByAccession(accession string) ([]StudyDescriptor, error) {
	conn := c.newSCU(c.cfg)
	if err := conn.connect(); err != nil {
		return nil, fmt.Errorf("associate: %w", err)
	}
	defer conn.release()

	query := map[string]string{
		"QueryRetrieveLevel": "STUDY",
		"AccessionNumber":    accession,
	}
	for field := range safeFields {
		if _, set := query[field]; !set {
			query[field] = ""
		}
	}

	responses, err := conn.cFind(query)
	if err != nil {
		return nil, fmt.Errorf("C-FIND: %w", err)
	}

	var descriptors []StudyDescriptor
	for resp := range responses {
		if resp.status != statusPending1 && resp.status != statusPending2 {
			continue
		}
		if len(resp.payload) == 0 {
			continue
		}
		descriptors = append(descriptors, descriptorFromPayload(resp.payload))
	}
	return descriptors, nil
}

// MoveStudy retrieves a study by UID, with the destination AE title
// set to our own local AE title so the archive pushes images back to
// our Store Receiver.
func (c *Client) MoveStudy(studyUID string) (MoveResult, error) {
	conn := c.newSCU(c.cfg)
	if err := conn.connect(); err != nil {
		return MoveResult{}, fmt.Errorf("associate: %w", err)
	}
	defer conn.release()

	query := map[string]string{
		"QueryRetrieveLevel": "STUDY",
		"StudyInstanceUID":   studyUID,
	}

	responses, err := conn.cMove(query, c.cfg.SCP.AETitle)
	if err != nil {
		return MoveResult{}, fmt.Errorf("C-MOVE: %w", err)
	}

	// The response channel is drained fully rather than returned from
	// early, so the adapter's sending goroutine is never left blocked
	// on an unbuffered channel nobody is reading.
	var result MoveResult
	var moveErr error
	for resp := range responses {
		if resp.status == statusFailed {
			moveErr = fmt.Errorf("C-MOVE failed with status 0xC000")
			continue
		}
		if resp.terminal && resp.status == statusSuccess {
			result = MoveResult{Completed: resp.completed, Failed: resp.failed, Warning: resp.warning}
		}
	}
	if moveErr != nil {
		return MoveResult{}, moveErr
	}
	return result, nil
}

// descriptorFromPayload extracts only the safe-fields allowlist from
// a raw C-FIND response payload, regardless of what else the archive
// included.
func descriptorFromPayload(payload map[string]string) StudyDescriptor {
	get := func(k string) string {
		if _, ok := safeFields[k]; !ok {
			return ""
		}
		return payload[k]
	}
	return StudyDescriptor{
		AccessionNumber:               get("AccessionNumber"),
		StudyInstanceUID:              get("StudyInstanceUID"),
		Modality:                      get("Modality"),
		ModalitiesInStudy:             get("ModalitiesInStudy"),
		StudyDate:                     get("StudyDate"),
		StudyTime:                     get("StudyTime"),
		StudyDescription:              get("StudyDescription"),
		NumberOfStudyRelatedSeries:    atoiOrZero(get("NumberOfStudyRelatedSeries")),
		NumberOfStudyRelatedInstances: atoiOrZero(get("NumberOfStudyRelatedInstances")),
		PatientSex:                    get("PatientSex"),
		PatientAge:                    get("PatientAge"),
	}
}
