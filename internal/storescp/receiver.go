// Package storescp implements the embedded C-STORE receiver that
// accepts images the archive pushes back during a retrieval, anonymizes
// each one, and writes it under the session's case directory.
package storescp

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mijuny/pacs-agent/internal/anonymize"
	"github.com/mijuny/pacs-agent/internal/config"
)

var tagSeriesInstanceUID = tag.Tag{Group: 0x0020, Element: 0x000E}

// scp is the narrow surface this package needs from the underlying
// DIMSE server implementation, isolated behind an interface so the
// ordinal-assignment and anonymize-then-write logic can be exercised
// without a live listener.
type scp interface {
	start(handler storeHandler) error
	stop()
}

// storeHandler processes one received dataset and returns the DIMSE
// status to report back to the sender. transferSyntaxUID, sopClassUID,
// and sopInstanceUID come from the association's presentation context,
// not the dataset bytes, and are needed to rebuild a file-meta header
// before the dataset can be written as a standalone .dcm file.
type storeHandler func(ds *dicom.Dataset, transferSyntaxUID, sopClassUID, sopInstanceUID string) uint16

// Receiver is a temporary C-STORE server bound to one retrieval
// session: one project directory and one synthetic case ID.
type Receiver struct {
	cfg        config.SCPConfig
	projectDir string
	caseID     string

	mu               sync.Mutex
	receivedFiles    map[string][]string
	seriesOrdinals   map[string]int
	nextSeriesOrd    int
	instanceOrdinals map[string]int

	server scp
}

// New creates a Receiver for one retrieval session. It does not start
// listening until Start is called.
func New(cfg config.SCPConfig, projectDir, caseID string) *Receiver {
	r := &Receiver{
		cfg:              cfg,
		projectDir:       projectDir,
		caseID:           caseID,
		receivedFiles:    make(map[string][]string),
		seriesOrdinals:   make(map[string]int),
		instanceOrdinals: make(map[string]int),
	}
	r.server = newNetdicomSCP(cfg)
	return r
}

// Start binds the listener and begins accepting associations in the
// background, returning once the listener is ready. It installs the
// single store handler for all incoming store requests.
func (r *Receiver) Start() error {
	return r.server.start(r.handleStore)
}

// Stop refuses new connections and drains in-flight handlers. It is
// idempotent and safe to call even if Start failed or was never
// called.
func (r *Receiver) Stop() {
	r.server.stop()
}

// ReceivedFiles returns the series-UID-to-written-paths index
// accumulated during the session. Callers must only read this after
// Stop has returned, since nothing serializes access to it otherwise.
func (r *Receiver) ReceivedFiles() map[string][]string {
	return r.receivedFiles
}

// handleStore performs, in order: attach a file-meta header built from
// the association's transfer syntax and SOP identifiers, read the
// series UID (defaulting to "unknown"), assign ordinals under the
// lock, anonymize, write the file, and record the written path under
// the lock. File writes themselves are not serialized — ordinal
// assignment inside the lock is what prevents two concurrent instances
// from colliding on a path.
func (r *Receiver) handleStore(ds *dicom.Dataset, transferSyntaxUID, sopClassUID, sopInstanceUID string) uint16 {
	if err := attachFileMeta(ds, transferSyntaxUID, sopClassUID, sopInstanceUID); err != nil {
		return 0xC000 // cannot understand: malformed identifiers for this association
	}

	seriesUID := stringElement(ds, tagSeriesInstanceUID, "unknown")

	seriesOrd, instanceOrd := r.nextOrdinals(seriesUID)

	anonymize.Dataset(ds, r.caseID)

	path := filepath.Join(
		r.projectDir, r.caseID,
		fmt.Sprintf("series%02d", seriesOrd),
		fmt.Sprintf("%05d.dcm", instanceOrd),
	)
	if err := writeDataset(path, ds); err != nil {
		return 0xA700 // out of resources: failed to write
	}

	r.mu.Lock()
	r.receivedFiles[seriesUID] = append(r.receivedFiles[seriesUID], path)
	r.mu.Unlock()

	return 0x0000
}

// nextOrdinals assigns a 1-based series ordinal to seriesUID's first
// appearance and a 1-based, per-series instance ordinal, both under
// the single mutex that serializes the received-file index.
func (r *Receiver) nextOrdinals(seriesUID string) (series, instance int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	series, ok := r.seriesOrdinals[seriesUID]
	if !ok {
		r.nextSeriesOrd++
		series = r.nextSeriesOrd
		r.seriesOrdinals[seriesUID] = series
	}

	r.instanceOrdinals[seriesUID]++
	instance = r.instanceOrdinals[seriesUID]
	return series, instance
}

// attachFileMeta prepends the group-0x0002 elements a standalone .dcm
// file needs (media storage SOP class/instance and transfer syntax),
// reconstructed from the association's presentation context since the
// C-STORE request's dataset bytes never carry their own file meta.
func attachFileMeta(ds *dicom.Dataset, transferSyntaxUID, sopClassUID, sopInstanceUID string) error {
	fields := []struct {
		tag   tag.Tag
		value string
	}{
		{tag.MediaStorageSOPClassUID, sopClassUID},
		{tag.MediaStorageSOPInstanceUID, sopInstanceUID},
		{tag.TransferSyntaxUID, transferSyntaxUID},
	}

	meta := make([]*dicom.Element, 0, len(fields))
	for _, f := range fields {
		elem, err := dicom.NewElement(f.tag, []string{f.value})
		if err != nil {
			return fmt.Errorf("build file meta element: %w", err)
		}
		meta = append(meta, elem)
	}
	ds.Elements = append(meta, ds.Elements...)
	return nil
}

func stringElement(ds *dicom.Dataset, t tag.Tag, fallback string) string {
	for _, e := range ds.Elements {
		if e.Tag != t {
			continue
		}
		if strs, ok := e.Value.GetValue().([]string); ok && len(strs) > 0 && strs[0] != "" {
			return strs[0]
		}
	}
	return fallback
}

func writeDataset(path string, ds *dicom.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create series directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dicom file: %w", err)
	}
	defer f.Close()
	return dicom.Write(f, *ds)
}
