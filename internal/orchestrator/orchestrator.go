// Package orchestrator drives the per-accession load pipeline: query
// the archive, assign a case ID, retrieve via a temporary Store
// Receiver, and commit the result to the key file, audit log, and a
// machine-readable load summary.
package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mijuny/pacs-agent/internal/audit"
	"github.com/mijuny/pacs-agent/internal/config"
	"github.com/mijuny/pacs-agent/internal/keyfile"
	"github.com/mijuny/pacs-agent/internal/logging"
	"github.com/mijuny/pacs-agent/internal/pacsclient"
	"github.com/mijuny/pacs-agent/internal/storescp"
	"github.com/mijuny/pacs-agent/internal/verify"
)

// gracePeriod is the fixed wait after a C-MOVE completes, allowing the
// archive's trailing store associations to drain. A more robust design
// would wait until no store handler has been active for N seconds;
// this fixed interval is the simpler tradeoff carried over unchanged.
const gracePeriod = 1 * time.Second

// finder is the subset of pacsclient.Client the orchestrator needs for
// querying and retrieving. Expressed as an interface so a load can be driven against
// a fake archive in tests.
type finder interface {
	FindByAccession(accession string) ([]pacsclient.StudyDescriptor, error)
	MoveStudy(studyUID string) (pacsclient.MoveResult, error)
}

// receiver is the subset of storescp.Receiver the orchestrator needs.
type receiver interface {
	Start() error
	Stop()
	ReceivedFiles() map[string][]string
}

// receiverFactory constructs a Receiver bound to one retrieval
// session; storescp.New satisfies this once adapted to the interface.
type receiverFactory func(cfg config.SCPConfig, projectDir, caseID string) receiver

// Orchestrator runs load pipelines against one configured archive.
type Orchestrator struct {
	cfg         *config.Config
	client      finder
	newReceiver receiverFactory
	log         *logging.Logger
}

// New creates an Orchestrator wired to a real PACS client and Store
// Receiver.
func New(cfg *config.Config, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		client:      pacsclient.New(cfg),
		newReceiver: defaultReceiverFactory,
		log:         log,
	}
}

// LoadOutcome is the full result of one Load call: every per-accession
// result plus the verification summary, ready to serialize as
// load.json.
type LoadOutcome struct {
	RunID        string              `json:"run_id"`
	Results      []verify.LoadResult `json:"results"`
	Verification verify.LoadSummary  `json:"verification"`
}

// Load processes every accession in order against project, skipping
// ones already present in the project's key file, and returns the
// full outcome. Accession order determines the order case IDs are
// assigned in; a failure on one accession never stops the rest.
func (o *Orchestrator) Load(project string, accessions []string, dryRun bool) (LoadOutcome, error) {
	projectDir := filepath.Join(o.cfg.Output.BaseDir, project)
	keyPath := filepath.Join(projectDir, "key.csv")

	existing, err := keyfile.Read(keyPath)
	if err != nil {
		return LoadOutcome{}, fmt.Errorf("read key file: %w", err)
	}

	loadedAccessions := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		loadedAccessions[e.Accession] = struct{}{}
	}

	var results []verify.LoadResult
	for _, ac := range accessions {
		result, entry := o.loadOne(projectDir, ac, dryRun, existing, loadedAccessions)
		results = append(results, result)
		if entry != nil {
			existing = append(existing, *entry)
			if err := keyfile.Write(keyPath, existing); err != nil {
				o.log.Error("write key file for %s: %v", project, err)
			}
		}
	}

	summary := verify.Load(results)
	outcome := LoadOutcome{
		RunID:        uuid.NewString(),
		Results:      results,
		Verification: summary,
	}

	if err := writeLoadJSON(filepath.Join(projectDir, "load.json"), outcome); err != nil {
		o.log.Error("write load.json for %s: %v", project, err)
	}

	if log, err := openAuditLog(o.cfg.Output.BaseDir); err == nil {
		if err := log.Append(project, results); err != nil {
			o.log.Error("append audit log for %s: %v", project, err)
		}
		log.Close()
	} else {
		o.log.Error("open audit log: %v", err)
	}

	return outcome, nil
}

// loadOne runs the pipeline for a single accession. It returns the
// load result to record, plus a key entry to commit when the load
// succeeded (nil otherwise).
func (o *Orchestrator) loadOne(
	projectDir, accession string, dryRun bool,
	existing []keyfile.Entry, loadedAccessions map[string]struct{},
) (verify.LoadResult, *keyfile.Entry) {
	if _, ok := loadedAccessions[accession]; ok {
		o.log.Info("skipping %s — already loaded", accession)
		return verify.LoadResult{
			Accession: accession,
			Status:    "skipped",
			Error:     "already loaded",
		}, nil
	}

	studies, err := o.client.FindByAccession(accession)
	if err != nil {
		o.log.Error("C-FIND failed for %s: %v", accession, err)
		return verify.LoadResult{
			Accession: accession,
			Status:    "error",
			Error:     fmt.Sprintf("C-FIND failed: %v", err),
		}, nil
	}
	if len(studies) == 0 {
		return verify.LoadResult{
			Accession: accession,
			Status:    "error",
			Error:     "not found on PACS",
		}, nil
	}

	// Multiple descriptors for one accession are rare but possible
	// with merged or duplicate records; only the first is used.
	study := studies[0]
	modality := study.Modality
	if modality == "" {
		modality = study.ModalitiesInStudy
	}

	if dryRun {
		return verify.LoadResult{
			CaseID:      "(dry-run)",
			Accession:   accession,
			StudyUID:    study.StudyInstanceUID,
			SeriesCount: study.NumberOfStudyRelatedSeries,
			ImageCount:  study.NumberOfStudyRelatedInstances,
			StudyDate:   study.StudyDate,
			Modality:    modality,
			Description: study.StudyDescription,
			Status:      "dry-run",
		}, nil
	}

	caseID := keyfile.NextCaseID(existing)
	recv := o.newReceiver(o.cfg.SCP, projectDir, caseID)

	t0 := time.Now()
	if err := recv.Start(); err != nil {
		return verify.LoadResult{
			CaseID: caseID, Accession: accession, StudyUID: study.StudyInstanceUID,
			StudyDate: study.StudyDate, Modality: modality, Description: study.StudyDescription,
			Status: "error", Error: fmt.Sprintf("C-MOVE failed: %v", err),
			DurationS: roundSeconds(time.Since(t0)),
		}, nil
	}
	defer recv.Stop()

	if _, err := o.client.MoveStudy(study.StudyInstanceUID); err != nil {
		o.log.Error("C-MOVE failed for %s: %v", accession, err)
		return verify.LoadResult{
			CaseID: caseID, Accession: accession, StudyUID: study.StudyInstanceUID,
			StudyDate: study.StudyDate, Modality: modality, Description: study.StudyDescription,
			Status: "error", Error: fmt.Sprintf("C-MOVE failed: %v", err),
			DurationS: roundSeconds(time.Since(t0)),
		}, nil
	}

	time.Sleep(gracePeriod)

	elapsed := roundSeconds(time.Since(t0))
	// Stop before reading the index so no store handler is still
	// appending to it; Stop is idempotent, so the deferred call is safe.
	recv.Stop()
	received := recv.ReceivedFiles()
	seriesCount := len(received)
	imageCount := 0
	for _, files := range received {
		imageCount += len(files)
	}

	entry := keyfile.Entry{
		CaseID:      caseID,
		Accession:   accession,
		StudyDate:   study.StudyDate,
		Modality:    modality,
		Description: study.StudyDescription,
		SeriesCount: seriesCount,
		ImageCount:  imageCount,
	}

	o.log.Info("loaded %s -> %s (%d series, %d images)", accession, caseID, seriesCount, imageCount)

	return verify.LoadResult{
		CaseID:      caseID,
		Accession:   accession,
		StudyUID:    study.StudyInstanceUID,
		SeriesCount: seriesCount,
		ImageCount:  imageCount,
		StudyDate:   study.StudyDate,
		Modality:    modality,
		Description: study.StudyDescription,
		Status:      "ok",
		DurationS:   elapsed,
	}, &entry
}

func defaultReceiverFactory(cfg config.SCPConfig, projectDir, caseID string) receiver {
	return storescp.New(cfg, projectDir, caseID)
}

func openAuditLog(baseDir string) (*audit.Log, error) {
	return audit.Open(baseDir)
}

func roundSeconds(d time.Duration) float64 {
	return float64(int(d.Seconds()*10+0.5)) / 10
}

func writeLoadJSON(path string, outcome LoadOutcome) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal load summary: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
