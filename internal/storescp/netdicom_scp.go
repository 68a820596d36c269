package storescp

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/grailbio/go-netdicom"
	"github.com/grailbio/go-netdicom/dimse"
	godicom "github.com/suyashkumar/dicom"

	"github.com/mijuny/pacs-agent/internal/config"
)

// netdicomSCP wraps a grailbio/go-netdicom ServiceProvider advertising
// every standard storage presentation context. This is the only file
// in the package naming the third-party DIMSE server types directly.
type netdicomSCP struct {
	cfg    config.SCPConfig
	sp     *netdicom.ServiceProvider
	cancel context.CancelFunc

	inflight sync.WaitGroup
}

func newNetdicomSCP(cfg config.SCPConfig) scp {
	return &netdicomSCP{cfg: cfg}
}

// start builds a ServiceProvider whose CStore callback receives the
// transfer syntax and SOP identifiers pynetdicom-style handlers get for
// free but grailbio's lower-level callback does not bundle with the
// dataset bytes; handleStore needs them to rebuild a file-meta header
// before writing.
func (n *netdicomSCP) start(handler storeHandler) error {
	params := netdicom.ServiceProviderParams{
		AETitle: n.cfg.AETitle,
		CStore: func(conn netdicom.ConnectionState, transferSyntaxUID, sopClassUID, sopInstanceUID string, data []byte) dimse.Status {
			n.inflight.Add(1)
			defer n.inflight.Done()
			// Archives routinely emit non-conforming but harmless VRs
			// (e.g. Philips sorting codes in UI-typed fields). Parse
			// tolerantly for the duration of this one handler only.
			ds, err := godicom.Parse(bytes.NewReader(data), int64(len(data)), nil, godicom.SkipVRVerification())
			if err != nil {
				return dimse.Status{Status: dimse.StatusCode(0xC000)}
			}
			code := handler(&ds, transferSyntaxUID, sopClassUID, sopInstanceUID)
			return dimse.Status{Status: dimse.StatusCode(code)}
		},
	}

	sp, err := netdicom.NewServiceProvider(params, n.cfg.Port)
	if err != nil {
		return fmt.Errorf("create service provider: %w", err)
	}
	n.sp = sp

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	go n.sp.Run(ctx)
	return nil
}

func (n *netdicomSCP) stop() {
	if n.cancel != nil {
		n.cancel()
	}
	n.inflight.Wait()
}
