package pacsclient

import (
	"fmt"

	"github.com/grailbio/go-netdicom"

	"github.com/mijuny/pacs-agent/internal/config"
)

// netdicomSCU wraps a grailbio/go-netdicom ServiceUser. This is the
// only file in the package that names the third-party DIMSE network
// types directly; everything else in the package talks to the scu
// interface so the query/move/echo semantics stay testable without a
// live association.
type netdicomSCU struct {
	cfg *config.Config
	su  *netdicom.ServiceUser
}

func newNetdicomSCU(cfg *config.Config) scu {
	return &netdicomSCU{cfg: cfg}
}

// connect kicks off the association. The library's Connect does not
// block on a handshake result; a failed association surfaces as an
// error from the first operation run over it (CEcho, CFind, CMove).
func (n *netdicomSCU) connect() error {
	n.su = netdicom.NewServiceUser(netdicom.ServiceUserParams{
		CallingAETitle: n.cfg.SCP.AETitle,
		CalledAETitle:  n.cfg.PACS.AETitle,
	})
	addr := fmt.Sprintf("%s:%d", n.cfg.PACS.Host, n.cfg.PACS.Port)
	n.su.Connect(addr)
	return nil
}

func (n *netdicomSCU) release() {
	if n.su != nil {
		n.su.Release()
	}
}

func (n *netdicomSCU) cEcho() (uint16, error) {
	if err := n.su.CEcho(); err != nil {
		return 0, err
	}
	return statusSuccess, nil
}

// cFind translates the library's CFindResult stream (one entry per
// matching record, {Err, Elements}, no per-item status code) into our
// own findResponse shape. Every error-free item is real data, so it is
// reported at statusPending1 — the status client.go already treats as
// "use this result".
func (n *netdicomSCU) cFind(query map[string]string) (<-chan findResponse, error) {
	elements, err := queryToElements(query)
	if err != nil {
		return nil, err
	}

	raw := n.su.CFind(elements)
	out := make(chan findResponse)
	go func() {
		defer close(out)
		for item := range raw {
			if item.Err != nil {
				continue
			}
			out <- findResponse{
				status:  statusPending1,
				payload: elementsToMap(item.Elements),
			}
		}
	}()
	return out, nil
}

// cMove drives a C-MOVE and reports a single terminal moveResponse once
// the library's result channel closes. The channel carries no
// sub-operation counters, so Completed/Failed/Warning are left at zero;
// callers that need per-file counts read them from what the Store
// Receiver actually wrote instead.
func (n *netdicomSCU) cMove(query map[string]string, destAE string) (<-chan moveResponse, error) {
	elements, err := queryToElements(query)
	if err != nil {
		return nil, err
	}

	raw := n.su.CMove(destAE, elements)
	out := make(chan moveResponse)
	go func() {
		defer close(out)
		var moveErr error
		for item := range raw {
			if item.Err != nil {
				moveErr = item.Err
			}
		}
		if moveErr != nil {
			out <- moveResponse{status: statusFailed, terminal: true}
			return
		}
		out <- moveResponse{status: statusSuccess, terminal: true}
	}()
	return out, nil
}
