// Package plugin defines the out-of-process detector contract. Detector
// plugins are separate binaries speaking net/rpc through hashicorp/go-plugin;
// because RPC has no server push, plugins expose a snapshot the host polls
// and diffs into signals.
package plugin

import (
	"net/rpc"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	domaindetect "github.com/felixgeelhaar/ticklist/pkg/domain/detect"
	"github.com/hashicorp/go-plugin"
)

// Description is the static self-description a source reports once.
type Description struct {
	Name        string
	TaskKeys    []string
	Limitations []checklist.DetectionLimitation
	Limited     bool
}

// Source is the interface detector plugins must implement.
type Source interface {
	// Init ensures the source can observe (auth, attach, open files).
	Init(config map[string]string) error

	// Describe reports the source's identity, coverage and limitations.
	Describe() (*Description, error)

	// Snapshot returns the source's current belief for every key it covers.
	// Keys it cannot currently answer map to CompletionUnknown.
	Snapshot() (map[string]domaindetect.Completion, error)
}

// SourcePlugin is the go-plugin shim so a Source can be served and consumed.
type SourcePlugin struct {
	Impl Source
}

func (p *SourcePlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &SourceRPCServer{Impl: p.Impl}, nil
}

func (p *SourcePlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &SourceRPCClient{Client: c}, nil
}

// RPC client/server wrappers

type SourceRPCClient struct{ Client *rpc.Client }

func (g *SourceRPCClient) Init(config map[string]string) error {
	var resp interface{}
	return g.Client.Call("Plugin.Init", config, &resp)
}

func (g *SourceRPCClient) Describe() (*Description, error) {
	var resp Description
	err := g.Client.Call("Plugin.Describe", struct{}{}, &resp)
	return &resp, err
}

func (g *SourceRPCClient) Snapshot() (map[string]domaindetect.Completion, error) {
	var resp map[string]domaindetect.Completion
	err := g.Client.Call("Plugin.Snapshot", struct{}{}, &resp)
	return resp, err
}

type SourceRPCServer struct{ Impl Source }

func (s *SourceRPCServer) Init(config map[string]string, resp *interface{}) error {
	return s.Impl.Init(config)
}

func (s *SourceRPCServer) Describe(args struct{}, resp *Description) error {
	desc, err := s.Impl.Describe()
	if desc != nil {
		*resp = *desc
	}
	return err
}

func (s *SourceRPCServer) Snapshot(args struct{}, resp *map[string]domaindetect.Completion) error {
	snap, err := s.Impl.Snapshot()
	*resp = snap
	return err
}
