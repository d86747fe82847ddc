// ticklist-detector-mock is a reference detector plugin. It claims a couple
// of catalog tasks and flips them to complete after a configurable number of
// snapshots, which is enough to exercise the whole plugin path end to end.
package main

import (
	"log"
	"strconv"
	"sync"

	goplugin "github.com/hashicorp/go-plugin"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	domaindetect "github.com/felixgeelhaar/ticklist/pkg/domain/detect"
	domainplugin "github.com/felixgeelhaar/ticklist/pkg/domain/plugin"
	infraplugin "github.com/felixgeelhaar/ticklist/pkg/plugin"
)

type mockSource struct {
	mu            sync.Mutex
	completeAfter int
	snapshots     int
}

func (m *mockSource) Init(config map[string]string) error {
	m.completeAfter = 2
	if v, ok := config["complete_after"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		m.completeAfter = n
	}
	log.Printf("mock detector initialized, completing after %d snapshots", m.completeAfter)
	return nil
}

func (m *mockSource) Describe() (*domainplugin.Description, error) {
	return &domainplugin.Description{
		Name:     "mock",
		TaskKeys: []string{"duty-roulette-leveling", "duty-roulette-expert"},
		Limitations: []checklist.DetectionLimitation{
			{
				Kind:        checklist.LimitationStub,
				Description: "simulated completion only",
				Reason:      "reference plugin, observes nothing real",
			},
		},
		Limited: true,
	}, nil
}

func (m *mockSource) Snapshot() (map[string]domaindetect.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots++

	state := domaindetect.CompletionIncomplete
	if m.snapshots > m.completeAfter {
		state = domaindetect.CompletionComplete
	}
	return map[string]domaindetect.Completion{
		"duty-roulette-leveling": state,
		"duty-roulette-expert":   domaindetect.CompletionUnknown,
	}, nil
}

func main() {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: infraplugin.HandshakeConfig,
		Plugins: map[string]goplugin.Plugin{
			"detector": &domainplugin.SourcePlugin{Impl: &mockSource{}},
		},
	})
}
