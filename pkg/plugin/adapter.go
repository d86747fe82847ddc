package plugin

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	domaindetect "github.com/felixgeelhaar/ticklist/pkg/domain/detect"
	domainplugin "github.com/felixgeelhaar/ticklist/pkg/domain/plugin"
)

// SourceDetector adapts an out-of-process Source to the in-process Detector
// contract. It satisfies Pollable: each Poll takes a fresh snapshot, diffs it
// against the previous one and emits a signal per changed key. Unknown
// answers never emit; they mean "no opinion", not "incomplete".
type SourceDetector struct {
	source domainplugin.Source
	desc   domainplugin.Description

	mu   sync.Mutex
	emit func(domaindetect.Signal)
	last map[string]domaindetect.Completion
}

// NewSourceDetector initializes the source and reads its description.
func NewSourceDetector(source domainplugin.Source, config map[string]string) (*SourceDetector, error) {
	if err := source.Init(config); err != nil {
		return nil, fmt.Errorf("plugin init: %w", err)
	}
	desc, err := source.Describe()
	if err != nil {
		return nil, fmt.Errorf("plugin describe: %w", err)
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("plugin reported an empty name")
	}
	return &SourceDetector{
		source: source,
		desc:   *desc,
		last:   make(map[string]domaindetect.Completion),
	}, nil
}

func (d *SourceDetector) Name() string { return d.desc.Name }

func (d *SourceDetector) SupportedTaskKeys() []string {
	keys := make([]string, len(d.desc.TaskKeys))
	copy(keys, d.desc.TaskKeys)
	return keys
}

// Initialize registers the emit sink. Idempotent: a second call replaces the
// sink and keeps the diff baseline.
func (d *SourceDetector) Initialize(emit func(domaindetect.Signal)) error {
	d.mu.Lock()
	d.emit = emit
	d.mu.Unlock()
	return nil
}

// CompletionState answers from the last snapshot; keys never observed are
// unknown.
func (d *SourceDetector) CompletionState(key string) domaindetect.Completion {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last[key]
}

func (d *SourceDetector) Limitations() []checklist.DetectionLimitation {
	out := make([]checklist.DetectionLimitation, len(d.desc.Limitations))
	copy(out, d.desc.Limitations)
	return out
}

func (d *SourceDetector) HasLimitedDetection() bool {
	return d.desc.Limited || len(d.desc.Limitations) > 0
}

// Poll snapshots the source and emits a signal for every key whose answer
// changed to a known value.
func (d *SourceDetector) Poll() error {
	snap, err := d.source.Snapshot()
	if err != nil {
		return fmt.Errorf("plugin snapshot: %w", err)
	}

	d.mu.Lock()
	emit := d.emit
	var changed []domaindetect.Signal
	for key, completion := range snap {
		if completion == domaindetect.CompletionUnknown {
			continue
		}
		if d.last[key] != completion {
			changed = append(changed, domaindetect.Signal{
				TaskKey:   key,
				Completed: completion == domaindetect.CompletionComplete,
			})
		}
		d.last[key] = completion
	}
	d.mu.Unlock()

	if emit != nil {
		for _, sig := range changed {
			emit(sig)
		}
	}
	return nil
}

// Close is a no-op; the plugin process belongs to the Loader, which kills it
// during Cleanup.
func (d *SourceDetector) Close() error { return nil }
