// Package plugin loads detector plugin binaries and adapts them to the
// in-process Detector contract.
package plugin

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	domainplugin "github.com/felixgeelhaar/ticklist/pkg/domain/plugin"
	goplugin "github.com/hashicorp/go-plugin"
)

var HandshakeConfig = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "TICKLIST_PLUGIN",
	MagicCookieValue: "ticklist",
}

var PluginMap = map[string]goplugin.Plugin{
	"detector": &domainplugin.SourcePlugin{},
}

// Loader starts detector plugin processes and keeps their clients so they
// can be killed on shutdown.
type Loader struct {
	clients map[string]*goplugin.Client
}

func NewLoader() *Loader {
	return &Loader{
		clients: make(map[string]*goplugin.Client),
	}
}

// Load validates and starts the plugin binary at path and returns its Source.
func (l *Loader) Load(path string) (domainplugin.Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid plugin path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plugin not found: %s", absPath)
		}
		return nil, fmt.Errorf("cannot access plugin: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("plugin path is a directory: %s", absPath)
	}

	if runtime.GOOS != "windows" {
		if info.Mode()&0111 == 0 {
			return nil, fmt.Errorf("plugin is not executable: %s", absPath)
		}
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap,
		Cmd:             exec.Command(path),
		AllowedProtocols: []goplugin.Protocol{
			goplugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to create plugin client: %w", err)
	}

	raw, err := rpcClient.Dispense("detector")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	l.clients[path] = client
	return raw.(domainplugin.Source), nil
}

// Cleanup kills every plugin process the loader started.
func (l *Loader) Cleanup() {
	for _, client := range l.clients {
		client.Kill()
	}
}
