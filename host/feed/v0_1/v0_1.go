package v0_1

import (
	"context"

	"github.com/foxxorcat/wazero-feed/host"
	witgo "github.com/foxxorcat/wazero-feed/wit-go"

	"github.com/tetratelabs/wazero"
)

// --- feed:core/source@0.1.0 implementation ---

type feedSource struct{}

func NewSource() host.Implementation {
	return &feedSource{}
}

func (i *feedSource) Name() string       { return "feed:core/source" }
func (i *feedSource) Versions() []string { return []string{"0.1.0"} }

func (i *feedSource) Instantiate(_ context.Context, h *host.Host, builder wazero.HostModuleBuilder) error {
	exporter := witgo.NewExporter(builder)
	handler := newSourceImpl(h.FeedManager(), h.Logger().Named("source"))
	if err := exporter.Export("create", handler.Create); err != nil {
		return err
	}
	if err := exporter.Export("destroy", handler.Destroy); err != nil {
		return err
	}
	if err := exporter.Export("preload-all", handler.PreloadAll); err != nil {
		return err
	}
	return exporter.Export("advance", handler.Advance)
}

// --- feed:core/diagnostics@0.1.0 implementation ---

type feedDiagnostics struct{}

func NewDiagnostics() host.Implementation {
	return &feedDiagnostics{}
}

func (i *feedDiagnostics) Name() string       { return "feed:core/diagnostics" }
func (i *feedDiagnostics) Versions() []string { return []string{"0.1.0"} }

func (i *feedDiagnostics) Instantiate(_ context.Context, h *host.Host, builder wazero.HostModuleBuilder) error {
	exporter := witgo.NewExporter(builder)
	handler := newDiagnosticsImpl(h.FeedManager(), h.Logger().Named("diagnostics"))
	return exporter.Export("seed", handler.Seed)
}
