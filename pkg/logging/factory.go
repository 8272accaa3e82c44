package logging

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Factory hands out component-scoped loggers sharing a base charmbracelet
// logger, following the teacher's pkg/logging.Factory.
type Factory struct {
	base     *log.Logger
	registry *ComponentRegistry
}

// NewFactory builds a Factory around a fresh base logger writing to stdout.
func NewFactory(componentLogLevels map[string]string) *Factory {
	base := log.NewWithOptions(os.Stdout, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		TimeFormat:      time.RFC3339,
	})

	registry := NewComponentRegistry()
	registry.LoadLogLevelsFromConfig(componentLogLevels)

	return &Factory{base: base, registry: registry}
}

func (f *Factory) forComponent(id string, t ComponentType) *log.Logger {
	f.registry.RegisterComponent(id, t)
	return f.registry.GetLoggerForComponent(f.base, id)
}

// ForService returns a logger for a top-level service (e.g. main).
func (f *Factory) ForService(id string) *log.Logger { return f.forComponent(id, ComponentTypeService) }

// ForHandler returns a logger for an HTTP handler component.
func (f *Factory) ForHandler(id string) *log.Logger { return f.forComponent(id, ComponentTypeHandler) }

// ForRepository returns a logger for a persistence-layer component.
func (f *Factory) ForRepository(id string) *log.Logger {
	return f.forComponent(id, ComponentTypeRepository)
}

// ForWorker returns a logger for a per-document worker goroutine.
func (f *Factory) ForWorker(id string) *log.Logger { return f.forComponent(id, ComponentTypeWorker) }

// ForClient returns a logger for an outbound HTTP client (e.g. notifier).
func (f *Factory) ForClient(id string) *log.Logger { return f.forComponent(id, ComponentTypeClient) }

// ForStorage returns a logger for an object-store backend.
func (f *Factory) ForStorage(id string) *log.Logger { return f.forComponent(id, ComponentTypeStorage) }

// ForExtractor returns a logger for the extraction engine.
func (f *Factory) ForExtractor(id string) *log.Logger {
	return f.forComponent(id, ComponentTypeExtractor)
}

// Stats exposes registry stats.
func (f *Factory) Stats() map[string]int { return f.registry.Stats() }
