package bootstrap

import (
	"fmt"
	"os"

	appconfig "github.com/miz-art/Micro-narrativesxHarms-June25/internal/config"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/llm"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

// BuildPersonaCatalog loads the persona catalog from path, or the embedded
// default when path is empty.
func BuildPersonaCatalog(path string) (*narrative.PersonaCatalog, error) {
	if path == "" {
		return narrative.DefaultPersonaCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: read persona catalog: %w", err)
	}
	return narrative.LoadPersonaCatalog(data)
}

// BuildNarrativeService wires the state machine and the session service.
func BuildNarrativeService(cfg *appconfig.Config, client llm.Client, store narrative.Store, sink narrative.PackageSink, observer narrative.Observer, logger *logging.Logger) (*narrative.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if client == nil || store == nil || sink == nil {
		return nil, fmt.Errorf("bootstrap: llm client, session store and package sink are required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	catalog, err := BuildPersonaCatalog(cfg.PersonaFile)
	if err != nil {
		return nil, err
	}

	settings := func(temperature float64) narrative.CompletionSettings {
		return narrative.CompletionSettings{MaxTokens: int32(cfg.LLMMaxTokens), Temperature: float32(temperature)}
	}

	machine := narrative.NewMachine(narrative.MachineDeps{
		Collector: narrative.NewCollector(client, settings(cfg.CollectTemperature)),
		Extractor: narrative.NewExtractor(client, settings(cfg.ExtractTemperature), cfg.TestingMode),
		Assigner:  narrative.NewPersonaAssigner(catalog, nil),
		Generator: narrative.NewGenerator(client, catalog, settings(cfg.GenerateTemperature), cfg.ScenarioParallel),
		Adapter:   narrative.NewAdapter(client, settings(cfg.GenerateTemperature)),
	})

	opts := []narrative.ServiceOption{
		narrative.WithLogger(logger),
		narrative.WithCompletionCode(cfg.CompletionCode),
	}
	if observer != nil {
		opts = append(opts, narrative.WithObserver(observer))
	}
	if cfg.TestingMode {
		logger.Warn("testing mode enabled; extraction uses a canned transcript")
	}
	return narrative.NewService(machine, store, sink, opts...), nil
}
