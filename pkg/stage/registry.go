package stage

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

// Constructor builds a stage from the shared logger and backends.
type Constructor func(logger *zap.Logger, backends Backends) model.Stage

var defaultConstructors = map[string]Constructor{
	BlendMask{}.Name(): func(logger *zap.Logger, _ Backends) model.Stage {
		return BlendMask{Logger: logger}
	},
	ReduceThumbnail{}.Name(): func(logger *zap.Logger, _ Backends) model.Stage {
		return ReduceThumbnail{Logger: logger}
	},
	UpscaleResample{}.Name(): func(logger *zap.Logger, _ Backends) model.Stage {
		return UpscaleResample{Logger: logger}
	},
	ExpandCanvas{}.Name(): func(logger *zap.Logger, _ Backends) model.Stage {
		return ExpandCanvas{Logger: logger}
	},
	UpscaleDiffusion{}.Name(): func(logger *zap.Logger, backends Backends) model.Stage {
		return UpscaleDiffusion{Logger: logger, Backend: backends.Upscalers}
	},
	CorrectFaces{}.Name(): func(logger *zap.Logger, backends Backends) model.Stage {
		return CorrectFaces{Logger: logger, Backend: backends.FaceCorrectors}
	},
	Outpaint{}.Name(): func(logger *zap.Logger, backends Backends) model.Stage {
		return Outpaint{Logger: logger, Backend: backends.Inpainters}
	},
}

// Registry maps stage names to constructors.
type Registry struct {
	logger       *zap.Logger
	backends     Backends
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns a registry knowing every stage of this package.
func NewRegistry(logger *zap.Logger, backends Backends) *Registry {
	r := &Registry{
		logger:       orNop(logger),
		backends:     backends,
		constructors: make(map[string]Constructor, len(defaultConstructors)),
	}
	for name, ctor := range defaultConstructors {
		r.constructors[name] = ctor
	}

	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.constructors[normalize(name)] = ctor
}

// New builds the stage called name. Names are case insensitive and underscores match dashes.
func (r *Registry) New(name string) (model.Stage, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[normalize(name)]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownStage, "%q", name)
	}

	return ctor(r.logger.With(zap.String("stage_type", normalize(name))), r.backends), nil
}

// Names lists the registered stage names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}
