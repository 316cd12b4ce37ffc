package readypoll

// engineOptions holds configuration resolved at Engine construction.
type engineOptions struct {
	owner              OwnerID
	maxWatchesPerOwner int64
	metricsEnabled     bool
	logger             Logger
}

// EngineOption configures an Engine instance, mirroring the teacher's
// LoopOption pattern (options.go): an interface with an unexported apply
// method, implemented by a function-wrapping struct, so option values
// remain opaque and composable.
type EngineOption interface {
	applyEngine(*engineOptions)
}

// engineOptionFunc implements EngineOption.
type engineOptionFunc struct {
	fn func(*engineOptions)
}

func (o *engineOptionFunc) applyEngine(opts *engineOptions) {
	o.fn(opts)
}

// WithOwner sets the OwnerID registrations on this Engine are billed
// against for max_watches_per_owner. Defaults to OwnerID(0).
func WithOwner(owner OwnerID) EngineOption {
	return &engineOptionFunc{func(opts *engineOptions) {
		opts.owner = owner
	}}
}

// WithMaxWatchesPerOwner sets the owner registration cap (spec.md §6's
// max_watches_per_owner knob). A value <= 0 means unlimited, the default.
func WithMaxWatchesPerOwner(max int64) EngineOption {
	return &engineOptionFunc{func(opts *engineOptions) {
		opts.maxWatchesPerOwner = max
	}}
}

// WithMetrics enables EngineStats collection, retrievable via
// Engine.Stats. Disabled by default to keep the hot path allocation-free.
func WithMetrics(enabled bool) EngineOption {
	return &engineOptionFunc{func(opts *engineOptions) {
		opts.metricsEnabled = enabled
	}}
}

// WithLogger sets the structured Logger an Engine reports lifecycle and
// fault events to. Defaults to the package-level logger (see logging.go).
func WithLogger(logger Logger) EngineOption {
	return &engineOptionFunc{func(opts *engineOptions) {
		opts.logger = logger
	}}
}

// resolveEngineOptions seeds defaults then applies opts in order, skipping
// nil entries.
func resolveEngineOptions(opts []EngineOption) *engineOptions {
	cfg := &engineOptions{
		maxWatchesPerOwner: 0,
		logger:             globalLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyEngine(cfg)
	}
	return cfg
}
