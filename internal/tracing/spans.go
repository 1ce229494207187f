package tracing

// Span names for the resolution pipeline.
const (
	SpanLinearise       = "linearise.document"
	SpanResolveRegistry = "resolve.registry"
	SpanResolveService  = "resolve.service"
	SpanLoadFile        = "loader.load_file"
)

// Span attribute keys. These are the semantic conventions for laminar
// traces; the file exporter writes them verbatim for jq-style querying.
const (
	// Run attributes
	AttrRunID = "run.id"

	// Document attributes
	AttrBaseDir      = "document.base_dir"
	AttrDocumentSize = "document.bytes"
	AttrShape        = "document.shape"

	// Registry attributes
	AttrServiceCount = "registry.service_count"

	// Service attributes
	AttrServiceName   = "service.name"
	AttrExtendsKind   = "service.extends_kind"
	AttrExtendsTarget = "service.extends_target"

	// Loader attributes
	AttrFilePath = "loader.path"
)

// Values for AttrShape.
const (
	ShapeWrapped = "wrapped"
	ShapeFlat    = "flat"
)
