package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/pgfixture/internal/ciutil"
)

// CIHandler is a slog.Handler that adds CI environment metadata to log records.
type CIHandler struct {
	// The underlying handler (usually JSON)
	handler slog.Handler
	// CI metadata to add to every log record
	metadata []slog.Attr
}

// NewCIHandler creates a new CIHandler that wraps a JSON handler writing to out.
func NewCIHandler(out io.Writer, opts *slog.HandlerOptions) *CIHandler {
	// Clone the options to avoid modifying the caller's options
	handlerOpts := &slog.HandlerOptions{}
	if opts != nil {
		handlerOptsCopy := *opts
		handlerOpts = &handlerOptsCopy
	}

	return &CIHandler{
		handler:  slog.NewJSONHandler(out, handlerOpts),
		metadata: ciMetadata(),
	}
}

// Enabled implements the slog.Handler interface.
func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CIHandler{handler: h.handler.WithAttrs(attrs), metadata: h.metadata}
}

// WithGroup implements the slog.Handler interface.
func (h *CIHandler) WithGroup(name string) slog.Handler {
	return &CIHandler{handler: h.handler.WithGroup(name), metadata: h.metadata}
}

// Handle implements the slog.Handler interface.
func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	enhanced := record.Clone()
	enhanced.AddAttrs(h.metadata...)
	return h.handler.Handle(ctx, enhanced)
}

// ciMetadata collects the CI attributes attached to every record.
func ciMetadata() []slog.Attr {
	attrs := []slog.Attr{slog.String("ci_provider", ciutil.CIProvider())}

	optional := map[string]string{
		"ci_run_id":   "GITHUB_RUN_ID",
		"ci_job":      "GITHUB_JOB",
		"ci_workflow": "GITHUB_WORKFLOW",
		"ci_pipeline": "CI_PIPELINE_ID",
		"ci_ref":      "GITHUB_REF",
	}
	for key, envVar := range optional {
		if val := os.Getenv(envVar); val != "" {
			attrs = append(attrs, slog.String(key, val))
		}
	}

	return attrs
}
