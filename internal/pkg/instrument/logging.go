package instrument

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const masked = "***"

// alwaysMasked never reach the log output, whatever MaskFields says.
var alwaysMasked = []string{"secret", "uri", "authorization", "token"}

func initLogging(cfg *Config, lp *sdklog.LoggerProvider) {
	out := cfg.LogOutput
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})
	if lp != nil {
		handler = fanout{handler, otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp))}
	}

	slog.SetDefault(slog.New(&vaultHandler{
		next:     handler,
		service:  cfg.ServiceName,
		maskKeys: buildMaskKeys(cfg.MaskFields),
	}))
}

// renameAttr uses ts/severity keys and reports the source as internal/...:line.
func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", "internal/"+rel+":"+strconv.Itoa(src.Line))
	}
	return a
}

// vaultHandler adds the correlation id and service name, then masks
// sensitive attributes before handing the record on.
type vaultHandler struct {
	next     slog.Handler
	service  string
	maskKeys map[string]struct{}
}

func (h *vaultHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *vaultHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(maskAttr(a, h.maskKeys))
		return true
	})
	if cID := GetCorrelationID(ctx); cID != "" {
		out.AddAttrs(slog.String("_cID", cID))
	}
	out.AddAttrs(slog.String("service", h.service))

	return h.next.Handle(ctx, out)
}

func (h *vaultHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	safe := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		safe[i] = maskAttr(a, h.maskKeys)
	}
	return &vaultHandler{next: h.next.WithAttrs(safe), service: h.service, maskKeys: h.maskKeys}
}

func (h *vaultHandler) WithGroup(name string) slog.Handler {
	return &vaultHandler{next: h.next.WithGroup(name), service: h.service, maskKeys: h.maskKeys}
}

// fanout writes every record to each enabled handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

func buildMaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(alwaysMasked)+len(fields))
	for _, field := range slices.Concat(alwaysMasked, fields) {
		if field = strings.ToLower(strings.TrimSpace(field)); field != "" {
			keys[field] = struct{}{}
		}
	}
	return keys
}

// maskAttr hides masked keys at any group depth, string maps passed as
// values, and any otpauth:// URI regardless of its key.
func maskAttr(a slog.Attr, keys map[string]struct{}) slog.Attr {
	if _, found := keys[strings.ToLower(a.Key)]; found {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = maskAttr(ga, keys)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if strings.HasPrefix(a.Value.String(), "otpauth://") {
			a.Value = slog.StringValue(masked)
		}
	case slog.KindAny:
		if v, ok := a.Value.Any().(map[string]string); ok {
			out := make(map[string]string, len(v))
			for k, val := range v {
				if _, found := keys[strings.ToLower(k)]; found {
					val = masked
				}
				out[k] = val
			}
			a.Value = slog.AnyValue(out)
		}
	}

	return a
}
