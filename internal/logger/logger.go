package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Redacted replaces values logged under sensitive keys.
const Redacted = "[REDACTED]"

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	// stdout belongs to command output
	cfg.OutputPaths = []string{"stderr"}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return FromZap(zapLogger), nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{SugaredLogger: z.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return FromZap(zap.NewNop())
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(sanitizeKVs(keysAndValues)...)}
}

func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := toString(kv[i])
		if isRedactKey(key) {
			out = append(out, key, Redacted)
			continue
		}
		out = append(out, key, kv[i+1])
	}
	return out
}

// redactedKeys are matched case-insensitively anywhere in a field name.
var redactedKeys = []string{"token", "secret", "password", "passwd", "credential", "authorization", "key"}

// isRedactKey reports whether a field carries a secret. Identifier fields
// such as key_id are kept.
func isRedactKey(key string) bool {
	k := strings.ToLower(key)
	if strings.HasSuffix(k, "id") {
		return false
	}
	for _, deny := range redactedKeys {
		if strings.Contains(k, deny) {
			return true
		}
	}
	return false
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
