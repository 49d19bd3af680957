package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"business-svc/internal/business"
)

// flags holds parsed --name=value arguments. "--name value" is accepted too,
// and a bare "--name" is recorded as "true".
type flags map[string]string

func parseFlags(args []string) flags {
	f := flags{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		if k, v, ok := strings.Cut(name, "="); ok {
			f[k] = v
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			f[name] = args[i+1]
			i++
			continue
		}
		f[name] = "true"
	}
	return f
}

func (f flags) has(name string) bool {
	_, ok := f[name]
	return ok
}

// require returns the values of names, failing on the first missing one.
func (f flags) require(names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		v := strings.TrimSpace(f[n])
		if v == "" {
			return nil, fmt.Errorf("--%s is required", n)
		}
		out[i] = v
	}
	return out, nil
}

// optional returns a pointer to the value of name, or nil when absent.
func (f flags) optional(name string) *string {
	v, ok := f[name]
	if !ok {
		return nil
	}
	return &v
}

func (f flags) intValue(name string, def int) (int, error) {
	v, ok := f[name]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("--%s must be an integer: %w", name, err)
	}
	return n, nil
}

func (f flags) boolValue(name string) (*bool, error) {
	v, ok := f[name]
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("--%s must be true or false: %w", name, err)
	}
	return &b, nil
}

func (f flags) list(name string) []string {
	v := strings.TrimSpace(f[name])
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (f flags) permissions(name string) ([]business.Permission, error) {
	names := f.list(name)
	if names == nil {
		return nil, nil
	}
	return business.ParsePermissions(names)
}

// date parses an RFC 3339 timestamp or a YYYY-MM-DD date.
func (f flags) date(name string) (*time.Time, error) {
	v := strings.TrimSpace(f[name])
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("--%s must be RFC 3339 or YYYY-MM-DD", name)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
