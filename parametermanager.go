// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// parameter is one entry in the ParameterManager table: the value always
// set, last-registered default kept around purely for diagnostics.
type parameter struct {
	value        string
	defaultValue string
	hasDefault   bool
}

// ParameterManager is the engine's typed string-keyed configuration
// table. Writes (Set, Register) are only valid before the application
// calls Freeze; after that, writes panic. Reads take a shared read lock
// (RWMutex.RLock) before and after Freeze alike, so they are not
// lock-free.
type ParameterManager struct {
	mu     sync.RWMutex
	params map[string]*parameter
	frozen bool
}

// NewParameterManager returns an empty ParameterManager.
func NewParameterManager() *ParameterManager {
	return &ParameterManager{params: make(map[string]*parameter)}
}

// Freeze forbids further Set/Register calls. Idempotent.
func (pm *ParameterManager) Freeze() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.frozen = true
}

// Set stores v under k as its string form, overwriting any prior value.
func (pm *ParameterManager) Set(k, v string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.frozen {
		panic("jana: ParameterManager.Set called after Freeze")
	}
	p, ok := pm.params[k]
	if !ok {
		p = &parameter{}
		pm.params[k] = p
	}
	p.value = v
}

// SetTyped stringifies v and stores it under k.
func SetTyped[T ParamType](pm *ParameterManager, k string, v T) {
	pm.Set(k, Stringify(v))
}

// Register records defaultVal as k's default if k is unset, then
// returns the effective (parsed) value: the stored value if one was
// already Set, otherwise defaultVal. Repeated calls with differing
// defaults never move an already-resolved value: the first caller wins,
// matching "if present, return the parsed value and additionally record
// the default for diagnostic listing."
func Register[T ParamType](pm *ParameterManager, k string, defaultVal T) T {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.frozen {
		panic("jana: ParameterManager.Register called after Freeze")
	}
	p, ok := pm.params[k]
	if !ok {
		p = &parameter{value: Stringify(defaultVal)}
		pm.params[k] = p
	}
	p.defaultValue = Stringify(defaultVal)
	p.hasDefault = true

	var out T
	if err := Parse(p.value, &out); err != nil {
		return defaultVal
	}
	return out
}

// GetParam parses k's current value into out. Returns ErrConfigError if
// k is unknown. Named GetParam rather than Get to avoid colliding with
// the event-level generic [Get] used to fetch factory results.
func GetParam[T ParamType](pm *ParameterManager, k string, out *T) error {
	pm.mu.RLock()
	p, ok := pm.params[k]
	pm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q", ErrConfigError, k)
	}
	return Parse(p.value, out)
}

// Exists reports whether k has been Set or Register'd.
func (pm *ParameterManager) Exists(k string) bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	_, ok := pm.params[k]
	return ok
}

// Default returns k's recorded default string and whether one was ever
// registered.
func (pm *ParameterManager) Default(k string) (string, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.params[k]
	if !ok || !p.hasDefault {
		return "", false
	}
	return p.defaultValue, true
}

// Len returns the number of distinct parameters known.
func (pm *ParameterManager) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.params)
}

// ParamType is the set of scalar types ParameterManager parses and
// stringifies directly. Sequence types (slices, fixed arrays) of these
// are handled by the package-level ParseSlice/StringifySlice helpers
// since Go generics cannot express "T or []T" as one constraint.
type ParamType interface {
	~bool | ~int | ~int32 | ~int64 | ~float32 | ~float64 | ~string
}

// Stringify renders v in ParameterManager's canonical text form.
func Stringify[T ParamType](v T) string {
	switch x := any(v).(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case string:
		return x
	default:
		panic("jana: unreachable ParamType")
	}
}

// formatFloat renders f without scientific notation, the shortest
// round-tripping decimal form, always with a decimal point: integral
// values get a trailing ".0" (Stringify(0.0) == "0.0"), matching
// original JANA's Val2String behaviour byte-for-byte.
func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// Parse fills *out by parsing s in ParameterManager's canonical text
// form. Bool accepts 0/1/true/false/on/off case-insensitively and fails
// with ErrConfigError (BadBool) for anything else.
func Parse[T ParamType](s string, out *T) error {
	switch p := any(out).(type) {
	case *bool:
		b, err := parseBool(s)
		if err != nil {
			return err
		}
		*p = b
	case *int:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad int %q: %v", ErrConfigError, s, err)
		}
		*p = int(n)
	case *int32:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return fmt.Errorf("%w: bad int32 %q: %v", ErrConfigError, s, err)
		}
		*p = int32(n)
	case *int64:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad int64 %q: %v", ErrConfigError, s, err)
		}
		*p = n
	case *float32:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return fmt.Errorf("%w: bad float32 %q: %v", ErrConfigError, s, err)
		}
		*p = float32(f)
	case *float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%w: bad float64 %q: %v", ErrConfigError, s, err)
		}
		*p = f
	case *string:
		*p = s
	default:
		panic("jana: unreachable ParamType")
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "false", "off":
		return false, nil
	case "1", "true", "on":
		return true, nil
	default:
		return false, fmt.Errorf("%w: BadBool %q", ErrConfigError, s)
	}
}

// ParseSlice splits s on commas and parses each field, preserving
// leading/trailing whitespace of every element except the bare split
// itself (no trimming is performed beyond the split): "a, b ,c " yields
// ["a", " b ", "c "], matching the vector-of-string test's expectation
// that only the split boundary is meaningful, not surrounding space.
func ParseSlice[T ParamType](s string) ([]T, error) {
	fields := strings.Split(s, ",")
	out := make([]T, len(fields))
	for i, f := range fields {
		if err := Parse(f, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StringifySlice joins the stringified form of each element with a
// comma, the inverse of ParseSlice.
func StringifySlice[T ParamType](v []T) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = Stringify(x)
	}
	return strings.Join(parts, ",")
}

// EqualFloat reports whether a and b are equal within a relative
// epsilon appropriate to bitSize (32 or 64), per spec.md §4.10's "float
// equality comparisons use a relative epsilon appropriate to the
// width."
func EqualFloat(a, b float64, bitSize int) bool {
	if a == b {
		return true
	}
	eps := 1e-6
	if bitSize == 64 {
		eps = 1e-9
	}
	diff := math.Abs(a - b)
	largest := math.Max(math.Abs(a), math.Abs(b))
	return diff <= largest*eps
}
