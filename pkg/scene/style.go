package scene

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/multierr"

	"layertree/pkg/layer"
)

// normalizeKey turns camelCase and snake_case property names into the
// kebab-case CSS spelling.
func normalizeKey(k string) string {
	var sb strings.Builder
	for i, r := range k {
		switch {
		case r == '_':
			sb.WriteByte('-')
		case unicode.IsUpper(r):
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// StyleFromMap builds layer style facts from a property map as found in
// scene files and scripts. Unknown properties and bad values are collected
// into one error.
func StyleFromMap(m map[string]any) (layer.Style, error) {
	s := layer.NewStyle()

	// Sort for stable error ordering.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs error
	for _, k := range keys {
		if err := applyProperty(&s, normalizeKey(k), m[k]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("property %q: %w", k, err))
		}
	}
	return s, errs
}

func applyProperty(s *layer.Style, key string, v any) error {
	var err error
	switch key {
	case "position":
		err = parseKeyword(v, layer.ParsePosition, &s.Position)
	case "overflow":
		err = parseKeyword(v, layer.ParseOverflow, &s.Overflow)
	case "visibility":
		err = parseKeyword(v, layer.ParseVisibility, &s.Visibility)
	case "mix-blend-mode", "blend":
		err = parseKeyword(v, layer.ParseBlendMode, &s.Blend)
	case "z-index":
		if str, ok := v.(string); ok && str == "auto" {
			s.ZIndexAuto = true
			return nil
		}
		var z float64
		if z, err = asNumber(v); err == nil {
			if z != math.Trunc(z) {
				return fmt.Errorf("z-index must be an integer, got %v", v)
			}
			s.ZIndex, s.ZIndexAuto = int(z), false
		}
	case "opacity":
		var o float64
		if o, err = asNumber(v); err == nil {
			if o < 0 || o > 1 {
				return fmt.Errorf("opacity %v out of range [0, 1]", o)
			}
			s.Opacity = o
		}
	case "transform":
		err = asBool(v, &s.Transform)
	case "transform-3d":
		err = asBool(v, &s.Transform3D)
	case "preserve-3d", "transform-style":
		if str, ok := v.(string); ok {
			switch str {
			case "preserve-3d":
				s.Preserve3D = true
			case "flat":
				s.Preserve3D = false
			default:
				return fmt.Errorf("unknown transform-style %q", str)
			}
			return nil
		}
		err = asBool(v, &s.Preserve3D)
	case "perspective":
		err = asBool(v, &s.Perspective)
	case "filter":
		err = asBool(v, &s.Filter)
	case "backdrop-filter":
		err = asBool(v, &s.BackdropFilter)
	case "mask":
		err = asBool(v, &s.Mask)
	case "isolation":
		if str, ok := v.(string); ok {
			switch str {
			case "isolate":
				s.Isolation = true
			case "auto":
				s.Isolation = false
			default:
				return fmt.Errorf("unknown isolation %q", str)
			}
			return nil
		}
		err = asBool(v, &s.Isolation)
	case "composited":
		err = asBool(v, &s.Composited)
	case "always-included":
		err = asBool(v, &s.AlwaysIncluded)
	default:
		return fmt.Errorf("unknown property")
	}
	return err
}

func parseKeyword[T any](v any, parse func(string) (T, bool), dst *T) error {
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected keyword, got %T", v)
	}
	val, ok := parse(str)
	if !ok {
		return fmt.Errorf("unknown keyword %q", str)
	}
	*dst = val
	return nil
}

func asNumber(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func asBool(v any, dst *bool) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("expected boolean, got %T", v)
	}
	*dst = b
	return nil
}
