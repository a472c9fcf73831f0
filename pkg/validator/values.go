package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/openconfig/goyang/pkg/yang"
)

// checkValue checks a typed tree value against a YANG type.
func (r *run) checkValue(t *yang.YangType, v any) error {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case yang.Yunion:
		for _, member := range t.Type {
			if r.checkValue(member, v) == nil {
				return nil
			}
		}
		return fmt.Errorf("value %s matches no member of the union", display(v))

	case yang.Yleafref:
		// references are resolved against the document separately
		if _, ok := v.(string); !ok {
			if _, ok := v.(json.Number); !ok {
				return fmt.Errorf("value %s is not a valid reference", display(v))
			}
		}
		return nil

	case yang.Yint8, yang.Yint16, yang.Yint32, yang.Yint64:
		num, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("value %s is not a valid %s", display(v), yang.TypeKindToName[t.Kind])
		}
		i, err := strconv.ParseInt(num.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("value %s is not a valid %s", num, yang.TypeKindToName[t.Kind])
		}
		return checkRange(t.Range, yang.FromInt(i), num.String())

	case yang.Yuint8, yang.Yuint16, yang.Yuint32, yang.Yuint64:
		num, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("value %s is not a valid %s", display(v), yang.TypeKindToName[t.Kind])
		}
		u, err := strconv.ParseUint(num.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("value %s is not a valid %s", num, yang.TypeKindToName[t.Kind])
		}
		return checkRange(t.Range, yang.FromUint(u), num.String())

	case yang.Ydecimal64:
		num, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("value %s is not a valid decimal64", display(v))
		}
		f, err := num.Float64()
		if err != nil {
			return fmt.Errorf("value %s is not a valid decimal64", num)
		}
		if frac := fractionDigits(num.String()); t.FractionDigits > 0 && frac > t.FractionDigits {
			return fmt.Errorf("value %s has more than %d fraction digits", num, t.FractionDigits)
		}
		return checkRange(t.Range, yang.FromFloat(f), num.String())

	case yang.Ybool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("value %s is not a valid boolean", display(v))
		}
		return nil

	case yang.Yenum:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("value %s is not a valid enumeration", display(v))
		}
		if t.Enum != nil {
			names := t.Enum.Names()
			for _, name := range names {
				if name == s {
					return nil
				}
			}
			return fmt.Errorf("value %s is not one of %s", s, strings.Join(names, ", "))
		}
		return nil

	case yang.Ystring:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("value %s is not a valid string", display(v))
		}
		if len(t.Length) > 0 {
			n := utf8.RuneCountInString(s)
			if err := checkRange(t.Length, yang.FromInt(int64(n)), strconv.Itoa(n)); err != nil {
				return fmt.Errorf("length of %q: %w", s, err)
			}
		}
		for _, p := range t.Pattern {
			re := r.patterns.get(p)
			if re != nil && !re.MatchString(s) {
				return fmt.Errorf("value %q does not match pattern %s", s, p)
			}
		}
		return nil

	default:
		return nil
	}
}

var errOutOfRange = errors.New("out of range")

func checkRange(rng yang.YangRange, n yang.Number, text string) error {
	if len(rng) == 0 {
		return nil
	}
	for _, yr := range rng {
		if !n.Less(yr.Min) && !yr.Max.Less(n) {
			return nil
		}
	}
	bounds := make([]string, len(rng))
	for i, yr := range rng {
		bounds[i] = yr.Min.String() + ".." + yr.Max.String()
	}
	return fmt.Errorf("value %s %w %s", text, errOutOfRange, strings.Join(bounds, " | "))
}

func fractionDigits(s string) int {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(s) - i - 1
}

func display(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// patternCache compiles YANG patterns once. YANG patterns are implicitly
// anchored. A pattern Go's regexp cannot compile is not enforced.
type patternCache struct {
	mu sync.Mutex
	re map[string]*regexp.Regexp
}

func newPatternCache() *patternCache {
	return &patternCache{re: make(map[string]*regexp.Regexp)}
}

func (c *patternCache) get(pattern string) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.re[pattern]; ok {
		return re
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		re = nil
	}
	c.re[pattern] = re
	return re
}
