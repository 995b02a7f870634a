// Package stats implements the descriptive statistics used by table analysis.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Affinity is the SQLite type affinity of a declared column type.
type Affinity int

const (
	AffinityBlob Affinity = iota
	AffinityText
	AffinityNumeric
	AffinityInteger
	AffinityReal
)

// String returns the affinity name.
func (a Affinity) String() string {
	switch a {
	case AffinityText:
		return "TEXT"
	case AffinityNumeric:
		return "NUMERIC"
	case AffinityInteger:
		return "INTEGER"
	case AffinityReal:
		return "REAL"
	default:
		return "BLOB"
	}
}

// IsNumeric reports whether values of this affinity are stored as numbers
// when possible.
func (a Affinity) IsNumeric() bool {
	return a == AffinityInteger || a == AffinityReal || a == AffinityNumeric
}

// ColumnAffinity applies SQLite's affinity rules to a declared type. Rules
// are checked in order; the first match wins.
func ColumnAffinity(declared string) Affinity {
	t := strings.ToUpper(declared)
	switch {
	case strings.Contains(t, "INT"):
		return AffinityInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return AffinityText
	case strings.TrimSpace(t) == "", strings.Contains(t, "BLOB"):
		return AffinityBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return AffinityReal
	default:
		return AffinityNumeric
	}
}

// ToFloat converts a stored value to a float64. Strings and byte slices are
// parsed and must be finite. Stored REAL infinities are numbers; NaN is not.
func ToFloat(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case float64:
		f = x
	case float32:
		f = float64(x)
	case string:
		return parseFloat(x)
	case []byte:
		return parseFloat(string(x))
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatValue renders a stored value as the key used for frequency counts.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// Mean returns the arithmetic mean. xs must not be empty.
func Mean(xs []float64) float64 {
	return stat.Mean(xs, nil)
}

// SampleStd returns the sample standard deviation (n-1 denominator). It is
// undefined for fewer than two values.
func SampleStd(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	_, std := stat.MeanStdDev(xs, nil)
	return std, true
}

// MinMax returns the smallest and largest value. xs must not be empty.
func MinMax(xs []float64) (float64, float64) {
	return floats.Min(xs), floats.Max(xs)
}

// Sorted returns a sorted copy of xs.
func Sorted(xs []float64) []float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	return s
}

// Quantile returns the q-th quantile of sorted data using linear
// interpolation between the closest ranks (Hyndman-Fan type 7).
// sorted must not be empty.
func Quantile(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Frequency is the number of occurrences of one value.
type Frequency struct {
	Value string
	Count int64
}

// Counter counts values while remembering the order they were first seen.
type Counter struct {
	counts map[string]int64
	order  []string
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int64)}
}

// Add counts one occurrence of value.
func (c *Counter) Add(value string) {
	if _, seen := c.counts[value]; !seen {
		c.order = append(c.order, value)
	}
	c.counts[value]++
}

// Len returns the number of distinct values.
func (c *Counter) Len() int {
	return len(c.order)
}

// Top returns up to n values by descending count. Equal counts keep
// first-seen order.
func (c *Counter) Top(n int) []Frequency {
	freqs := make([]Frequency, len(c.order))
	for i, v := range c.order {
		freqs[i] = Frequency{Value: v, Count: c.counts[v]}
	}
	sort.SliceStable(freqs, func(i, j int) bool {
		return freqs[i].Count > freqs[j].Count
	})
	if n >= 0 && len(freqs) > n {
		freqs = freqs[:n]
	}
	return freqs
}
