package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
)

// TickRate is the engine's simulation rate. Per-second quantities are stored
// per-tick in cache files and converted back on extraction.
const TickRate = 30.0

// nudgeRunLength is how many repeated digits mark a decimal-rounding
// artifact.
const nudgeRunLength = 4

// Nudge restores a float that suffered decimal rounding on its way through
// the engine: runs of 0s or 9s in the fractional digits are collapsed,
// rounding up for a 9-run. Values outside (-32766, 32766) and exact zeros
// are returned untouched.
func Nudge(f float32) float32 {
	if f == 0 || math.IsNaN(float64(f)) || f <= -32766 || f >= 32766 {
		return f
	}

	// The shortest text that round-trips the float32 value; formatting the
	// widened float64 view instead yields different digits on roughly half
	// of all inputs.
	text := strconv.FormatFloat(float64(f), 'f', -1, 32)
	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return f
	}
	fraction := text[dot+1:]

	runStart, runDigit := -1, byte(0)
	run := 0
	for i := 0; i < len(fraction); i++ {
		c := fraction[i]
		if c == runDigit && (c == '0' || c == '9') {
			run++
		} else if c == '0' || c == '9' {
			runDigit, runStart, run = c, i, 1
		} else {
			runDigit, runStart, run = 0, -1, 0
		}
		if run >= nudgeRunLength {
			break
		}
	}
	if run < nudgeRunLength {
		return f
	}

	kept := text[:dot+1+runStart]
	if runDigit == '9' {
		kept = incrementDecimal(kept)
	}
	nudged, err := strconv.ParseFloat(strings.TrimSuffix(kept, "."), 32)
	if err != nil {
		return f
	}
	return float32(nudged)
}

// incrementDecimal adds one unit in the last place of a decimal string,
// carrying leftward.
func incrementDecimal(s string) string {
	digits := []byte(s)
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c == '.' || c == '-' {
			continue
		}
		if c < '9' {
			digits[i] = c + 1
			return string(digits)
		}
		digits[i] = '0'
	}
	if digits[0] == '-' {
		return "-1" + string(digits[1:])
	}
	return "1" + string(digits)
}

// nudgeField applies Nudge to one named float field. Bounds and array fields
// have every element nudged.
func nudgeField(s *schema.Struct, name string) {
	value, ok := s.Get(name)
	if !ok {
		return
	}
	switch v := value.(type) {
	case float32:
		s.Set(name, Nudge(v)) //nolint:errcheck
	case primitive.Angle:
		s.Set(name, primitive.Angle(Nudge(float32(v)))) //nolint:errcheck
	case []any:
		for i, element := range v {
			switch e := element.(type) {
			case float32:
				v[i] = Nudge(e)
			case primitive.Angle:
				v[i] = primitive.Angle(Nudge(float32(e)))
			}
		}
	}
}

// scaleFloat multiplies a named float field in place. Bounds and array
// fields have every element scaled.
func scaleFloat(s *schema.Struct, name string, factor float32) {
	value, ok := s.Get(name)
	if !ok {
		return
	}
	switch v := value.(type) {
	case float32:
		s.Set(name, v*factor) //nolint:errcheck
	case primitive.Angle:
		s.Set(name, v*primitive.Angle(factor)) //nolint:errcheck
	case []any:
		for i, element := range v {
			switch e := element.(type) {
			case float32:
				v[i] = e * factor
			case primitive.Angle:
				v[i] = e * primitive.Angle(factor)
			}
		}
	}
}
