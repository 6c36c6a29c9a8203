package aggregation

// Level is the coerced state of a boolean-like signal.
type Level int

const (
	LevelNone Level = iota // neither true-like nor false-like
	LevelOff
	LevelOn
)

func (l Level) String() string {
	switch l {
	case LevelOn:
		return "on"
	case LevelOff:
		return "off"
	}
	return "none"
}

var (
	trueStrings  = map[string]struct{}{"1": {}, "true": {}, "on": {}, "ON": {}}
	falseStrings = map[string]struct{}{"0": {}, "false": {}, "off": {}, "OFF": {}, "standby": {}}
)

// IsTrueLike reports whether v is one of 1, "1", true, "true", "on" or "ON".
// Ordinary truthiness does not apply: "yes", 2 or "True" are not true-like.
func IsTrueLike(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		_, ok := trueStrings[val]
		return ok
	case nil:
		return false
	}
	f, ok := numeric(v)
	return ok && f == 1
}

// IsFalseLike reports whether v is one of 0, "0", false, "false", "off", "OFF"
// or "standby".
func IsFalseLike(v any) bool {
	switch val := v.(type) {
	case bool:
		return !val
	case string:
		_, ok := falseStrings[val]
		return ok
	case nil:
		return false
	}
	f, ok := numeric(v)
	return ok && f == 0
}

// Coerce maps a raw value to its Level.
func Coerce(v any) Level {
	if IsTrueLike(v) {
		return LevelOn
	}
	if IsFalseLike(v) {
		return LevelOff
	}
	return LevelNone
}

func numeric(v any) (float64, bool) {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint32:
		return ToFloat(v)
	}
	return 0, false
}
