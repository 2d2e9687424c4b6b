package log

import (
	"fmt"
	"time"
)

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value any
}

func Str(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }
func Dur(key string, value time.Duration) Field { return Field{Key: key, Value: value.String()} }
func Time(key string, value time.Time) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field { return Field{Key: key, Value: value} }
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }
func Operation(name string) Field { return Field{Key: OperationKey, Value: name} }
func Stringer(key string, v fmt.Stringer) Field { return Field{Key: key, Value: v.String()} }

// Err records err under the "error" key. A nil error yields an empty value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}
