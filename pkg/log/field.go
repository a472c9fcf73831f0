package log

import (
	"encoding/json"
	"time"
)

// Field represents a structured log field with a key and value
type Field struct {
	Key   string
	Value interface{}
}

// F creates a log field with the provided key and value
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Str creates a string field
func Str(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Strs creates a field holding a list of strings
func Strs(key string, values []string) Field {
	return Field{Key: key, Value: values}
}

// Json creates a field holding the JSON encoding of value.
func Json(key string, value interface{}) Field {
	b, err := json.Marshal(value)
	if err != nil {
		return Field{Key: key, Value: err.Error()}
	}
	return Field{Key: key, Value: string(b)}
}

// Component creates a component field
func Component(value string) Field {
	return Field{Key: ComponentKey, Value: value}
}

// RequestID creates a request ID field
func RequestID(value string) Field {
	return Field{Key: RequestIDKey, Value: value}
}

// Operation creates an operation field (apply-patch, replace, ...)
func Operation(value string) Field {
	return Field{Key: OperationKey, Value: value}
}

// Namespace creates a namespace field; the default namespace is logged as "localhost".
func Namespace(value string) Field {
	if value == "" {
		value = "localhost"
	}
	return Field{Key: NamespaceKey, Value: value}
}
