package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// digestPrefix marks argument strings that were replaced by their xxhash digest.
const digestPrefix = "xxh:"

// KeySerializerOption customizes the default key serializer.
type KeySerializerOption func(*defaultKeySerializer)

// WithDigestThreshold replaces serialized argument lists longer than n bytes
// with a 64-bit xxhash digest. Zero disables digesting.
func WithDigestThreshold(n int) KeySerializerOption {
	return func(s *defaultKeySerializer) {
		if n >= 0 {
			s.digestThreshold = n
		}
	}
}

// defaultKeySerializer implements KeySerializer using reflection-based serialization.
// Output depends only on argument values: maps are emitted in sorted key order and
// structs by exported field name, so equal arguments always produce equal keys.
type defaultKeySerializer struct {
	digestThreshold int
}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer(opts ...KeySerializerOption) KeySerializer {
	s := &defaultKeySerializer{digestThreshold: 512}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SerializeKey builds "method::args" from an endpoint or method name and its arguments.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	serialized := s.SerializeArgs(args...)
	if serialized == "" {
		return method
	}
	return method + KeySeparator + serialized
}

// SerializeArgs serializes only the argument list. No arguments yield "".
func (s *defaultKeySerializer) SerializeArgs(args ...any) string {
	if len(args) == 0 {
		return ""
	}

	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}
	out := strings.Join(parts, KeySeparator)

	if s.digestThreshold > 0 && len(out) > s.digestThreshold {
		return digestPrefix + strconv.FormatUint(xxhash.Sum64String(out), 16)
	}
	return out
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	if stringer, ok := v.(KeyStringer); ok {
		return stringer.CacheKey()
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.Func:
		// stable only within one process
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return "slice" + s.serializeElems(rv)
	case reflect.Array:
		return "array" + s.serializeElems(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)
	case reflect.Struct:
		return s.serializeStruct(rv, rt)
	}

	if isBasicKind(rt.Kind()) {
		return fmt.Sprintf("%v", v)
	}
	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeElems(rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)
	for i := 0; i < length; i++ {
		parts[i] = s.serializeElem(rv.Index(i).Interface())
	}
	return fmt.Sprintf("[%d]:{%s}", length, strings.Join(parts, ","))
}

func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	type pair struct{ key, value string }

	pairs := make([]pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, pair{
			key:   s.serializeElem(iter.Key().Interface()),
			value: s.serializeElem(iter.Value().Interface()),
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = p.key + "=" + p.value
	}
	return fmt.Sprintf("map[%d]:{%s}", len(encoded), strings.Join(encoded, ","))
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fieldValue := rv.Field(i)
		if !fieldValue.CanInterface() {
			continue
		}
		parts = append(parts, field.Name+":"+s.serializeElem(fieldValue.Interface()))
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

// serializeElem encodes a value nested in a collection or struct. Strings are
// quoted so that delimiters inside them cannot shift element boundaries.
func (s *defaultKeySerializer) serializeElem(v any) string {
	if _, ok := v.(KeyStringer); !ok && v != nil {
		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Ptr && !rv.IsNil() {
			rv = rv.Elem()
		}
		if rv.Kind() == reflect.String {
			return strconv.Quote(rv.String())
		}
	}
	return s.serializeValue(v)
}

func isBasicKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}
