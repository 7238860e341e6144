package core

import "fmt"

// A ValueKind identifies which of the closed set of variable value types
// a Value holds. The set is fixed by the spec; there is deliberately no
// way to register new kinds from outside this package.
type ValueKind uint8

// The closed set of variable value kinds.
const (
	KindNull ValueKind = iota
	KindBool
	KindUint64
	KindString
	KindPath
	KindDirPath
	KindAbsDirPath
	KindName
	KindNameList
	KindStringList
	KindPathList
	KindDirPathList
	KindTargetTriplet
	KindNamePair
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindUint64:
		return "uint64"
	case KindString:
		return "string"
	case KindPath:
		return "path"
	case KindDirPath:
		return "dir_path"
	case KindAbsDirPath:
		return "abs_dir_path"
	case KindName:
		return "name"
	case KindNameList:
		return "name_list"
	case KindStringList:
		return "string_list"
	case KindPathList:
		return "path_list"
	case KindDirPathList:
		return "dir_path_list"
	case KindTargetTriplet:
		return "target_triplet"
	case KindNamePair:
		return "name_pair"
	default:
		return "unknown"
	}
}

// A TargetTriplet is a (type, arch, toolchain)-like triple; the exact
// component semantics are owned by whichever rule registers a variable
// of this kind. The core only needs to store and compare it.
type TargetTriplet struct {
	A, B, C string
}

// A NamePair is two Names treated as a single unit, eg. a
// (header, source) declaration pair.
type NamePair struct {
	First, Second Name
}

// A Value is a variable value: either null, or one of the closed set of
// typed payloads described by Kind. Values carry an Extra bit used to
// mark e.g. "this is an inherited default", which is significant to
// overrides (see Scope.findOverride) but not to equality of the payload
// itself.
type Value struct {
	Kind  ValueKind
	Extra bool

	boolVal    bool
	uint64Val  uint64
	stringVal  string
	nameVal    Name
	nameList   []Name
	stringList []string
	triplet    TargetTriplet
	namePair   NamePair
}

// Null is the null value.
var Null = Value{Kind: KindNull}

// NewBool constructs a bool value.
func NewBool(b bool) Value { return Value{Kind: KindBool, boolVal: b} }

// NewUint64 constructs a uint64 value.
func NewUint64(u uint64) Value { return Value{Kind: KindUint64, uint64Val: u} }

// NewString constructs a string value.
func NewString(s string) Value { return Value{Kind: KindString, stringVal: s} }

// NewPath constructs a path value. Paths, dir_paths and abs_dir_paths are
// all stored as strings; the Kind alone tells callers how to interpret
// and re-root them.
func NewPath(s string) Value { return Value{Kind: KindPath, stringVal: s} }

// NewDirPath constructs a dir_path value.
func NewDirPath(s string) Value { return Value{Kind: KindDirPath, stringVal: s} }

// NewAbsDirPath constructs an abs_dir_path value.
func NewAbsDirPath(s string) Value { return Value{Kind: KindAbsDirPath, stringVal: s} }

// NewName constructs a name value.
func NewName(n Name) Value { return Value{Kind: KindName, nameVal: n} }

// NewNameList constructs a list-of-name value.
func NewNameList(ns []Name) Value { return Value{Kind: KindNameList, nameList: ns} }

// NewStringList constructs a list-of-string value.
func NewStringList(ss []string) Value { return Value{Kind: KindStringList, stringList: ss} }

// NewPathList constructs a list-of-path value.
func NewPathList(ss []string) Value { return Value{Kind: KindPathList, stringList: ss} }

// NewDirPathList constructs a list-of-dir_path value.
func NewDirPathList(ss []string) Value { return Value{Kind: KindDirPathList, stringList: ss} }

// NewTargetTriplet constructs a target_triplet value.
func NewTargetTriplet(t TargetTriplet) Value { return Value{Kind: KindTargetTriplet, triplet: t} }

// NewNamePair constructs a name_pair value.
func NewNamePair(p NamePair) Value { return Value{Kind: KindNamePair, namePair: p} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Bool returns the bool payload; panics if Kind != KindBool.
func (v Value) Bool() bool {
	v.mustBe(KindBool)
	return v.boolVal
}

// Uint64 returns the uint64 payload; panics if Kind != KindUint64.
func (v Value) Uint64() uint64 {
	v.mustBe(KindUint64)
	return v.uint64Val
}

// Str returns the string-like payload (string/path/dir_path/abs_dir_path).
func (v Value) Str() string {
	switch v.Kind {
	case KindString, KindPath, KindDirPath, KindAbsDirPath:
		return v.stringVal
	default:
		panic(fmt.Sprintf("value of kind %s is not string-like", v.Kind))
	}
}

// NameVal returns the name payload; panics if Kind != KindName.
func (v Value) NameVal() Name {
	v.mustBe(KindName)
	return v.nameVal
}

// Names returns the list-of-name payload; panics if Kind != KindNameList.
func (v Value) Names() []Name {
	v.mustBe(KindNameList)
	return v.nameList
}

// Strings returns the list-of-string-like payload.
func (v Value) Strings() []string {
	switch v.Kind {
	case KindStringList, KindPathList, KindDirPathList:
		return v.stringList
	default:
		panic(fmt.Sprintf("value of kind %s is not a string-like list", v.Kind))
	}
}

// Triplet returns the target_triplet payload; panics if Kind != KindTargetTriplet.
func (v Value) Triplet() TargetTriplet {
	v.mustBe(KindTargetTriplet)
	return v.triplet
}

// NamePairVal returns the name_pair payload; panics if Kind != KindNamePair.
func (v Value) NamePairVal() NamePair {
	v.mustBe(KindNamePair)
	return v.namePair
}

func (v Value) mustBe(k ValueKind) {
	if v.Kind != k {
		panic(fmt.Sprintf("value of kind %s is not %s", v.Kind, k))
	}
}

// Equal reports whether v and o hold the same kind and payload, ignoring Extra.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolVal == o.boolVal
	case KindUint64:
		return v.uint64Val == o.uint64Val
	case KindString, KindPath, KindDirPath, KindAbsDirPath:
		return v.stringVal == o.stringVal
	case KindName:
		return v.nameVal == o.nameVal
	case KindTargetTriplet:
		return v.triplet == o.triplet
	case KindNamePair:
		return v.namePair == o.namePair
	case KindNameList:
		return equalNameSlice(v.nameList, o.nameList)
	case KindStringList, KindPathList, KindDirPathList:
		return equalStringSlice(v.stringList, o.stringList)
	default:
		return false
	}
}

func equalNameSlice(a, b []Name) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalStringSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
