package docmodel

import (
	"errors"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// The builder walks documents through an order-preserving value tree rather
// than Go maps: the Position Mapper depends on encountering script-bearing
// fields in the exact order they appear in the file, and map decoding throws
// that order away. json-iterator's token-level API keeps it.

type valueKind int

const (
	kindObject valueKind = iota
	kindArray
	kindString
	kindNumber
	kindBool
	kindNull
)

type jsonField struct {
	name  string
	value *jsonValue
}

type jsonValue struct {
	kind   valueKind
	fields []jsonField // object, in document order
	items  []*jsonValue
	str    string
	num    float64
	b      bool
}

// parseJSON decodes a document into the ordered value tree.
func parseJSON(text string) (*jsonValue, error) {
	iter := jsoniter.ParseString(jsoniter.ConfigCompatibleWithStandardLibrary, text)
	v := readValue(iter)
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, iter.Error
	}
	if v == nil {
		return nil, errors.New("empty document")
	}
	return v, nil
}

func readValue(iter *jsoniter.Iterator) *jsonValue {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		obj := &jsonValue{kind: kindObject}
		iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			obj.fields = append(obj.fields, jsonField{name: field, value: readValue(it)})
			return it.Error == nil
		})
		return obj
	case jsoniter.ArrayValue:
		arr := &jsonValue{kind: kindArray}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			arr.items = append(arr.items, readValue(it))
			return it.Error == nil
		})
		return arr
	case jsoniter.StringValue:
		return &jsonValue{kind: kindString, str: iter.ReadString()}
	case jsoniter.NumberValue:
		return &jsonValue{kind: kindNumber, num: iter.ReadFloat64()}
	case jsoniter.BoolValue:
		return &jsonValue{kind: kindBool, b: iter.ReadBool()}
	case jsoniter.NilValue:
		iter.ReadNil()
		return &jsonValue{kind: kindNull}
	default:
		iter.Skip()
		return nil
	}
}

// field returns the named object field's value, or nil.
func (v *jsonValue) field(name string) *jsonValue {
	if v == nil || v.kind != kindObject {
		return nil
	}
	for _, f := range v.fields {
		if f.name == name {
			return f.value
		}
	}
	return nil
}

// asString returns the string value, or "" for non-strings.
func (v *jsonValue) asString() string {
	if v == nil || v.kind != kindString {
		return ""
	}
	return v.str
}

// asBool returns the boolean value, or false for non-booleans.
func (v *jsonValue) asBool() bool {
	if v == nil || v.kind != kindBool {
		return false
	}
	return v.b
}

// stringList converts an array of strings. ok is false when the value exists
// but is not a homogeneous string array; the caller degrades the section.
func (v *jsonValue) stringList() (list []string, ok bool) {
	if v == nil || v.kind != kindArray {
		return nil, false
	}
	for _, item := range v.items {
		if item == nil || item.kind != kindString {
			return nil, false
		}
		list = append(list, item.str)
	}
	return list, true
}
