package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/heysubinoy/pyazkv/pkg/kv"
	"google.golang.org/protobuf/types/known/structpb"
)

// Kind is the shape of a Reply.
type Kind uint8

const (
	KindNil Kind = iota
	KindStatus
	KindString
	KindInteger
	KindArray
)

// Reply is the result of one command.
type Reply struct {
	Kind  Kind
	Str   string
	Int   int64
	Items []kv.Entry
}

func Status(s string) Reply        { return Reply{Kind: KindStatus, Str: s} }
func String(s string) Reply        { return Reply{Kind: KindString, Str: s} }
func Integer(n int64) Reply        { return Reply{Kind: KindInteger, Int: n} }
func Array(items []kv.Entry) Reply { return Reply{Kind: KindArray, Items: items} }

// Nil is the no-op / absent reply.
var Nil = Reply{Kind: KindNil}

// OK is the success marker of write commands.
var OK = Status("OK")

// Strings builds an array reply whose items are all present.
func Strings(ss []string) Reply {
	items := make([]kv.Entry, len(ss))
	for i, s := range ss {
		items[i] = kv.Entry{Value: s, Found: true}
	}
	return Array(items)
}

// String renders the reply the way a terminal client would show it.
func (r Reply) String() string {
	switch r.Kind {
	case KindStatus, KindString:
		return r.Str
	case KindInteger:
		return "(integer) " + strconv.FormatInt(r.Int, 10)
	case KindArray:
		if len(r.Items) == 0 {
			return "(empty array)"
		}
		var b strings.Builder
		for i, it := range r.Items {
			if i > 0 {
				b.WriteByte('\n')
			}
			if it.Found {
				fmt.Fprintf(&b, "%d) %q", i+1, it.Value)
			} else {
				fmt.Fprintf(&b, "%d) (nil)", i+1)
			}
		}
		return b.String()
	}
	return "(nil)"
}

// JSON returns the reply as a plain value for JSON encoding:
// nil, string, int64 or []interface{} of strings and nils.
func (r Reply) JSON() interface{} {
	switch r.Kind {
	case KindStatus, KindString:
		return r.Str
	case KindInteger:
		return r.Int
	case KindArray:
		out := make([]interface{}, len(r.Items))
		for i, it := range r.Items {
			if it.Found {
				out[i] = it.Value
			}
		}
		return out
	}
	return nil
}

// Wire encoding used by the gRPC service:
//
//	nil     -> null_value
//	status  -> struct_value {"status": "<text>"}
//	string  -> string_value
//	integer -> struct_value {"integer": "<decimal>"}   (decimal keeps int64 exact)
//	array   -> list_value of string_value / null_value
const (
	statusField  = "status"
	integerField = "integer"
)

// Proto encodes the reply as a structpb.Value.
func (r Reply) Proto() *structpb.Value {
	switch r.Kind {
	case KindStatus:
		return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			statusField: structpb.NewStringValue(r.Str),
		}})
	case KindString:
		return structpb.NewStringValue(r.Str)
	case KindInteger:
		return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			integerField: structpb.NewStringValue(strconv.FormatInt(r.Int, 10)),
		}})
	case KindArray:
		values := make([]*structpb.Value, len(r.Items))
		for i, it := range r.Items {
			if it.Found {
				values[i] = structpb.NewStringValue(it.Value)
			} else {
				values[i] = structpb.NewNullValue()
			}
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values})
	}
	return structpb.NewNullValue()
}

// FromProto decodes a structpb.Value produced by Reply.Proto.
func FromProto(v *structpb.Value) (Reply, error) {
	switch k := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return Nil, nil
	case *structpb.Value_StringValue:
		return String(k.StringValue), nil
	case *structpb.Value_ListValue:
		items := make([]kv.Entry, len(k.ListValue.GetValues()))
		for i, item := range k.ListValue.GetValues() {
			switch ik := item.GetKind().(type) {
			case *structpb.Value_StringValue:
				items[i] = kv.Entry{Value: ik.StringValue, Found: true}
			case *structpb.Value_NullValue:
			default:
				return Reply{}, fmt.Errorf("%w: array item %d has kind %T", ErrBadReply, i, ik)
			}
		}
		return Array(items), nil
	case *structpb.Value_StructValue:
		fields := k.StructValue.GetFields()
		if s, ok := fields[statusField]; ok {
			return Status(s.GetStringValue()), nil
		}
		if s, ok := fields[integerField]; ok {
			n, err := strconv.ParseInt(s.GetStringValue(), 10, 64)
			if err != nil {
				return Reply{}, fmt.Errorf("%w: integer %q", ErrBadReply, s.GetStringValue())
			}
			return Integer(n), nil
		}
	}
	return Reply{}, fmt.Errorf("%w: unexpected value %v", ErrBadReply, v)
}

// Args encodes command arguments as a structpb.ListValue.
func Args(args []string) *structpb.ListValue {
	values := make([]*structpb.Value, len(args))
	for i, a := range args {
		values[i] = structpb.NewStringValue(a)
	}
	return &structpb.ListValue{Values: values}
}

// ArgsFromProto decodes a ListValue of strings.
func ArgsFromProto(l *structpb.ListValue) ([]string, error) {
	args := make([]string, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: argument %d is not a string", ErrSyntax, i)
		}
		args[i] = s.StringValue
	}
	return args, nil
}
