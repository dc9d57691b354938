package strictwire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/strictwire/internal/testutil/testlog"
	"github.com/danmuck/strictwire/schema"
	"github.com/danmuck/strictwire/tlv"
	"github.com/danmuck/strictwire/wire"
)

func buildRegistry(t *testing.T, descriptors ...schema.TypeDescriptor) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, td := range descriptors {
		if err := reg.Add(td); err != nil {
			t.Fatalf("Add(%s): %v", td.Name, err)
		}
	}
	return reg
}

func mustCompile(t *testing.T, reg *Registry, name string) *Plan {
	t.Helper()
	p, err := reg.Compile(name)
	if err != nil {
		t.Fatalf("Compile(%s): %v", name, err)
	}
	return p
}

func recordDescriptor() schema.TypeDescriptor {
	return schema.TypeDescriptor{
		Name: "Record",
		Kind: schema.Struct,
		Fields: []schema.FieldDescriptor{
			{Name: "data", Type: schema.TypeRef{Prim: schema.Bytes}},
			{Name: "ephemeral", Type: schema.TypeRef{Prim: schema.Bool, Optional: true}, Role: schema.Skipped},
		},
	}
}

func TestStructRoundTrip(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name: "Sample",
		Kind: schema.Struct,
		Fields: []schema.FieldDescriptor{
			{Name: "a", Type: schema.TypeRef{Prim: schema.U8}},
			{Name: "b", Type: schema.TypeRef{Prim: schema.U16}},
			{Name: "c", Type: schema.TypeRef{Prim: schema.U32}},
			{Name: "d", Type: schema.TypeRef{Prim: schema.U64}},
			{Name: "e", Type: schema.TypeRef{Prim: schema.Bool}},
			{Name: "f", Type: schema.TypeRef{Prim: schema.Bytes}},
			{Name: "g", Type: schema.TypeRef{Prim: schema.Str}},
		},
	})
	plan := mustCompile(t, reg, "Sample")

	in := Struct(U8(7), U16(300), U32(70000), U64(1<<40), Bool(true), Bytes([]byte{0xde, 0xad}), Str("ok"))
	data, err := plan.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip mismatch: %s != %s", out, in)
	}
}

func TestSkippedFieldEmitsNothing(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, recordDescriptor())
	plan := mustCompile(t, reg, "Record")

	data, err := plan.Encode(Struct(Bytes([]byte("abc")), Some(Bool(true))))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x03, 0x00, 0x61, 0x62, 0x63}
	if !bytes.Equal(data, want) {
		t.Fatalf("Encode = % x, want % x", data, want)
	}

	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(Struct(Bytes([]byte("abc")), None())) {
		t.Fatalf("skipped field not restored to default: %s", out)
	}
}

func TestUnionByOrderTags(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name:    "Heading",
		Kind:    schema.Union,
		Options: schema.Options{ByOrder: true, ReprWidth: 2},
		Variants: []schema.VariantDescriptor{
			{Name: "North"}, {Name: "East"}, {Name: "South"}, {Name: "West"},
		},
	})
	plan := mustCompile(t, reg, "Heading")

	data, err := plan.Encode(Union("North"))
	if err != nil {
		t.Fatalf("Encode(North): %v", err)
	}
	if !bytes.Equal(data, []byte{0x00, 0x00}) {
		t.Fatalf("Encode(North) = % x, want 00 00", data)
	}

	data, err = plan.Encode(Union("West"))
	if err != nil {
		t.Fatalf("Encode(West): %v", err)
	}
	if !bytes.Equal(data, []byte{0x03, 0x00}) {
		t.Fatalf("Encode(West) = % x, want 03 00", data)
	}

	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(Union("West")) {
		t.Fatalf("Decode = %s, want West()", out)
	}
}

func TestUnionByValueTags(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name:    "Code",
		Kind:    schema.Union,
		Options: schema.Options{ByValue: true, ReprWidth: 4},
		Variants: []schema.VariantDescriptor{
			{Name: "Init", Value: 1},
			{Name: "Run", Value: 2, Explicit: explicit(0x10)},
		},
	})
	plan := mustCompile(t, reg, "Code")

	data, err := plan.Encode(Union("Init"))
	if err != nil {
		t.Fatalf("Encode(Init): %v", err)
	}
	if !bytes.Equal(data, []byte{0x01, 0x00, 0x00, 0x00}) {
		t.Fatalf("Encode(Init) = % x, want 01 00 00 00", data)
	}

	data, err = plan.Encode(Union("Run"))
	if err != nil {
		t.Fatalf("Encode(Run): %v", err)
	}
	if !bytes.Equal(data, []byte{0x10, 0x00, 0x00, 0x00}) {
		t.Fatalf("Encode(Run) = % x, want 10 00 00 00", data)
	}

	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(Union("Run")) {
		t.Fatalf("Decode = %s, want Run()", out)
	}
}

func TestUnionVariantFields(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name:    "Event",
		Kind:    schema.Union,
		Options: schema.Options{ByOrder: true},
		Variants: []schema.VariantDescriptor{
			{Name: "Ping"},
			{Name: "Data", Fields: []schema.FieldDescriptor{
				{Name: "seq", Type: schema.TypeRef{Prim: schema.U16}},
				{Name: "body", Type: schema.TypeRef{Prim: schema.Bytes}},
				{Name: "scratch", Type: schema.TypeRef{Prim: schema.U32}, Role: schema.Skipped},
			}},
		},
	})
	plan := mustCompile(t, reg, "Event")

	in := Union("Data", U16(9), Bytes([]byte{0xff}), U32(123))
	data, err := plan.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x01, 0x09, 0x00, 0x01, 0x00, 0xff}
	if !bytes.Equal(data, want) {
		t.Fatalf("Encode = % x, want % x", data, want)
	}

	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(Union("Data", U16(9), Bytes([]byte{0xff}), U32(0))) {
		t.Fatalf("Decode = %s", out)
	}
}

func TestUnionUnknownTag(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name:     "Flag",
		Kind:     schema.Union,
		Options:  schema.Options{ByOrder: true},
		Variants: []schema.VariantDescriptor{{Name: "Off"}, {Name: "On"}},
	})
	plan := mustCompile(t, reg, "Flag")

	if _, err := plan.Decode([]byte{0x07}); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("Decode(07) err = %v, want ErrUnknownTag", err)
	}
}

func TestOptionPresence(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name: "Conn",
		Kind: schema.Struct,
		Fields: []schema.FieldDescriptor{
			{Name: "port", Type: schema.TypeRef{Prim: schema.U16, Optional: true}},
		},
	})
	plan := mustCompile(t, reg, "Conn")

	data, err := plan.Encode(Struct(None()))
	if err != nil {
		t.Fatalf("Encode(none): %v", err)
	}
	if !bytes.Equal(data, []byte{0x00}) {
		t.Fatalf("Encode(none) = % x, want 00", data)
	}

	data, err = plan.Encode(Struct(Some(U16(0x0102))))
	if err != nil {
		t.Fatalf("Encode(some): %v", err)
	}
	if !bytes.Equal(data, []byte{0x01, 0x02, 0x01}) {
		t.Fatalf("Encode(some) = % x, want 01 02 01", data)
	}

	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(Struct(Some(U16(0x0102)))) {
		t.Fatalf("Decode = %s", out)
	}

	if _, err := plan.Decode([]byte{0x02, 0x02, 0x01}); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("Decode(presence 02) err = %v, want ErrUnknownTag", err)
	}
}

func feedDescriptor() schema.TypeDescriptor {
	return schema.TypeDescriptor{
		Name:    "Feed",
		Kind:    schema.Struct,
		Options: schema.Options{UseTLV: true},
		Fields: []schema.FieldDescriptor{
			{Name: "id", Type: schema.TypeRef{Prim: schema.U32}},
			{Name: "note", Type: schema.TypeRef{Prim: schema.Str, Optional: true}, Role: schema.TLV, Tag: 1},
			{Name: "window", Type: schema.TypeRef{Prim: schema.U16, Optional: true}, Role: schema.TLV, Tag: 3},
			{Name: "extra", Role: schema.Capture},
		},
	}
}

func TestExtensionRoundTrip(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, feedDescriptor())
	plan := mustCompile(t, reg, "Feed")

	in := Struct(U32(7), Some(Str("hi")), None(), Captured(nil))
	data, err := plan.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{
		0x07, 0x00, 0x00, 0x00, // id
		0x01, 0x00, 0x04, 0x00, 0x02, 0x00, 0x68, 0x69, // note entry
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("Encode = % x, want % x", data, want)
	}

	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip mismatch: %s != %s", out, in)
	}
}

func TestExtensionUnknownMandatory(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, feedDescriptor())
	plan := mustCompile(t, reg, "Feed")

	data := []byte{
		0x07, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x01, 0x00, 0xff, // tag 4: even, undeclared
	}
	if _, err := plan.Decode(data); !errors.Is(err, tlv.ErrUnknownMandatory) {
		t.Fatalf("Decode err = %v, want ErrUnknownMandatory", err)
	}
}

func TestExtensionCapture(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, feedDescriptor())
	plan := mustCompile(t, reg, "Feed")

	data := []byte{
		0x07, 0x00, 0x00, 0x00,
		0x05, 0x00, 0x02, 0x00, 0xaa, 0xbb, // tag 5: odd, undeclared
		0x01, 0x00, 0x04, 0x00, 0x02, 0x00, 0x68, 0x69, // note entry after it
	}
	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Struct(U32(7), Some(Str("hi")), None(), Captured(map[uint16][]byte{5: {0xaa, 0xbb}}))
	if !out.Equal(want) {
		t.Fatalf("Decode = %s, want %s", out, want)
	}

	// Re-encoding normalizes entry order: declared entries first,
	// captured entries in ascending tag order.
	norm, err := plan.Encode(out)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	canonical := []byte{
		0x07, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x04, 0x00, 0x02, 0x00, 0x68, 0x69,
		0x05, 0x00, 0x02, 0x00, 0xaa, 0xbb,
	}
	if !bytes.Equal(norm, canonical) {
		t.Fatalf("re-encode = % x, want % x", norm, canonical)
	}

	again, err := plan.Decode(canonical)
	if err != nil {
		t.Fatalf("Decode(canonical): %v", err)
	}
	if !again.Equal(out) {
		t.Fatalf("canonical decode mismatch: %s != %s", again, out)
	}
}

func TestExtensionCaptureRejectsBadTags(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, feedDescriptor())
	plan := mustCompile(t, reg, "Feed")

	even := Struct(U32(1), None(), None(), Captured(map[uint16][]byte{4: {0x01}}))
	if _, err := plan.Encode(even); !errors.Is(err, ErrCaptureTag) {
		t.Fatalf("Encode(even capture tag) err = %v, want ErrCaptureTag", err)
	}

	declared := Struct(U32(1), None(), None(), Captured(map[uint16][]byte{1: {0x01}}))
	if _, err := plan.Encode(declared); !errors.Is(err, ErrCaptureTag) {
		t.Fatalf("Encode(declared capture tag) err = %v, want ErrCaptureTag", err)
	}
}

func TestExtensionIgnorableDroppedWithoutCapture(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name:    "Lean",
		Kind:    schema.Struct,
		Options: schema.Options{UseTLV: true},
		Fields: []schema.FieldDescriptor{
			{Name: "id", Type: schema.TypeRef{Prim: schema.U8}},
			{Name: "note", Type: schema.TypeRef{Prim: schema.Str, Optional: true}, Role: schema.TLV, Tag: 1},
		},
	})
	plan := mustCompile(t, reg, "Lean")

	data := []byte{
		0x09,
		0x05, 0x00, 0x01, 0x00, 0xcc, // tag 5: odd, nowhere to land
	}
	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	norm, err := plan.Encode(out)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(norm, []byte{0x09}) {
		t.Fatalf("re-encode = % x, want 09", norm)
	}
}

func TestExtensionDuplicateTag(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, feedDescriptor())
	plan := mustCompile(t, reg, "Feed")

	data := []byte{
		0x07, 0x00, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x00, 0xaa,
		0x05, 0x00, 0x01, 0x00, 0xbb,
	}
	if _, err := plan.Decode(data); !errors.Is(err, tlv.ErrDuplicateTag) {
		t.Fatalf("Decode err = %v, want ErrDuplicateTag", err)
	}
}

func TestTrailingBytesRejected(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, recordDescriptor())
	plan := mustCompile(t, reg, "Record")

	data := []byte{0x03, 0x00, 0x61, 0x62, 0x63, 0xff}
	if _, err := plan.Decode(data); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("Decode err = %v, want ErrTrailingBytes", err)
	}
}

func TestTruncatedInput(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, recordDescriptor())
	plan := mustCompile(t, reg, "Record")

	if _, err := plan.Decode([]byte{0x03}); !errors.Is(err, wire.ErrTruncated) {
		t.Fatalf("Decode(short prefix) err = %v, want ErrTruncated", err)
	}
	if _, err := plan.Decode([]byte{0x03, 0x00, 0x61, 0x62}); !errors.Is(err, wire.ErrLengthMismatch) {
		t.Fatalf("Decode(short payload) err = %v, want ErrLengthMismatch", err)
	}
}

func TestBoolStrictness(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name: "Toggle",
		Kind: schema.Struct,
		Fields: []schema.FieldDescriptor{
			{Name: "on", Type: schema.TypeRef{Prim: schema.Bool}},
		},
	})
	plan := mustCompile(t, reg, "Toggle")

	if _, err := plan.Decode([]byte{0x02}); !errors.Is(err, wire.ErrInvalidBool) {
		t.Fatalf("Decode(02) err = %v, want ErrInvalidBool", err)
	}
}

func TestNestedTypesRoundTrip(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t,
		schema.TypeDescriptor{
			Name: "Point",
			Kind: schema.Struct,
			Fields: []schema.FieldDescriptor{
				{Name: "x", Type: schema.TypeRef{Prim: schema.U16}},
				{Name: "y", Type: schema.TypeRef{Prim: schema.U16}},
			},
		},
		schema.TypeDescriptor{
			Name:    "Shape",
			Kind:    schema.Union,
			Options: schema.Options{ByOrder: true},
			Variants: []schema.VariantDescriptor{
				{Name: "Dot"},
				{Name: "Line", Fields: []schema.FieldDescriptor{
					{Name: "length", Type: schema.TypeRef{Prim: schema.U32}},
				}},
				{Name: "Poly", Fields: []schema.FieldDescriptor{
					{Name: "sides", Type: schema.TypeRef{Prim: schema.U8}},
					{Name: "closed", Type: schema.TypeRef{Prim: schema.Bool}},
				}},
			},
		},
		schema.TypeDescriptor{
			Name: "Drawing",
			Kind: schema.Struct,
			Fields: []schema.FieldDescriptor{
				{Name: "origin", Type: schema.TypeRef{Named: "Point"}},
				{Name: "shape", Type: schema.TypeRef{Named: "Shape"}},
				{Name: "label", Type: schema.TypeRef{Prim: schema.Str}},
				{Name: "mark", Type: schema.TypeRef{Named: "Point", Optional: true}},
			},
		},
	)
	plan := mustCompile(t, reg, "Drawing")

	in := Struct(
		Struct(U16(1), U16(2)),
		Union("Line", U32(7)),
		Str("box"),
		None(),
	)
	data, err := plan.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{
		0x01, 0x00, 0x02, 0x00, // origin
		0x01, 0x07, 0x00, 0x00, 0x00, // shape: Line(7)
		0x03, 0x00, 0x62, 0x6f, 0x78, // label
		0x00, // mark absent
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("Encode = % x, want % x", data, want)
	}

	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip mismatch: %s != %s", out, in)
	}
}

func TestRecursionThroughOptional(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name: "Node",
		Kind: schema.Struct,
		Fields: []schema.FieldDescriptor{
			{Name: "val", Type: schema.TypeRef{Prim: schema.U8}},
			{Name: "next", Type: schema.TypeRef{Named: "Node", Optional: true}},
		},
	})
	plan := mustCompile(t, reg, "Node")

	in := Struct(U8(1), Some(Struct(U8(2), Some(Struct(U8(3), None())))))
	data, err := plan.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x01, 0x01, 0x02, 0x01, 0x03, 0x00}
	if !bytes.Equal(data, want) {
		t.Fatalf("Encode = % x, want % x", data, want)
	}

	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip mismatch: %s != %s", out, in)
	}
}

func TestRecursionWithoutOptionalRejected(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name: "Chain",
		Kind: schema.Struct,
		Fields: []schema.FieldDescriptor{
			{Name: "next", Type: schema.TypeRef{Named: "Chain"}},
		},
	})
	_, err := reg.Compile("Chain")
	if !errors.Is(err, schema.ErrRecursiveType) {
		t.Fatalf("Compile err = %v, want ErrRecursiveType", err)
	}
	var derr schema.DescriptorError
	if !errors.As(err, &derr) || derr.Type != "Chain" || derr.Elem != "next" {
		t.Fatalf("Compile err = %#v, want descriptor context Chain.next", err)
	}
}

func TestMutualRecursionThroughOptional(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t,
		schema.TypeDescriptor{
			Name: "Fork",
			Kind: schema.Struct,
			Fields: []schema.FieldDescriptor{
				{Name: "leaf", Type: schema.TypeRef{Named: "Twig"}},
			},
		},
		schema.TypeDescriptor{
			Name: "Twig",
			Kind: schema.Struct,
			Fields: []schema.FieldDescriptor{
				{Name: "val", Type: schema.TypeRef{Prim: schema.U8}},
				{Name: "back", Type: schema.TypeRef{Named: "Fork", Optional: true}},
			},
		},
	)
	plan := mustCompile(t, reg, "Fork")

	in := Struct(Struct(U8(5), Some(Struct(Struct(U8(6), None())))))
	data, err := plan.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip mismatch: %s != %s", out, in)
	}
}

func extDescriptor() schema.TypeDescriptor {
	return schema.TypeDescriptor{
		Name:    "Ext",
		Kind:    schema.Struct,
		Options: schema.Options{UseTLV: true},
		Fields: []schema.FieldDescriptor{
			{Name: "n", Type: schema.TypeRef{Prim: schema.U8}},
			{Name: "opt", Type: schema.TypeRef{Prim: schema.U16, Optional: true}, Role: schema.TLV, Tag: 1},
		},
	}
}

func TestExtendedTypeBannedAsBodyField(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t,
		extDescriptor(),
		schema.TypeDescriptor{
			Name: "Holder",
			Kind: schema.Struct,
			Fields: []schema.FieldDescriptor{
				{Name: "e", Type: schema.TypeRef{Named: "Ext"}},
			},
		},
	)
	_, err := reg.Compile("Holder")
	if !errors.Is(err, schema.ErrUnboundedNesting) {
		t.Fatalf("Compile err = %v, want ErrUnboundedNesting", err)
	}
}

func TestExtendedTypeAllowedAsEntryPayload(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t,
		extDescriptor(),
		schema.TypeDescriptor{
			Name:    "Outer",
			Kind:    schema.Struct,
			Options: schema.Options{UseTLV: true},
			Fields: []schema.FieldDescriptor{
				{Name: "data", Type: schema.TypeRef{Prim: schema.U8}},
				{Name: "child", Type: schema.TypeRef{Named: "Ext", Optional: true}, Role: schema.TLV, Tag: 3},
			},
		},
	)
	plan := mustCompile(t, reg, "Outer")

	in := Struct(U8(9), Some(Struct(U8(5), Some(U16(0x0102)))))
	data, err := plan.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{
		0x09,
		0x03, 0x00, 0x07, 0x00, // child entry header
		0x05,                               // n
		0x01, 0x00, 0x02, 0x00, 0x02, 0x01, // opt entry inside payload
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("Encode = % x, want % x", data, want)
	}

	out, err := plan.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip mismatch: %s != %s", out, in)
	}
}

func TestUnknownReferenceRejected(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, schema.TypeDescriptor{
		Name: "Orphan",
		Kind: schema.Struct,
		Fields: []schema.FieldDescriptor{
			{Name: "f", Type: schema.TypeRef{Named: "Missing"}},
		},
	})
	if _, err := reg.Compile("Orphan"); !errors.Is(err, schema.ErrUnknownType) {
		t.Fatalf("Compile err = %v, want ErrUnknownType", err)
	}
	if _, err := reg.Compile("Missing"); !errors.Is(err, schema.ErrUnknownType) {
		t.Fatalf("Compile(Missing) err = %v, want ErrUnknownType", err)
	}
}

func TestTagConflictRejected(t *testing.T) {
	testlog.Start(t)

	reg := NewRegistry()
	err := reg.Add(schema.TypeDescriptor{
		Name:    "Clash",
		Kind:    schema.Union,
		Options: schema.Options{ByValue: true},
		Variants: []schema.VariantDescriptor{
			{Name: "A", Value: 7},
			{Name: "B", Value: 2, Explicit: explicit(7)},
		},
	})
	var terr schema.TagConflictError
	if !errors.As(err, &terr) {
		t.Fatalf("Add err = %v, want TagConflictError", err)
	}
	if terr.VariantA != "A" || terr.VariantB != "B" || terr.Tag != 7 {
		t.Fatalf("conflict = %+v, want A/B tag 7", terr)
	}
}

func TestEncodeShapeMismatch(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, recordDescriptor(), schema.TypeDescriptor{
		Name:     "Mode",
		Kind:     schema.Union,
		Options:  schema.Options{ByOrder: true},
		Variants: []schema.VariantDescriptor{{Name: "Idle"}},
	})
	record := mustCompile(t, reg, "Record")
	mode := mustCompile(t, reg, "Mode")

	if _, err := record.Encode(Union("Idle")); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Encode(union as struct) err = %v, want ErrTypeMismatch", err)
	}
	if _, err := record.Encode(Struct(Bytes(nil))); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Encode(short arity) err = %v, want ErrTypeMismatch", err)
	}
	if _, err := record.Encode(Struct(U8(1), None())); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Encode(wrong field kind) err = %v, want ErrTypeMismatch", err)
	}
	if _, err := mode.Encode(Union("Sprint")); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("Encode(unknown variant) err = %v, want ErrUnknownVariant", err)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	testlog.Start(t)

	reg := buildRegistry(t, recordDescriptor(), feedDescriptor())
	if err := reg.Add(recordDescriptor()); !errors.Is(err, schema.ErrDuplicateType) {
		t.Fatalf("Add(dup) err = %v, want ErrDuplicateType", err)
	}
	if err := reg.CompileAll(); err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	first := mustCompile(t, reg, "Record")
	second := mustCompile(t, reg, "Record")
	if first != second {
		t.Fatalf("Compile returned distinct plans for one type")
	}
	names := reg.Types()
	if len(names) != 2 || names[0] != "Record" || names[1] != "Feed" {
		t.Fatalf("Types = %v, want [Record Feed]", names)
	}
}

func explicit(v uint64) *uint64 {
	return &v
}
