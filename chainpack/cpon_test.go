package chainpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCponEncode(t *testing.T) {
	assert.Equal(t, "null", ToCpon(NewNull()))
	assert.Equal(t, "null", ToCpon(RpcValue{}))
	assert.Equal(t, "true", ToCpon(NewBool(true)))
	assert.Equal(t, "-42", ToCpon(NewInt(-42)))
	assert.Equal(t, "42u", ToCpon(NewUInt(42)))
	assert.Equal(t, `"a\tb\nc"`, ToCpon(NewString("a\tb\nc")))
	assert.Equal(t, `d"1970-01-01T00:16:40.000Z"`, ToCpon(NewDateTime(FromMSecs(1_000_000))))
	assert.Equal(t, `[1,"two"]`, ToCpon(NewList(List{NewInt(1), NewString("two")})))
	assert.Equal(t, `{"a":1,"b":true}`, ToCpon(NewMap(Map{
		"b": NewBool(true),
		"a": NewInt(1),
	})))
	assert.Equal(t, `i{1:"a",2:"b"}`, ToCpon(NewIMap(IMap{
		2: NewString("b"),
		1: NewString("a"),
	})))
}

func TestCponRoundTrip(t *testing.T) {
	values := []RpcValue{
		NewNull(),
		NewBool(false),
		NewInt(-1234567890123),
		NewUInt(18446744073709551615),
		NewDouble(3.25),
		NewString(`tricky "quoted" \ and	tabbed`),
		NewString("čajník ☕"),
		NewDateTime(FromMSecs(1_579_093_662_123)),
		NewList(List{
			NewInt(1),
			NewMap(Map{"nested": NewList(List{NewNull(), NewBool(true)})}),
		}),
		NewIMap(IMap{7: NewString("seven")}),
	}
	for _, v := range values {
		s := ToCpon(v)
		got, err := FromCpon(s)
		assert.Nil(t, err, "decoding %s", s)
		assert.Equal(t, v, got, "round trip of %s", s)
	}
}

func TestCponEscapedStringsHoldNoSeparators(t *testing.T) {
	s := ToCpon(NewString("line1\nline2\tcol"))
	assert.NotContains(t, s, "\n")
	assert.NotContains(t, s, "\t")
}

func TestCponDecodeErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"nope",
		`"unterminated`,
		"[1,2",
		`{"a":}`,
		"1 trailing",
		`d"not-a-date"`,
	} {
		_, err := FromCpon(in)
		assert.NotNil(t, err, "input %q must not decode", in)
	}
}
