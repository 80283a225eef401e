package protocol

import (
	"strings"
	"testing"

	"github.com/encodeous/strand/state"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	a = state.MustParseNodeAddr("127.0.0.1")
	b = state.MustParseNodeAddr("127.0.0.2")
	c = state.MustParseNodeAddr("10.20.30.40")
)

func TestEncodeUpdate_Layout(t *testing.T) {
	pkt, err := EncodeUpdate([]state.Route{
		{Dest: b, RouteEntry: state.RouteEntry{Cost: 1, Nh: b}},
		{Dest: c, RouteEntry: state.RouteEntry{Cost: 255, Nh: b}},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00,
		127, 0, 0, 2, 1,
		10, 20, 30, 40, 255,
	}, pkt)
}

func TestEncodeUpdate_Empty(t *testing.T) {
	pkt, err := EncodeUpdate(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, pkt)

	update, err := DecodeUpdate(pkt)
	require.NoError(t, err)
	assert.Empty(t, update.Records)
}

func TestEncodeUpdate_CostOverflow(t *testing.T) {
	_, err := EncodeUpdate([]state.Route{
		{Dest: b, RouteEntry: state.RouteEntry{Cost: 1, Nh: b}},
		{Dest: c, RouteEntry: state.RouteEntry{Cost: 256, Nh: b}},
	})
	assert.ErrorIs(t, err, ErrCostOverflow)
	assert.ErrorContains(t, err, "10.20.30.40 has cost 256")
}

func TestUpdateRoundTrip(t *testing.T) {
	rs := state.NewRouterState(a)
	for i := range 40 {
		rs.Routes[state.NodeAddr{10, 0, byte(i), 1}] = state.RouteEntry{Cost: uint32(i * 6), Nh: b}
	}
	pkt, err := EncodeUpdate(rs.Snapshot())
	require.NoError(t, err)
	assert.Len(t, pkt, 1+40*UpdateRecordLen)

	update, err := DecodeUpdate(pkt)
	require.NoError(t, err)

	expected := make([]UpdateRecord, 0)
	for dest, entry := range rs.Routes {
		expected = append(expected, UpdateRecord{Dest: dest, Cost: uint8(entry.Cost)})
	}
	sortRecords := cmpopts.SortSlices(func(x, y UpdateRecord) bool {
		return x.Dest.Compare(y.Dest) < 0
	})
	if diff := cmp.Diff(expected, update.Records, sortRecords); diff != "" {
		t.Errorf("decoded records mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeUpdate_BadLength(t *testing.T) {
	for _, pkt := range [][]byte{
		{0x00, 1},
		{0x00, 127, 0, 0, 1},
		{0x00, 127, 0, 0, 1, 1, 2},
	} {
		_, err := DecodeUpdate(pkt)
		assert.ErrorIs(t, err, ErrMalformed)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, byte(0), de.Tag)
	}
}

func TestHelloRoundTrip(t *testing.T) {
	hello := &Hello{Src: a, Dst: c, Text: "Xenial Xerus ✓"}
	pkt, err := EncodeHello(hello)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 127, 0, 0, 1, 10, 20, 30, 40}, pkt[:HelloHeaderLen])
	assert.Equal(t, "Xenial Xerus ✓", string(pkt[HelloHeaderLen:]))

	decoded, err := DecodeHello(pkt)
	require.NoError(t, err)
	assert.Equal(t, hello, decoded)
}

func TestHello_EmptyText(t *testing.T) {
	pkt, err := EncodeHello(&Hello{Src: a, Dst: b})
	require.NoError(t, err)
	assert.Len(t, pkt, HelloHeaderLen)
	decoded, err := DecodeHello(pkt)
	require.NoError(t, err)
	assert.Equal(t, "", decoded.Text)
}

func TestDecodeHello_Malformed(t *testing.T) {
	_, err := DecodeHello([]byte{0x01, 127, 0, 0})
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorContains(t, err, "header needs 9")

	_, err = DecodeHello([]byte{0x00, 127, 0, 0, 1, 127, 0, 0, 2})
	assert.ErrorContains(t, err, "expected HELLO tag")

	// invalid utf-8 is reported, not replaced
	_, err = DecodeHello([]byte{0x01, 127, 0, 0, 1, 127, 0, 0, 2, 0xff, 0xfe})
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorContains(t, err, "utf-8")

	_, err = EncodeHello(&Hello{Src: a, Dst: b, Text: string([]byte{0xc3})})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_Dispatch(t *testing.T) {
	msg, err := Decode([]byte{0x00, 127, 0, 0, 2, 3})
	require.NoError(t, err)
	require.IsType(t, &Update{}, msg)
	assert.Equal(t, TypeUpdate, msg.Type())
	assert.Equal(t, []UpdateRecord{{Dest: b, Cost: 3}}, msg.(*Update).Records)

	pkt, err := EncodeHello(&Hello{Src: a, Dst: b, Text: strings.Repeat("x", 100)})
	require.NoError(t, err)
	msg, err = Decode(pkt)
	require.NoError(t, err)
	require.IsType(t, &Hello{}, msg)
	assert.Equal(t, TypeHello, msg.Type())
}

func TestDecode_UnknownTag(t *testing.T) {
	_, err := Decode([]byte{0x02, 1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformed)
	assert.EqualError(t, err, "malformed datagram: UNKNOWN(2): unknown message type")

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}
