package ebml

import (
	"bytes"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/varanine/daqfile/format"
)

// appendElement frames a payload with the given id using minimal-width
// size encoding.
func appendElement(dst []byte, id uint32, payload []byte) []byte {
	dst = AppendID(dst, id)
	dst = AppendSize(dst, int64(len(payload)), SizeWidth(int64(len(payload))))

	return append(dst, payload...)
}

func uintPayload(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var out []byte
	for shift := 56; shift >= 0; shift -= 8 {
		b := byte(v >> shift)
		if len(out) == 0 && b == 0 {
			continue
		}
		out = append(out, b)
	}

	return out
}

func appendUintElement(dst []byte, id uint32, v uint64) []byte {
	return appendElement(dst, id, uintPayload(v))
}

// countingReaderAt counts underlying reads so tests can assert memoization.
type countingReaderAt struct {
	r     *bytes.Reader
	reads atomic.Int64
}

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.reads.Add(1)
	return c.r.ReadAt(p, off)
}

// buildHeaderDoc assembles a small recording: properties root, an unknown
// root, and one data block root.
func buildHeaderDoc(t *testing.T) []byte {
	t.Helper()

	var props []byte
	props = appendElement(props, IDRecorderName, []byte("Shock Recorder\x00"))
	props = appendUintElement(props, IDRecorderSerial, 1234)

	var block []byte
	block = appendUintElement(block, IDBlockChannelIDRef, 8)
	block = appendUintElement(block, IDBlockStartTimeCode, 60000)
	block = appendElement(block, IDBlockPayload, []byte{1, 2, 3, 4})

	var doc []byte
	doc = appendElement(doc, IDRecordingProperties, props)
	doc = appendElement(doc, 0x6EEE, []byte{0xDE, 0xAD}) // not in the schema
	doc = appendElement(doc, IDChannelDataBlock, block)

	return doc
}

func collectRoots(d *Document) []*Element {
	var roots []*Element
	for el := range d.Roots() {
		roots = append(roots, el)
	}

	return roots
}

func TestDocument_RootEnumeration(t *testing.T) {
	data := buildHeaderDoc(t)
	doc := NewDocument(sourceOf(data), RecordingSchema())

	roots := collectRoots(doc)
	require.Len(t, roots, 3)
	require.False(t, doc.Damaged())

	require.Equal(t, IDRecordingProperties, roots[0].ID())
	require.Equal(t, "RecordingProperties", roots[0].Name())
	require.Equal(t, uint32(0x6EEE), roots[1].ID())
	require.Equal(t, IDChannelDataBlock, roots[2].ID())

	// The forest tiles the file exactly.
	require.Equal(t, int64(0), roots[0].Offset())
	require.Equal(t, roots[0].Size(), roots[1].Offset())
	require.Equal(t, int64(len(data)), roots[2].Offset()+roots[2].Size())
}

func TestDocument_RootsRestartable(t *testing.T) {
	doc := NewDocument(sourceOf(buildHeaderDoc(t)), RecordingSchema())

	first := collectRoots(doc)
	second := collectRoots(doc)

	require.Len(t, second, len(first))
	for i := range first {
		require.True(t, first[i].Equal(second[i]))
	}
}

func TestDocument_LazyChildren(t *testing.T) {
	doc := NewDocument(sourceOf(buildHeaderDoc(t)), RecordingSchema())

	roots := collectRoots(doc)
	children, err := roots[0].Children()
	require.NoError(t, err)
	require.Len(t, children, 2)

	name, err := children[0].StringValue()
	require.NoError(t, err)
	require.Equal(t, "Shock Recorder", name)

	serial, err := children[1].Uint()
	require.NoError(t, err)
	require.Equal(t, uint64(1234), serial)
}

func TestDocument_ValueMemoized(t *testing.T) {
	data := buildHeaderDoc(t)
	counter := &countingReaderAt{r: bytes.NewReader(data)}
	doc := NewDocument(NewSource(counter, int64(len(data))), RecordingSchema())

	roots := collectRoots(doc)
	children, err := roots[0].Children()
	require.NoError(t, err)

	before := counter.reads.Load()
	v1, err := children[0].Value()
	require.NoError(t, err)
	afterFirst := counter.reads.Load()
	require.Greater(t, afterFirst, before)

	v2, err := children[0].Value()
	require.NoError(t, err)
	require.Equal(t, afterFirst, counter.reads.Load(), "second access must not re-read")
	require.Equal(t, v1, v2)

	// Child enumeration is memoized the same way.
	again, err := roots[0].Children()
	require.NoError(t, err)
	require.Equal(t, children, again)
}

func TestDocument_UnknownElementOpaque(t *testing.T) {
	doc := NewDocument(sourceOf(buildHeaderDoc(t)), RecordingSchema())

	roots := collectRoots(doc)
	unknown := roots[1]
	require.True(t, unknown.IsUnknown())
	require.False(t, unknown.IsContainer())
	require.Equal(t, format.TypeBinary, unknown.Type())
	require.Equal(t, "Unknown-0x6EEE", unknown.Name())

	v, err := unknown.Value()
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD}, v)
}

func TestDocument_ElementRoundTrip(t *testing.T) {
	data := buildHeaderDoc(t)
	doc := NewDocument(sourceOf(data), RecordingSchema())

	for el := range doc.Roots() {
		span := el.AppendHeader(nil)
		payload, err := el.Payload()
		require.NoError(t, err)
		span = append(span, payload...)

		require.Equal(t, data[el.Offset():el.Offset()+el.Size()], span)
	}
}

func TestDocument_TruncatedMidRoot(t *testing.T) {
	data := buildHeaderDoc(t)
	// Cut into the middle of the last root's payload.
	cut := data[:len(data)-3]

	doc := NewDocument(sourceOf(cut), RecordingSchema())
	roots := collectRoots(doc)

	// The two intact roots survive; the damaged one is dropped.
	require.Len(t, roots, 2)
	require.True(t, doc.Damaged())
	require.Error(t, doc.DamageCause())
}

func TestDocument_TruncatedChildStopsAtBoundary(t *testing.T) {
	// A container whose declared size covers its children, but whose last
	// child claims more payload than the container holds.
	var inner []byte
	inner = appendUintElement(inner, IDSensorID, 1)
	inner = AppendID(inner, IDSensorName)
	inner = AppendSize(inner, 200, SizeWidth(200)) // declared size overruns parent
	inner = append(inner, 'x')

	var doc []byte
	doc = appendElement(doc, IDSensorEntry, inner)

	d := NewDocument(sourceOf(doc), RecordingSchema())
	roots := collectRoots(d)
	require.Len(t, roots, 1)

	children, err := roots[0].Children()
	require.NoError(t, err, "truncation must not raise past the container boundary")
	require.Len(t, children, 1)
	require.Equal(t, IDSensorID, children[0].ID())
	require.True(t, roots[0].Truncated())
	require.True(t, d.Damaged())
}

func TestDocument_UnknownSizeConsumesToParentEnd(t *testing.T) {
	payload := []byte("stream tail")
	var data []byte
	data = AppendID(data, IDBlockPayload)
	data = AppendUnknownSize(data, 1)
	data = append(data, payload...)

	doc := NewDocument(sourceOf(data), RecordingSchema())
	roots := collectRoots(doc)
	require.Len(t, roots, 1)
	require.True(t, roots[0].UnknownSize())
	require.Equal(t, int64(len(payload)), roots[0].PayloadSize())

	v, err := roots[0].Value()
	require.NoError(t, err)
	require.Equal(t, payload, v)
}

func TestDocument_SourceMutationDetected(t *testing.T) {
	data := buildHeaderDoc(t)
	backing := append([]byte{}, data...)
	doc := NewDocument(sourceOf(backing), RecordingSchema())

	require.Len(t, collectRoots(doc), 3)

	// Mutate the stream under the document, then re-walk.
	backing[1] ^= 0xFF
	require.Empty(t, collectRoots(doc))
	require.True(t, doc.Damaged())
	require.ErrorIs(t, doc.DamageCause(), ErrSourceMutated)
}

func TestDocument_DateValue(t *testing.T) {
	when := Epoch.Add(48 * time.Hour)
	offset := uint64(when.Sub(Epoch).Nanoseconds())
	var payload [8]byte
	for i := 0; i < 8; i++ {
		payload[i] = byte(offset >> (56 - 8*i))
	}

	var data []byte
	data = appendElement(data, IDTimeBaseUTC, payload[:])

	doc := NewDocument(sourceOf(data), RecordingSchema())
	roots := collectRoots(doc)
	require.Len(t, roots, 1)

	v, err := roots[0].Value()
	require.NoError(t, err)
	require.Equal(t, when, v)
}
