package jdwp

import (
	"encoding/binary"
	"unicode/utf8"
)

const (
	headerSize = 11

	// maxPacketSize is the largest packet accepted from the VM. A
	// length beyond this is treated as stream corruption rather than a
	// genuine 10MiB+ reply.
	maxPacketSize = 10 * 1024 * 1024

	flagReply = 0x80
)

// commandBuilder assembles an outgoing command packet into a growable
// buffer. The length field is left zero until finalize back-patches
// it. All integers are emitted big-endian; the packet id is patched
// in by the session at enqueue time so that id order matches wire
// order.
type commandBuilder struct {
	buf   []byte
	sizes *IDSizes
}

func newCommandBuilder(sizes *IDSizes, set, cmd uint8) *commandBuilder {
	b := &commandBuilder{buf: make([]byte, 0, 64), sizes: sizes}
	b.appendUint32(0) // length, back-patched by finalize
	b.appendUint32(0) // id, patched at enqueue
	b.appendUint8(0)  // flags: command
	b.appendUint8(set)
	b.appendUint8(cmd)
	return b
}

func (b *commandBuilder) appendUint8(v uint8) *commandBuilder {
	b.buf = append(b.buf, v)
	return b
}

func (b *commandBuilder) appendBool(v bool) *commandBuilder {
	if v {
		return b.appendUint8(1)
	}
	return b.appendUint8(0)
}

func (b *commandBuilder) appendUint32(v uint32) *commandBuilder {
	b.buf = append(b.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	return b
}

func (b *commandBuilder) appendInt32(v int32) *commandBuilder {
	return b.appendUint32(uint32(v))
}

func (b *commandBuilder) appendUint64(v uint64) *commandBuilder {
	b.buf = append(b.buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	return b
}

func (b *commandBuilder) appendInt64(v int64) *commandBuilder {
	return b.appendUint64(uint64(v))
}

// appendString emits the length of the string in bytes (not runes)
// followed by the raw UTF-8 bytes, with no NUL terminator.
func (b *commandBuilder) appendString(s string) *commandBuilder {
	b.appendUint32(uint32(len(s)))
	b.buf = append(b.buf, s...)
	return b
}

// appendID emits an identifier at the negotiated width. Widths other
// than 4 and 8 violate the protocol contract.
func (b *commandBuilder) appendID(v uint64, size int32) *commandBuilder {
	switch size {
	case 4:
		return b.appendUint32(uint32(v))
	case 8:
		return b.appendUint64(v)
	}
	panic("jdwp: " + badIDSize(size))
}

func (b *commandBuilder) appendObjectID(id ObjectID) *commandBuilder {
	return b.appendID(uint64(id), b.sizes.mustObjectIDSize())
}

// Thread ids are object ids on the wire.
func (b *commandBuilder) appendThreadID(id ThreadID) *commandBuilder {
	return b.appendID(uint64(id), b.sizes.mustObjectIDSize())
}

func (b *commandBuilder) appendReferenceTypeID(id ReferenceTypeID) *commandBuilder {
	return b.appendID(uint64(id), b.sizes.mustReferenceTypeIDSize())
}

func (b *commandBuilder) appendMethodID(id MethodID) *commandBuilder {
	return b.appendID(uint64(id), b.sizes.mustMethodIDSize())
}

func (b *commandBuilder) appendFieldID(id FieldID) *commandBuilder {
	return b.appendID(uint64(id), b.sizes.mustFieldIDSize())
}

// finalize back-patches the length field and returns the wire bytes.
// The builder must not be used afterwards.
func (b *commandBuilder) finalize() []byte {
	binary.BigEndian.PutUint32(b.buf[0:4], uint32(len(b.buf)))
	return b.buf
}

// packetReader is a cursor over a received packet, header included.
// Every read is bounds checked; a short field fails with a protocol
// error and leaves the cursor where it was.
type packetReader struct {
	data  []byte
	off   int
	sizes *IDSizes
}

func newPacketReader(data []byte, sizes *IDSizes) *packetReader {
	return &packetReader{data: data, sizes: sizes}
}

var errInvalidPacket = &ProtocolError{Reason: "Invalid JDWP packet"}

func (r *packetReader) remaining() int { return len(r.data) - r.off }

func (r *packetReader) need(n int) error {
	if r.remaining() < n {
		return errInvalidPacket
	}
	return nil
}

func (r *packetReader) skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

func (r *packetReader) readUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

func (r *packetReader) readBool() (bool, error) {
	v, err := r.readUint8()
	return v != 0, err
}

func (r *packetReader) readUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

func (r *packetReader) readUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *packetReader) readInt32() (int32, error) {
	v, err := r.readUint32()
	return int32(v), err
}

func (r *packetReader) readUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

// readString reads a u32 byte-length prefixed UTF-8 string.
func (r *packetReader) readString() (string, error) {
	n, err := r.readUint32()
	if err != nil {
		return "", err
	}
	if r.remaining() < int(n) {
		r.off -= 4
		return "", errInvalidPacket
	}
	raw := r.data[r.off : r.off+int(n)]
	if !utf8.Valid(raw) {
		r.off -= 4
		return "", &ProtocolError{Reason: "invalid UTF-8 in string"}
	}
	r.off += int(n)
	return string(raw), nil
}

func (r *packetReader) readID(size int32) (uint64, error) {
	switch size {
	case 4:
		v, err := r.readUint32()
		return uint64(v), err
	case 8:
		return r.readUint64()
	}
	return 0, &ProtocolError{Reason: badIDSize(size)}
}

func (r *packetReader) readReferenceTypeID() (ReferenceTypeID, error) {
	size, err := r.sizes.referenceTypeIDSize()
	if err != nil {
		return 0, err
	}
	v, err := r.readID(size)
	return ReferenceTypeID(v), err
}

func (r *packetReader) readMethodID() (MethodID, error) {
	size, err := r.sizes.methodIDSize()
	if err != nil {
		return 0, err
	}
	v, err := r.readID(size)
	return MethodID(v), err
}

func (r *packetReader) readObjectID() (ObjectID, error) {
	size, err := r.sizes.objectIDSize()
	if err != nil {
		return 0, err
	}
	v, err := r.readID(size)
	return ObjectID(v), err
}
