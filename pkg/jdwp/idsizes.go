package jdwp

import "fmt"

// IDSizes holds the byte widths of the five variably sized identifier
// types, negotiated once per connection through VirtualMachine.IDSizes.
// Until the negotiation completes the zero value reports itself as
// unknown and refuses all width lookups.
type IDSizes struct {
	FieldIDSize         int32
	MethodIDSize        int32
	ObjectIDSize        int32
	ReferenceTypeIDSize int32
	FrameIDSize         int32

	known bool
}

// NewIDSizes returns a negotiated IDSizes value.
func NewIDSizes(field, method, object, refType, frame int32) IDSizes {
	return IDSizes{
		FieldIDSize:         field,
		MethodIDSize:        method,
		ObjectIDSize:        object,
		ReferenceTypeIDSize: refType,
		FrameIDSize:         frame,
		known:               true,
	}
}

// Known reports whether the sizes have been negotiated.
func (s *IDSizes) Known() bool { return s.known }

// The checked accessors are used on the decode path, where running
// into unnegotiated sizes means the VM sent an ID-bearing packet
// before the IDSizes reply.

func (s *IDSizes) referenceTypeIDSize() (int32, error) {
	if !s.known {
		return 0, &ProtocolError{Reason: "ID sizes not negotiated"}
	}
	return s.ReferenceTypeIDSize, nil
}

func (s *IDSizes) methodIDSize() (int32, error) {
	if !s.known {
		return 0, &ProtocolError{Reason: "ID sizes not negotiated"}
	}
	return s.MethodIDSize, nil
}

func (s *IDSizes) objectIDSize() (int32, error) {
	if !s.known {
		return 0, &ProtocolError{Reason: "ID sizes not negotiated"}
	}
	return s.ObjectIDSize, nil
}

// The must accessors are used on the encode path, where building an
// ID-bearing command before negotiation is a bug in the caller.

func (s *IDSizes) mustSize(v int32) int32 {
	if !s.known {
		panic("jdwp: ID sizes used before negotiation")
	}
	return v
}

func (s *IDSizes) mustFieldIDSize() int32         { return s.mustSize(s.FieldIDSize) }
func (s *IDSizes) mustMethodIDSize() int32        { return s.mustSize(s.MethodIDSize) }
func (s *IDSizes) mustObjectIDSize() int32        { return s.mustSize(s.ObjectIDSize) }
func (s *IDSizes) mustReferenceTypeIDSize() int32 { return s.mustSize(s.ReferenceTypeIDSize) }
func (s *IDSizes) mustFrameIDSize() int32         { return s.mustSize(s.FrameIDSize) }

func badIDSize(size int32) string {
	return fmt.Sprintf("unsupported ID size %d", size)
}
