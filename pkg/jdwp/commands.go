package jdwp

import "context"

// Command set namespaces and the commands used by this client.
const (
	cmdSetVirtualMachine = 1
	cmdSetReferenceType  = 2
	cmdSetEventRequest   = 15
)

const (
	cmdVMVersion            = 1
	cmdVMClassesBySignature = 2
	cmdVMAllClasses         = 3
	cmdVMIDSizes            = 7
	cmdVMSuspend            = 8
	cmdVMResume             = 9
	cmdVMCreateString       = 11
)

const (
	cmdRefTypeMethods = 5
)

const (
	cmdEventReqSet                 = 1
	cmdEventReqClear               = 2
	cmdEventReqClearAllBreakpoints = 3
)

// GetVersion returns the version of the target VM and the JDWP
// protocol version it speaks.
func (s *Session) GetVersion(ctx context.Context) (Version, error) {
	r, err := s.execute(ctx, s.newCommand(cmdSetVirtualMachine, cmdVMVersion))
	if err != nil {
		return Version{}, err
	}
	var v Version
	if v.Description, err = r.readString(); err != nil {
		return Version{}, err
	}
	if v.JDWPMajor, err = r.readInt32(); err != nil {
		return Version{}, err
	}
	if v.JDWPMinor, err = r.readInt32(); err != nil {
		return Version{}, err
	}
	if v.Version, err = r.readString(); err != nil {
		return Version{}, err
	}
	if v.Name, err = r.readString(); err != nil {
		return Version{}, err
	}
	return v, nil
}

// GetClassesBySignature returns all loaded reference types matching
// the JVM signature (for example "Ljava/lang/String;"). Multiple
// matches occur when the class is loaded by more than one class
// loader.
func (s *Session) GetClassesBySignature(ctx context.Context, signature string) ([]ClassInfo, error) {
	b := s.newCommand(cmdSetVirtualMachine, cmdVMClassesBySignature)
	b.appendString(signature)
	r, err := s.execute(ctx, b)
	if err != nil {
		return nil, err
	}
	n, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	classes := make([]ClassInfo, 0, n)
	for i := int32(0); i < n; i++ {
		var ci ClassInfo
		tag, err := r.readUint8()
		if err != nil {
			return nil, err
		}
		ci.Kind = TypeTag(tag)
		if ci.TypeID, err = r.readReferenceTypeID(); err != nil {
			return nil, err
		}
		status, err := r.readInt32()
		if err != nil {
			return nil, err
		}
		ci.Status = ClassStatus(status)
		ci.Signature = signature
		classes = append(classes, ci)
	}
	return classes, nil
}

// GetClassBySignature is GetClassesBySignature with an exactly-one
// policy: zero matches fail with ClassNotFoundError, more than one
// with AmbiguousClassError.
func (s *Session) GetClassBySignature(ctx context.Context, signature string) (ClassInfo, error) {
	classes, err := s.GetClassesBySignature(ctx, signature)
	if err != nil {
		return ClassInfo{}, err
	}
	switch len(classes) {
	case 0:
		return ClassInfo{}, &ClassNotFoundError{Signature: signature}
	case 1:
		return classes[0], nil
	}
	return ClassInfo{}, &AmbiguousClassError{Signature: signature, Count: len(classes)}
}

// GetAllClasses returns every reference type currently loaded in the
// target VM.
func (s *Session) GetAllClasses(ctx context.Context) ([]ClassInfo, error) {
	r, err := s.execute(ctx, s.newCommand(cmdSetVirtualMachine, cmdVMAllClasses))
	if err != nil {
		return nil, err
	}
	n, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	classes := make([]ClassInfo, 0, n)
	for i := int32(0); i < n; i++ {
		var ci ClassInfo
		tag, err := r.readUint8()
		if err != nil {
			return nil, err
		}
		ci.Kind = TypeTag(tag)
		if ci.TypeID, err = r.readReferenceTypeID(); err != nil {
			return nil, err
		}
		if ci.Signature, err = r.readString(); err != nil {
			return nil, err
		}
		status, err := r.readInt32()
		if err != nil {
			return nil, err
		}
		ci.Status = ClassStatus(status)
		classes = append(classes, ci)
	}
	return classes, nil
}

// GetMethods returns the methods declared directly by a reference
// type, inherited methods excluded.
func (s *Session) GetMethods(ctx context.Context, refType ReferenceTypeID) ([]MethodInfo, error) {
	b := s.newCommand(cmdSetReferenceType, cmdRefTypeMethods)
	b.appendReferenceTypeID(refType)
	r, err := s.execute(ctx, b)
	if err != nil {
		return nil, err
	}
	n, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	methods := make([]MethodInfo, 0, n)
	for i := int32(0); i < n; i++ {
		var mi MethodInfo
		if mi.ID, err = r.readMethodID(); err != nil {
			return nil, err
		}
		if mi.Name, err = r.readString(); err != nil {
			return nil, err
		}
		if mi.Signature, err = r.readString(); err != nil {
			return nil, err
		}
		if mi.ModBits, err = r.readInt32(); err != nil {
			return nil, err
		}
		methods = append(methods, mi)
	}
	return methods, nil
}

// SetEventRequest installs an event request in the VM and returns its
// id. The VM applies the modifiers in order as successive filters.
func (s *Session) SetEventRequest(ctx context.Context, kind EventKind, policy SuspendPolicy, modifiers ...EventModifier) (EventRequestID, error) {
	b := s.newCommand(cmdSetEventRequest, cmdEventReqSet)
	b.appendUint8(uint8(kind))
	b.appendUint8(uint8(policy))
	b.appendInt32(int32(len(modifiers)))
	for _, m := range modifiers {
		m.appendTo(b)
	}
	r, err := s.execute(ctx, b)
	if err != nil {
		return 0, err
	}
	id, err := r.readInt32()
	if err != nil {
		return 0, err
	}
	return EventRequestID(id), nil
}

// ClearEventRequest removes a previously installed event request.
// The kind must match the kind the request was installed with.
func (s *Session) ClearEventRequest(ctx context.Context, kind EventKind, id EventRequestID) error {
	b := s.newCommand(cmdSetEventRequest, cmdEventReqClear)
	b.appendUint8(uint8(kind))
	b.appendInt32(int32(id))
	_, err := s.execute(ctx, b)
	return err
}

// ClearAllBreakpoints removes all breakpoint event requests from the
// VM, including those installed by other debuggers.
func (s *Session) ClearAllBreakpoints(ctx context.Context) error {
	_, err := s.execute(ctx, s.newCommand(cmdSetEventRequest, cmdEventReqClearAllBreakpoints))
	return err
}

// Suspend suspends all threads in the target VM.
func (s *Session) Suspend(ctx context.Context) error {
	_, err := s.execute(ctx, s.newCommand(cmdSetVirtualMachine, cmdVMSuspend))
	return err
}

// Resume resumes all threads in the target VM.
func (s *Session) Resume(ctx context.Context) error {
	_, err := s.execute(ctx, s.newCommand(cmdSetVirtualMachine, cmdVMResume))
	return err
}

// CreateString creates a java.lang.String in the target VM and
// returns its object id.
func (s *Session) CreateString(ctx context.Context, str string) (ObjectID, error) {
	b := s.newCommand(cmdSetVirtualMachine, cmdVMCreateString)
	b.appendString(str)
	r, err := s.execute(ctx, b)
	if err != nil {
		return 0, err
	}
	return r.readObjectID()
}
