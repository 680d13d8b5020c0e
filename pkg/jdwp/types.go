package jdwp

import (
	"fmt"
	"strings"
)

// ObjectID references an object instance in the target VM. The zero
// value denotes null.
type ObjectID uint64

// ThreadID references a running thread in the target VM. Thread ids
// are object ids and share their negotiated width.
type ThreadID uint64

// ReferenceTypeID references a class, interface or array type loaded
// in the target VM. The zero value denotes null.
type ReferenceTypeID uint64

// MethodID references a method of a reference type. Method ids are
// only unique within the type that declares them.
type MethodID uint64

// FieldID references a field of a reference type.
type FieldID uint64

// FrameID references a stack frame of a suspended thread.
type FrameID uint64

// EventRequestID identifies an event request installed in the VM.
type EventRequestID int32

// TypeTag distinguishes the kinds of reference types.
type TypeTag uint8

const (
	TagClass     TypeTag = 1
	TagInterface TypeTag = 2
	TagArray     TypeTag = 3
)

func (t TypeTag) String() string {
	switch t {
	case TagClass:
		return "class"
	case TagInterface:
		return "interface"
	case TagArray:
		return "array"
	}
	return fmt.Sprintf("TypeTag(%d)", uint8(t))
}

// ClassStatus is the bit set describing how far a class has
// progressed through loading.
type ClassStatus int32

const (
	StatusVerified    ClassStatus = 1
	StatusPrepared    ClassStatus = 2
	StatusInitialized ClassStatus = 4
	StatusError       ClassStatus = 8
)

func (s ClassStatus) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	if s&StatusVerified != 0 {
		parts = append(parts, "verified")
	}
	if s&StatusPrepared != 0 {
		parts = append(parts, "prepared")
	}
	if s&StatusInitialized != 0 {
		parts = append(parts, "initialized")
	}
	if s&StatusError != 0 {
		parts = append(parts, "error")
	}
	return strings.Join(parts, "|")
}

// EventKind identifies the kind of event an event request selects.
type EventKind uint8

const (
	SingleStep              EventKind = 1
	Breakpoint              EventKind = 2
	FramePop                EventKind = 3
	Exception               EventKind = 4
	UserDefined             EventKind = 5
	ThreadStart             EventKind = 6
	ThreadDeath             EventKind = 7
	ClassPrepare            EventKind = 8
	ClassUnload             EventKind = 9
	ClassLoad               EventKind = 10
	FieldAccess             EventKind = 20
	FieldModification       EventKind = 21
	ExceptionCatch          EventKind = 30
	MethodEntry             EventKind = 40
	MethodExit              EventKind = 41
	MethodExitWithReturn    EventKind = 42
	MonitorContendedEnter   EventKind = 43
	MonitorContendedEntered EventKind = 44
	MonitorWait             EventKind = 45
	MonitorWaited           EventKind = 46
	VMStart                 EventKind = 90
	VMDeath                 EventKind = 99
)

// SuspendPolicy selects which threads the VM suspends when an event
// fires.
type SuspendPolicy uint8

const (
	SuspendNone        SuspendPolicy = 0
	SuspendEventThread SuspendPolicy = 1
	SuspendAll         SuspendPolicy = 2
)

// ClassInfo describes a loaded reference type.
type ClassInfo struct {
	Kind      TypeTag
	TypeID    ReferenceTypeID
	Signature string
	Status    ClassStatus
}

// MethodInfo describes a method declared by a reference type.
type MethodInfo struct {
	ID        MethodID
	Name      string
	Signature string
	ModBits   int32
}

// Version describes the version of the target VM and of the JDWP
// protocol it speaks.
type Version struct {
	Description string
	JDWPMajor   int32
	JDWPMinor   int32
	Version     string
	Name        string
}
