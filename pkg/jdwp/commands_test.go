package jdwp

import (
	"bytes"
	"errors"
	"testing"
)

func TestGetClassBySignature(t *testing.T) {
	const sig = "Ljava/lang/String;"
	s := openTestSession(t, func(vm *fakeVM) {
		id, set, cmd, payload := vm.readPacket()
		if set != cmdSetVirtualMachine || cmd != cmdVMClassesBySignature {
			t.Errorf("expected ClassesBySignature, got set=%d cmd=%d", set, cmd)
		}
		if want := appendString(nil, sig); !bytes.Equal(payload, want) {
			t.Errorf("request payload % x, want % x", payload, want)
		}
		reply := appendInt32(nil, 1)
		reply = append(reply, uint8(TagClass))
		reply = appendUint64(reply, 0x42)
		reply = appendInt32(reply, int32(StatusVerified|StatusPrepared|StatusInitialized))
		vm.reply(id, 0, reply)
		vm.hold()
	})

	ci, err := s.GetClassBySignature(testContext(t), sig)
	if err != nil {
		t.Fatalf("GetClassBySignature: %v", err)
	}
	if ci.Kind != TagClass || ci.TypeID != 0x42 || ci.Signature != sig {
		t.Fatalf("unexpected class info %+v", ci)
	}
	if ci.Status != StatusVerified|StatusPrepared|StatusInitialized {
		t.Fatalf("unexpected status %v", ci.Status)
	}
}

func TestGetClassBySignatureNotFound(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		id, _, _, _ := vm.readPacket()
		vm.reply(id, 0, appendInt32(nil, 0))
		vm.hold()
	})

	_, err := s.GetClassBySignature(testContext(t), "Lcom/example/Missing;")
	var nferr *ClassNotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("expected ClassNotFoundError, got %v", err)
	}
}

func TestGetClassBySignatureAmbiguous(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		id, _, _, _ := vm.readPacket()
		reply := appendInt32(nil, 2)
		for i := 0; i < 2; i++ {
			reply = append(reply, uint8(TagClass))
			reply = appendUint64(reply, uint64(0x42+i))
			reply = appendInt32(reply, int32(StatusPrepared))
		}
		vm.reply(id, 0, reply)
		vm.hold()
	})

	_, err := s.GetClassBySignature(testContext(t), "Lcom/example/Dup;")
	var aerr *AmbiguousClassError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AmbiguousClassError, got %v", err)
	}
	if aerr.Count != 2 {
		t.Fatalf("expected 2 candidates, got %d", aerr.Count)
	}
}

func TestGetMethods(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		id, set, cmd, payload := vm.readPacket()
		if set != cmdSetReferenceType || cmd != cmdRefTypeMethods {
			t.Errorf("expected Methods, got set=%d cmd=%d", set, cmd)
		}
		if want := appendUint64(nil, 0x42); !bytes.Equal(payload, want) {
			t.Errorf("request payload % x, want % x", payload, want)
		}
		reply := appendInt32(nil, 2)
		reply = appendUint64(reply, 0x10)
		reply = appendString(reply, "<init>")
		reply = appendString(reply, "()V")
		reply = appendInt32(reply, 1)
		reply = appendUint64(reply, 0x11)
		reply = appendString(reply, "toString")
		reply = appendString(reply, "()Ljava/lang/String;")
		reply = appendInt32(reply, 1)
		vm.reply(id, 0, reply)
		vm.hold()
	})

	methods, err := s.GetMethods(testContext(t), 0x42)
	if err != nil {
		t.Fatalf("GetMethods: %v", err)
	}
	if len(methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(methods))
	}
	if methods[0].ID != 0x10 || methods[0].Name != "<init>" || methods[0].Signature != "()V" {
		t.Fatalf("unexpected first method %+v", methods[0])
	}
	if methods[1].ID != 0x11 || methods[1].Name != "toString" {
		t.Fatalf("unexpected second method %+v", methods[1])
	}
}

func TestSetEventRequest(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		id, set, cmd, payload := vm.readPacket()
		if set != cmdSetEventRequest || cmd != cmdEventReqSet {
			t.Errorf("expected EventRequest.Set, got set=%d cmd=%d", set, cmd)
		}
		want := []byte{uint8(Breakpoint), uint8(SuspendAll)}
		want = appendInt32(want, 2)
		want = append(want, modKindCount)
		want = appendInt32(want, 1)
		want = append(want, modKindLocationOnly, uint8(TagClass))
		want = appendUint64(want, 0x42)
		want = appendUint64(want, 0x10)
		want = appendUint64(want, 0)
		if !bytes.Equal(payload, want) {
			t.Errorf("request payload % x, want % x", payload, want)
		}
		vm.reply(id, 0, appendInt32(nil, 77))
		vm.hold()
	})

	id, err := s.SetEventRequest(testContext(t), Breakpoint, SuspendAll,
		CountModifier{Count: 1},
		LocationOnlyModifier{Kind: TagClass, Class: 0x42, Method: 0x10, Index: 0},
	)
	if err != nil {
		t.Fatalf("SetEventRequest: %v", err)
	}
	if id != 77 {
		t.Fatalf("expected request id 77, got %d", id)
	}
}

func TestClearEventRequest(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		id, set, cmd, payload := vm.readPacket()
		if set != cmdSetEventRequest || cmd != cmdEventReqClear {
			t.Errorf("expected EventRequest.Clear, got set=%d cmd=%d", set, cmd)
		}
		want := appendInt32([]byte{uint8(Breakpoint)}, 77)
		if !bytes.Equal(payload, want) {
			t.Errorf("request payload % x, want % x", payload, want)
		}
		vm.reply(id, 0, nil)
		vm.hold()
	})

	if err := s.ClearEventRequest(testContext(t), Breakpoint, 77); err != nil {
		t.Fatalf("ClearEventRequest: %v", err)
	}
}

func TestClearAllBreakpoints(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		id, set, cmd, payload := vm.readPacket()
		if set != cmdSetEventRequest || cmd != cmdEventReqClearAllBreakpoints {
			t.Errorf("expected ClearAllBreakpoints, got set=%d cmd=%d", set, cmd)
		}
		if len(payload) != 0 {
			t.Errorf("expected empty payload, got % x", payload)
		}
		vm.reply(id, 0, nil)
		vm.hold()
	})

	if err := s.ClearAllBreakpoints(testContext(t)); err != nil {
		t.Fatalf("ClearAllBreakpoints: %v", err)
	}
}

func TestGetVersion(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		id, set, cmd, _ := vm.readPacket()
		if set != cmdSetVirtualMachine || cmd != cmdVMVersion {
			t.Errorf("expected Version, got set=%d cmd=%d", set, cmd)
		}
		reply := appendString(nil, "OpenJDK 64-Bit Server VM")
		reply = appendInt32(reply, 1)
		reply = appendInt32(reply, 8)
		reply = appendString(reply, "17.0.2")
		reply = appendString(reply, "OpenJDK 64-Bit Server VM")
		vm.reply(id, 0, reply)
		vm.hold()
	})

	v, err := s.GetVersion(testContext(t))
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if v.JDWPMajor != 1 || v.JDWPMinor != 8 || v.Version != "17.0.2" {
		t.Fatalf("unexpected version %+v", v)
	}
}

func TestCreateString(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		id, set, cmd, payload := vm.readPacket()
		if set != cmdSetVirtualMachine || cmd != cmdVMCreateString {
			t.Errorf("expected CreateString, got set=%d cmd=%d", set, cmd)
		}
		if want := appendString(nil, "hello"); !bytes.Equal(payload, want) {
			t.Errorf("request payload % x, want % x", payload, want)
		}
		vm.reply(id, 0, appendUint64(nil, 0xbeef))
		vm.hold()
	})

	id, err := s.CreateString(testContext(t), "hello")
	if err != nil {
		t.Fatalf("CreateString: %v", err)
	}
	if id != 0xbeef {
		t.Fatalf("expected object id 0xbeef, got %#x", uint64(id))
	}
}

func TestSuspendResume(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		for _, want := range []uint8{cmdVMSuspend, cmdVMResume} {
			id, set, cmd, _ := vm.readPacket()
			if set != cmdSetVirtualMachine || cmd != want {
				t.Errorf("expected VM command %d, got set=%d cmd=%d", want, set, cmd)
			}
			vm.reply(id, 0, nil)
		}
		vm.hold()
	})

	if err := s.Suspend(testContext(t)); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if err := s.Resume(testContext(t)); err != nil {
		t.Fatalf("Resume: %v", err)
	}
}

func TestGetAllClasses(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		id, set, cmd, _ := vm.readPacket()
		if set != cmdSetVirtualMachine || cmd != cmdVMAllClasses {
			t.Errorf("expected AllClasses, got set=%d cmd=%d", set, cmd)
		}
		reply := appendInt32(nil, 1)
		reply = append(reply, uint8(TagInterface))
		reply = appendUint64(reply, 0x99)
		reply = appendString(reply, "Ljava/util/List;")
		reply = appendInt32(reply, int32(StatusPrepared))
		vm.reply(id, 0, reply)
		vm.hold()
	})

	classes, err := s.GetAllClasses(testContext(t))
	if err != nil {
		t.Fatalf("GetAllClasses: %v", err)
	}
	if len(classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(classes))
	}
	if classes[0].Kind != TagInterface || classes[0].Signature != "Ljava/util/List;" {
		t.Fatalf("unexpected class %+v", classes[0])
	}
}
