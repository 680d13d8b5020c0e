package jdwp

import (
	"sync/atomic"
	"testing"
)

func TestResolverCachesMethods(t *testing.T) {
	var served int32
	s := openTestSession(t, func(vm *fakeVM) {
		for {
			id, set, cmd, _ := vm.readPacket()
			if set != cmdSetReferenceType || cmd != cmdRefTypeMethods {
				return
			}
			atomic.AddInt32(&served, 1)
			reply := appendInt32(nil, 1)
			reply = appendUint64(reply, 0x10)
			reply = appendString(reply, "main")
			reply = appendString(reply, "([Ljava/lang/String;)V")
			reply = appendInt32(reply, 9)
			vm.reply(id, 0, reply)
		}
	})

	r := NewResolver(s)
	for i := 0; i < 3; i++ {
		methods, err := r.Methods(testContext(t), 0x42)
		if err != nil {
			t.Fatalf("Methods: %v", err)
		}
		if len(methods) != 1 || methods[0].Name != "main" {
			t.Fatalf("unexpected methods %+v", methods)
		}
	}
	if n := atomic.LoadInt32(&served); n != 1 {
		t.Fatalf("expected 1 Methods round trip for 3 lookups, got %d", n)
	}

	// distinct reference types are separate cache entries
	if _, err := r.Methods(testContext(t), 0x43); err != nil {
		t.Fatalf("Methods: %v", err)
	}
	if n := atomic.LoadInt32(&served); n != 2 {
		t.Fatalf("expected a second round trip for another type, got %d", n)
	}
}

func TestResolverMethodByName(t *testing.T) {
	const sig = "Lcom/example/Main;"
	s := openTestSession(t, func(vm *fakeVM) {
		id, _, _, _ := vm.readPacket() // ClassesBySignature
		reply := appendInt32(nil, 1)
		reply = append(reply, uint8(TagClass))
		reply = appendUint64(reply, 0x42)
		reply = appendInt32(reply, int32(StatusPrepared))
		vm.reply(id, 0, reply)

		id, _, _, _ = vm.readPacket() // Methods
		reply = appendInt32(nil, 2)
		reply = appendUint64(reply, 0x10)
		reply = appendString(reply, "run")
		reply = appendString(reply, "()V")
		reply = appendInt32(reply, 1)
		reply = appendUint64(reply, 0x11)
		reply = appendString(reply, "run")
		reply = appendString(reply, "(I)V")
		reply = appendInt32(reply, 1)
		vm.reply(id, 0, reply)
		vm.hold()
	})

	r := NewResolver(s)
	class, method, err := r.MethodByName(testContext(t), sig, "run", "(I)V")
	if err != nil {
		t.Fatalf("MethodByName: %v", err)
	}
	if class.TypeID != 0x42 || method.ID != 0x11 {
		t.Fatalf("unexpected resolution %+v %+v", class, method)
	}

	// served from cache, picks the first overload
	_, method, err = r.MethodByName(testContext(t), sig, "run", "")
	if err != nil {
		t.Fatalf("MethodByName: %v", err)
	}
	if method.ID != 0x10 {
		t.Fatalf("expected first overload, got %+v", method)
	}

	if _, _, err = r.MethodByName(testContext(t), sig, "missing", ""); err == nil {
		t.Fatal("expected error for missing method")
	}
}

func TestResolverCountsRoundTrips(t *testing.T) {
	s := openTestSession(t, func(vm *fakeVM) {
		vm.serveMethods()
		vm.hold()
	})

	r := NewResolver(s)
	if _, err := r.Methods(testContext(t), 0x42); err != nil {
		t.Fatalf("Methods: %v", err)
	}
	// second lookup must not hit the VM: the fake only serves one
	if _, err := r.Methods(testContext(t), 0x42); err != nil {
		t.Fatalf("cached Methods: %v", err)
	}
}
