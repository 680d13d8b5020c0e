package jdwp

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
)

const resolverCacheSize = 128

// Resolver memoizes class and method lookups for a single session.
// Method tables are immutable for the lifetime of a reference type,
// so repeated lookups (prompt completion, repeated breakpoint
// commands) can be served without another VM round trip. The cache
// dies with the session.
type Resolver struct {
	s       *Session
	classes *lru.Cache // signature -> []ClassInfo
	methods *lru.Cache // ReferenceTypeID -> []MethodInfo
}

// NewResolver returns a resolver backed by s.
func NewResolver(s *Session) *Resolver {
	classes, _ := lru.New(resolverCacheSize)
	methods, _ := lru.New(resolverCacheSize)
	return &Resolver{s: s, classes: classes, methods: methods}
}

// Session returns the underlying session.
func (r *Resolver) Session() *Session { return r.s }

// ClassesBySignature is Session.GetClassesBySignature with caching.
func (r *Resolver) ClassesBySignature(ctx context.Context, signature string) ([]ClassInfo, error) {
	if v, ok := r.classes.Get(signature); ok {
		return v.([]ClassInfo), nil
	}
	classes, err := r.s.GetClassesBySignature(ctx, signature)
	if err != nil {
		return nil, err
	}
	r.classes.Add(signature, classes)
	return classes, nil
}

// ClassBySignature applies the exactly-one policy on top of the
// cached lookup.
func (r *Resolver) ClassBySignature(ctx context.Context, signature string) (ClassInfo, error) {
	classes, err := r.ClassesBySignature(ctx, signature)
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

// Methods is Session.GetMethods with caching.
func (r *Resolver) Methods(ctx context.Context, refType ReferenceTypeID) ([]MethodInfo, error) {
	if v, ok := r.methods.Get(refType); ok {
		return v.([]MethodInfo), nil
	}
	methods, err := r.s.GetMethods(ctx, refType)
	if err != nil {
		return nil, err
	}
	r.methods.Add(refType, methods)
	return methods, nil
}

// MethodByName resolves a method of the class with the given
// signature. An empty methodSig matches any overload; with several
// overloads and no methodSig the first declared one wins.
func (r *Resolver) MethodByName(ctx context.Context, classSig, name, methodSig string) (ClassInfo, MethodInfo, error) {
	class, err := r.ClassBySignature(ctx, classSig)
	if err != nil {
		return ClassInfo{}, MethodInfo{}, err
	}
	methods, err := r.Methods(ctx, class.TypeID)
	if err != nil {
		return ClassInfo{}, MethodInfo{}, err
	}
	for _, m := range methods {
		if m.Name != name {
			continue
		}
		if methodSig == "" || m.Signature == methodSig {
			return class, m, nil
		}
	}
	return ClassInfo{}, MethodInfo{}, &MethodNotFoundError{Class: classSig, Name: name}
}
