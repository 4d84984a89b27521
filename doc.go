// Package swift provides an OpenStack Swift implementation of the core.FS
// interface.
//
// Swift is a flat object store: it has no native directories, no atomic
// rename, and containers are addressed by opaque object names. This package
// emulates a hierarchical filesystem on top of that model. Directories are a
// convention (a zero-length marker object whose name ends in "/", plus the
// shared prefix of any child objects), rename is a non-atomic
// copy-then-delete sequence, and large writes are split into part objects
// that the store concatenates through a manifest header.
//
// The package is split into two layers. The Store type is the translation
// core: it turns filesystem operations (stat, list, rename, upload) into
// sequences of object-store requests and synthesizes filesystem metadata
// from raw response headers. SwiftFS wraps a Store to present the core.FS
// surface. Both issue requests through a Transport, which owns
// authentication, connection handling, and retries; a resty-backed
// implementation is provided by NewRestTransport.
package swift
