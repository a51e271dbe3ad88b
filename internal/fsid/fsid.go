// Package fsid provides the FileId abstraction: an opaque, hashable,
// structurally-equal identifier for a file, project-local or
// package-qualified, matching typst::syntax::FileId in the original
// phelps implementation.
package fsid

import (
	"fmt"
	"path"
	"strings"
)

// PackageSpec identifies a published package (namespace, name, version),
// the Go counterpart of typst::syntax::package::PackageSpec.
type PackageSpec struct {
	Namespace string
	Name      string
	Version   string
}

func (p PackageSpec) String() string {
	return fmt.Sprintf("@%s/%s:%s", p.Namespace, p.Name, p.Version)
}

// VirtualPath is a normalized, rooted, slash-separated path relative to a
// project root or an unpacked package directory.
type VirtualPath string

// WithinRoot normalizes an absolute filesystem path into a VirtualPath
// relative to root. It reports false if path does not lie under root.
func WithinRoot(absPath, root string) (VirtualPath, bool) {
	rel, err := relSlash(root, absPath)
	if err != nil {
		return "", false
	}
	if strings.HasPrefix(rel, "..") {
		return "", false
	}
	return VirtualPath("/" + rel), true
}

// Resolve turns the virtual path back into a real filesystem path rooted at
// root.
func (v VirtualPath) Resolve(root string) string {
	return path.Join(root, strings.TrimPrefix(string(v), "/"))
}

// FileID is a structurally comparable identifier: IsPackage false means a
// project-local file (Package is the zero PackageSpec and ignored),
// otherwise the file lives inside the named package's unpacked directory.
// Package is a value, not a pointer, so that FileID remains comparable by
// == and usable as a map key purely on field values — two FileIDs built
// from separately allocated but field-equal PackageSpecs must compare
// equal, matching spec.md §3's "equality and hashing are structural."
type FileID struct {
	Package   PackageSpec
	IsPackage bool
	VPath     VirtualPath
}

// New builds a FileID. pkg may be nil for a project-local file.
func New(pkg *PackageSpec, vpath VirtualPath) FileID {
	if pkg == nil {
		return FileID{VPath: vpath}
	}
	return FileID{Package: *pkg, IsPackage: true, VPath: vpath}
}

// IsProjectLocal reports whether the id has no package qualifier.
func (id FileID) IsProjectLocal() bool {
	return !id.IsPackage
}

func (id FileID) String() string {
	if !id.IsPackage {
		return string(id.VPath)
	}
	return fmt.Sprintf("%s%s", id.Package, id.VPath)
}

// Fingerprint is a 128-bit content fingerprint built from two independently
// seeded 64-bit hashes (see internal/world), the Go stand-in for
// typst::utils::hash128, which Rust builds from a single 128-bit hasher that
// Go's ecosystem has no direct equivalent for.
type Fingerprint struct {
	Hi uint64
	Lo uint64
}
