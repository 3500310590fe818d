// Package docroot resolves request targets to files confined to the
// document root. It is the security boundary of the server: nothing outside
// the root may ever be opened, regardless of how the request path is
// crafted.
package docroot

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound covers a missing file, a non-regular file, and a
	// directory without the default document.
	ErrNotFound = errors.New("file not found under document root")
	// ErrTraversal marks an attempt to escape the root, via ".." segments
	// or a symlink pointing outside it.
	ErrTraversal = errors.New("path escapes document root")
	// ErrBadPath marks an undecodable target (bad percent-escape, NUL).
	ErrBadPath = errors.New("unresolvable request path")
)

// Outcome is the logged classification of a resolution. The wire response
// for every non-OK outcome is 404; outcomes exist so the access log can
// tell a probe from a missing page.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeTraversal Outcome = "traversal"
	OutcomeBadPath   Outcome = "bad_path"
)

// Classify maps a Resolve error to its log outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrTraversal):
		return OutcomeTraversal
	case errors.Is(err, ErrBadPath):
		return OutcomeBadPath
	default:
		return OutcomeNotFound
	}
}

// Resolved is a filesystem path proven to live under the document root.
type Resolved struct {
	Path string
	Size int64
}

// Resolver turns URL paths into Resolved paths. Immutable after New; safe
// for concurrent use.
type Resolver struct {
	root       string // canonical absolute path, no trailing separator
	defaultDoc string // served for directory targets, e.g. "index.html"
}

// New canonicalizes root (absolute, symlinks resolved) and verifies it is an
// existing directory. All later containment checks compare against this
// canonical form, so a root that is itself a symlink behaves correctly.
func New(root, defaultDoc string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(canon)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("document root is not a directory: " + root)
	}
	if defaultDoc == "" || strings.ContainsRune(defaultDoc, '/') {
		return nil, errors.New("invalid default document name: " + defaultDoc)
	}
	return &Resolver{root: canon, defaultDoc: defaultDoc}, nil
}

// Root returns the canonical document root.
func (r *Resolver) Root() string { return r.root }

// Resolve maps a request target to a regular file under the root.
//
// The target is percent-decoded, checked lexically for escape attempts,
// joined onto the root, canonicalized (symlinks resolved), and the result is
// verified to be a descendant of the canonical root. String matching on ".."
// alone is not trusted: the containment check runs on the canonical path, so
// encoded sequences and symlinks are neutralized too.
func (r *Resolver) Resolve(target string) (Resolved, error) {
	rel, err := decodeTarget(target)
	if err != nil {
		return Resolved{}, err
	}

	// Lexical escape check: walking the segments must never leave the
	// root. This catches plain "../" probes before any filesystem access.
	if escapesRoot(rel) {
		return Resolved{}, ErrTraversal
	}

	full := filepath.Join(r.root, filepath.FromSlash(rel))
	return r.verify(full)
}

// verify canonicalizes full and checks containment plus file type,
// descending into the default document for directories.
func (r *Resolver) verify(full string) (Resolved, error) {
	canon, err := filepath.EvalSymlinks(full)
	if err != nil {
		// Missing file, dangling symlink, permission failure: all 404.
		return Resolved{}, ErrNotFound
	}
	if !r.contains(canon) {
		return Resolved{}, ErrTraversal
	}

	info, err := os.Stat(canon)
	if err != nil {
		return Resolved{}, ErrNotFound
	}
	if info.IsDir() {
		if filepath.Base(canon) == r.defaultDoc {
			// index.html resolving to a directory; do not recurse.
			return Resolved{}, ErrNotFound
		}
		return r.verify(filepath.Join(canon, r.defaultDoc))
	}
	if !info.Mode().IsRegular() {
		return Resolved{}, ErrNotFound
	}
	return Resolved{Path: canon, Size: info.Size()}, nil
}

func (r *Resolver) contains(path string) bool {
	return path == r.root || strings.HasPrefix(path, r.root+string(filepath.Separator))
}

// decodeTarget strips the query/fragment, percent-decodes the path, and
// rejects NUL bytes and invalid escapes.
func decodeTarget(target string) (string, error) {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	decoded, err := url.PathUnescape(target)
	if err != nil {
		return "", ErrBadPath
	}
	if strings.ContainsRune(decoded, 0) {
		return "", ErrBadPath
	}
	return strings.TrimPrefix(decoded, "/"), nil
}

// escapesRoot reports whether the relative slash-separated path ever steps
// above its starting directory.
func escapesRoot(rel string) bool {
	depth := 0
	for _, seg := range strings.Split(rel, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return true
			}
		default:
			depth++
		}
	}
	return false
}
