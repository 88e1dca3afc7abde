package repo

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// SourceKind says how a repository was named.
type SourceKind int

const (
	// SourceName is a bare repository name owned by the configured user.
	SourceName SourceKind = iota
	// SourcePath is owner/name (or a deeper group path) on the configured host.
	SourcePath
	// SourceURL is a full clone URL.
	SourceURL
)

func (k SourceKind) String() string {
	switch k {
	case SourceName:
		return "name"
	case SourcePath:
		return "path"
	case SourceURL:
		return "url"
	default:
		return "unknown"
	}
}

// Source is a parsed repository argument.
type Source struct {
	Kind SourceKind

	// Raw is the argument as given.
	Raw string

	// Host and Path are set for SourceURL. Path has no leading slash and no
	// .git suffix.
	Host string
	Path string
}

// scpLike matches git's scp-style remote syntax: [user@]host:path.
var scpLike = regexp.MustCompile(`^(?:[A-Za-z0-9._~-]+@)?([A-Za-z0-9.-]+):(.+)$`)

// ParseSource parses a repository argument: "name", "owner/name", an
// https/ssh/git URL, or an scp-style "git@host:owner/name.git".
// Absolute paths and ".." segments are rejected.
func ParseSource(s string) (Source, error) {
	invalid := fmt.Errorf("invalid repo: %s", s)

	if s == "" {
		return Source{}, invalid
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || u.Hostname() == "" {
			return Source{}, invalid
		}
		p, ok := cleanRemotePath(u.Path)
		if !ok {
			return Source{}, invalid
		}
		return Source{Kind: SourceURL, Raw: s, Host: u.Hostname(), Path: p}, nil
	}

	if m := scpLike.FindStringSubmatch(s); m != nil && !strings.Contains(strings.SplitN(s, ":", 2)[0], "/") {
		p, ok := cleanRemotePath(m[2])
		if !ok {
			return Source{}, invalid
		}
		return Source{Kind: SourceURL, Raw: s, Host: m[1], Path: p}, nil
	}

	if strings.HasPrefix(s, "/") || !normalSegments(s) {
		return Source{}, invalid
	}
	if strings.Contains(s, "/") {
		return Source{Kind: SourcePath, Raw: s}, nil
	}
	return Source{Kind: SourceName, Raw: s}, nil
}

// cleanRemotePath strips the leading slash and a trailing .git and checks
// that what remains is a plain relative path.
func cleanRemotePath(p string) (string, bool) {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	p = strings.TrimSuffix(p, ".git")
	if p == "" || !normalSegments(p) {
		return "", false
	}
	return p, true
}

// normalSegments reports whether every slash-separated segment of p is a
// plain name.
func normalSegments(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".", "..":
			return false
		}
	}
	return true
}

// Resolve returns the clone URL and destination directory for s.
//
//	name        git@host:user/name.git  root/host/user/name
//	owner/name  git@host:owner/name.git root/host/owner/name
//	URL         as given                root/urlhost/urlpath
func (s Source) Resolve(root, host, user string) (cloneURL, dir string) {
	switch s.Kind {
	case SourceName:
		return fmt.Sprintf("git@%s:%s/%s.git", host, user, s.Raw),
			filepath.Join(root, host, user, s.Raw)
	case SourcePath:
		return fmt.Sprintf("git@%s:%s.git", host, s.Raw),
			filepath.Join(root, host, filepath.FromSlash(s.Raw))
	default:
		return s.Raw, filepath.Join(root, s.Host, filepath.FromSlash(s.Path))
	}
}

// Remote is the host and repository path of a git remote URL.
type Remote struct {
	Host string
	Path string
}

// Owner returns the first element of the repository path.
func (r Remote) Owner() string {
	owner, _, _ := strings.Cut(r.Path, "/")
	return owner
}

// WebURL returns host/path.
func (r Remote) WebURL() string {
	return path.Join(r.Host, r.Path)
}

// ParseRemote parses the URL of a git remote as printed by "git remote get-url".
func ParseRemote(raw string) (Remote, error) {
	src, err := ParseSource(strings.TrimSpace(raw))
	if err != nil {
		return Remote{}, err
	}
	if src.Kind != SourceURL {
		return Remote{}, fmt.Errorf("remote %q has no host", raw)
	}
	return Remote{Host: src.Host, Path: src.Path}, nil
}
