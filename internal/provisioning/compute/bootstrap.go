package compute

import (
	"bytes"
	"regexp"
	"strings"
	"text/template"
	"unicode"

	"github.com/imamik/stratus/internal/provisioning"
)

// packagePattern is the shape of distribution package names accepted for the
// web server. It excludes every shell metacharacter.
var packagePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.+-]*$`)

// allowedSchemes are the repository URL schemes git can clone from.
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"git":   true,
	"ssh":   true,
}

// documentRoots maps web server packages to the directory they serve.
var documentRoots = map[string]string{
	"nginx":   "/usr/share/nginx/html",
	"httpd":   "/var/www/html",
	"apache2": "/var/www/html",
}

const defaultDocumentRoot = "/var/www/html"

// The source URL is assigned once, single-quoted, and only ever expanded as
// "$SOURCE_REPO" after "--", so its content is never parsed as shell syntax or
// as a git option.
var bootstrapTemplate = template.Must(template.New("bootstrap").Parse(`#!/bin/sh
set -eu

PACKAGE={{ .Package }}
DOC_ROOT={{ .DocRoot }}
{{- if .SourceRepo }}
SOURCE_REPO={{ .SourceRepo }}
{{- end }}

if command -v dnf >/dev/null 2>&1; then
  dnf install -y "$PACKAGE"{{ if .SourceRepo }} git{{ end }}
elif command -v yum >/dev/null 2>&1; then
  yum install -y "$PACKAGE"{{ if .SourceRepo }} git{{ end }}
elif command -v apt-get >/dev/null 2>&1; then
  apt-get update -y
  DEBIAN_FRONTEND=noninteractive apt-get install -y "$PACKAGE"{{ if .SourceRepo }} git{{ end }}
else
  echo "no supported package manager" >&2
  exit 1
fi

systemctl enable "$PACKAGE"
systemctl start "$PACKAGE"
{{- if .SourceRepo }}

WORK_DIR=$(mktemp -d)
git clone --depth 1 -- "$SOURCE_REPO" "$WORK_DIR/site"
rm -rf "$WORK_DIR/site/.git"
mkdir -p "$DOC_ROOT"
cp -R "$WORK_DIR/site/." "$DOC_ROOT/"
rm -rf "$WORK_DIR"
{{- end }}
`))

type bootstrapData struct {
	Package    string
	DocRoot    string
	SourceRepo string // already shell-quoted
}

// BuildBootstrapScript renders the first-boot shell script that installs and
// starts webServerPackage and, when sourceRepoURL is set, clones it over the
// document root. The output depends only on the arguments.
func BuildBootstrapScript(webServerPackage, sourceRepoURL string) (string, error) {
	if !packagePattern.MatchString(webServerPackage) {
		return "", &provisioning.ValidationError{
			Field:  "web_server_package",
			Value:  webServerPackage,
			Reason: "must match " + packagePattern.String(),
		}
	}

	data := bootstrapData{Package: webServerPackage, DocRoot: DocumentRoot(webServerPackage)}
	if sourceRepoURL != "" {
		if err := ValidateSourceURL(sourceRepoURL); err != nil {
			return "", err
		}
		data.SourceRepo = ShellQuote(sourceRepoURL)
	}

	var buf bytes.Buffer
	if err := bootstrapTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DocumentRoot returns the directory the given web server package serves.
func DocumentRoot(webServerPackage string) string {
	if root, ok := documentRoots[webServerPackage]; ok {
		return root
	}
	return defaultDocumentRoot
}

// ValidateSourceURL checks that raw is "<scheme>://<host>..." with an
// allowed scheme and no control characters. Shell metacharacters are allowed;
// the script quotes the value. scp-style "user@host:path" is not accepted.
func ValidateSourceURL(raw string) error {
	if strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return &provisioning.ValidationError{Field: "source_url", Value: raw, Reason: "contains control characters"}
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || !allowedSchemes[strings.ToLower(scheme)] {
		return &provisioning.ValidationError{Field: "source_url", Value: raw, Reason: "scheme must be http, https, git or ssh"}
	}
	if rest == "" || rest[0] == '/' {
		return &provisioning.ValidationError{Field: "source_url", Value: raw, Reason: "host is required"}
	}
	return nil
}

// ShellQuote returns s as a single POSIX shell word. Inside single quotes
// nothing is special, so each ' is closed, escaped and reopened.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
