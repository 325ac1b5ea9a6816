package compute

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stratus/internal/provisioning"
)

// singleQuotedWord decodes s as one POSIX shell word built only from
// single-quoted segments and \' escapes. ok is false if any other character
// appears outside quotes.
func singleQuotedWord(s string) (word string, ok bool) {
	var b strings.Builder
	for len(s) > 0 {
		switch {
		case strings.HasPrefix(s, `\'`):
			b.WriteByte('\'')
			s = s[2:]
		case s[0] == '\'':
			end := strings.IndexByte(s[1:], '\'')
			if end < 0 {
				return "", false
			}
			b.WriteString(s[1 : end+1])
			s = s[end+2:]
		default:
			return "", false
		}
	}
	return b.String(), true
}

func TestBuildBootstrapScript_WebServerOnly(t *testing.T) {
	t.Parallel()
	script, err := BuildBootstrapScript("nginx", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#!/bin/sh\n"))
	assert.Contains(t, script, "PACKAGE=nginx\n")
	assert.Contains(t, script, "DOC_ROOT=/usr/share/nginx/html\n")
	assert.Contains(t, script, `systemctl enable "$PACKAGE"`)
	for _, pm := range []string{"dnf", "yum", "apt-get"} {
		assert.Contains(t, script, "command -v "+pm)
	}
	assert.NotContains(t, script, "SOURCE_REPO")
	assert.NotContains(t, script, "git clone")
}

func TestBuildBootstrapScript_Deterministic(t *testing.T) {
	t.Parallel()
	first, err := BuildBootstrapScript("httpd", "https://github.com/example/site.git")
	require.NoError(t, err)
	second, err := BuildBootstrapScript("httpd", "https://github.com/example/site.git")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildBootstrapScript_WithSource(t *testing.T) {
	t.Parallel()
	script, err := BuildBootstrapScript("httpd", "https://github.com/example/site.git")
	require.NoError(t, err)

	assert.Contains(t, script, "DOC_ROOT=/var/www/html\n")
	assert.Contains(t, script, "SOURCE_REPO='https://github.com/example/site.git'\n")
	assert.Contains(t, script, `git clone --depth 1 -- "$SOURCE_REPO" "$WORK_DIR/site"`)
	assert.Contains(t, script, `cp -R "$WORK_DIR/site/." "$DOC_ROOT/"`)
}

func TestBuildBootstrapScript_SourceURLCannotInject(t *testing.T) {
	t.Parallel()
	hostile := []string{
		"http://x;rm -rf /",
		"https://x/$(reboot)",
		"https://x/`id`",
		"https://x/'; rm -rf / #",
		"https://x/a|b&&c>d",
		`https://x/"$HOME"\`,
		"git://x/''''",
	}
	for _, url := range hostile {
		t.Run(url, func(t *testing.T) {
			t.Parallel()
			script, err := BuildBootstrapScript("nginx", url)
			require.NoError(t, err)

			var assignments int
			for line := range strings.SplitSeq(script, "\n") {
				if rest, ok := strings.CutPrefix(line, "SOURCE_REPO="); ok {
					assignments++
					word, ok := singleQuotedWord(rest)
					require.True(t, ok, "assignment is not a single quoted word: %s", line)
					assert.Equal(t, url, word)
					continue
				}
				// Outside the assignment the value is only ever expanded quoted.
				if strings.Contains(line, "SOURCE_REPO") {
					assert.Contains(t, line, `-- "$SOURCE_REPO"`)
				}
				if strings.Contains(url, ";") {
					assert.NotContains(t, line, url)
				}
			}
			assert.Equal(t, 1, assignments)
		})
	}
}

func TestBuildBootstrapScript_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		pkg   string
		url   string
		field string
	}{
		{"package with shell syntax", "nginx;reboot", "", "web_server_package"},
		{"package with space", "nginx extra", "", "web_server_package"},
		{"upper case package", "Nginx", "", "web_server_package"},
		{"empty package", "", "", "web_server_package"},
		{"newline in url", "nginx", "https://x/a\nreboot", "source_url"},
		{"nul in url", "nginx", "https://x/a\x00", "source_url"},
		{"file scheme", "nginx", "file:///etc/passwd", "source_url"},
		{"ftp scheme", "nginx", "ftp://x/repo", "source_url"},
		{"scp style", "nginx", "git@github.com:example/site.git", "source_url"},
		{"missing host", "nginx", "https:///path", "source_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildBootstrapScript(tt.pkg, tt.url)
			var validation *provisioning.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
}

func TestShellQuote(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `'plain'`, ShellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, ShellQuote("it's"))
	assert.Equal(t, `''`, ShellQuote(""))
}

func TestDocumentRoot(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/usr/share/nginx/html", DocumentRoot("nginx"))
	assert.Equal(t, "/var/www/html", DocumentRoot("httpd"))
	assert.Equal(t, "/var/www/html", DocumentRoot("apache2"))
	assert.Equal(t, "/var/www/html", DocumentRoot("lighttpd"))
}
