package handlers

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/imamik/stratus/internal/provisioning/mirror"
)

// Mirror is the repository mirror surface used by the repo and serve commands.
type Mirror interface {
	Clone(ctx context.Context, sourceURL string) (mirror.RepoMirror, error)
	List() ([]mirror.RepoMirror, error)
	Resolve(mirrorID, relPath string) (string, error)
	Open(mirrorID, relPath string) (*os.File, fs.FileInfo, error)
}

func repoMirror(configPath string) (Mirror, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return newMirror(cfg, newObserver(cfg)), nil
}

// RepoClone clones a repository into a new mirror.
func RepoClone(ctx context.Context, configPath, sourceURL string, jsonOutput bool) error {
	m, err := repoMirror(configPath)
	if err != nil {
		return err
	}

	r, err := m.Clone(ctx, sourceURL)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(r)
	}
	fmt.Fprintf(stdout, "Cloned %s into %s\n", sourceURL, successStyle.Render(r.ID))
	fmt.Fprintf(stdout, "  %s\n", dimStyle.Render(r.LocalRoot))
	return nil
}

// RepoList lists the mirrors.
func RepoList(configPath string, jsonOutput bool) error {
	m, err := repoMirror(configPath)
	if err != nil {
		return err
	}

	mirrors, err := m.List()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(mirrors)
	}
	if len(mirrors) == 0 {
		fmt.Fprintln(stdout, dimStyle.Render("No mirrors"))
		return nil
	}

	rows := make([][]string, 0, len(mirrors))
	for _, r := range mirrors {
		commit := r.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		rows = append(rows, []string{r.ID, r.SourceURL, commit, r.ClonedAt.Format("2006-01-02 15:04")})
	}
	fmt.Fprintln(stdout, renderTable([]string{"ID", "SOURCE", "COMMIT", "CLONED"}, rows))
	return nil
}

// RepoResolve prints the local path a request path maps to.
func RepoResolve(configPath, mirrorID, relPath string) error {
	m, err := repoMirror(configPath)
	if err != nil {
		return err
	}

	path, err := m.Resolve(mirrorID, relPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)
	return nil
}
