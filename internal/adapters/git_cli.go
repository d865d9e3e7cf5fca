package adapters

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
)

// GitCLIClient drives the git executable. Each repository is mirrored
// once per process into CacheDir; reads and exports run against the
// mirror.
type GitCLIClient struct {
	Binary   string
	CacheDir string

	group   *singleflight.Group
	mu      *sync.Mutex
	fetched map[string]string
}

func NewGitCLIClient(cacheDir string) GitCLIClient {
	if strings.TrimSpace(cacheDir) == "" {
		cacheDir = filepath.Join(os.TempDir(), "component-manager-git")
	}
	return GitCLIClient{
		Binary:   "git",
		CacheDir: cacheDir,
		group:    &singleflight.Group{},
		mu:       &sync.Mutex{},
		fetched:  map[string]string{},
	}
}

// Tags lists the tag names of repo without cloning it.
func (c GitCLIClient) Tags(ctx context.Context, repo string) ([]string, error) {
	output, err := c.run(ctx, "", "ls-remote", "--tags", "--refs", repo)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list git tags").
			WithCause(err)
	}
	return parseLsRemoteTags(output), nil
}

func (c GitCLIClient) ReadFile(ctx context.Context, repo string, ref string, file string) ([]byte, bool, error) {
	mirror, err := c.mirror(ctx, repo)
	if err != nil {
		return nil, false, err
	}
	object := ref + ":" + strings.TrimPrefix(path.Clean("/"+file), "/")
	if _, err := c.run(ctx, mirror, "cat-file", "-e", object); err != nil {
		return nil, false, nil
	}
	output, err := c.run(ctx, mirror, "show", object)
	if err != nil {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read file from git").
			WithCause(err)
	}
	return output, true, nil
}

// Export writes subPath at ref into dest, with subPath stripped.
func (c GitCLIClient) Export(ctx context.Context, repo string, ref string, subPath string, dest string) error {
	mirror, err := c.mirror(ctx, repo)
	if err != nil {
		return err
	}
	args := []string{"archive", "--format=tar", ref}
	prefix := strings.Trim(subPath, "/")
	if prefix != "" {
		args = append(args, "--", prefix)
	}
	output, err := c.run(ctx, mirror, args...)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to export git tree").
			WithCause(err)
	}
	return extractTar(bytes.NewReader(output), dest, prefix)
}

// mirror returns the path of an up to date bare mirror of repo.
// Concurrent callers for the same repository share one clone or fetch.
func (c GitCLIClient) mirror(ctx context.Context, repo string) (string, error) {
	c.mu.Lock()
	if dir, ok := c.fetched[repo]; ok {
		c.mu.Unlock()
		return dir, nil
	}
	c.mu.Unlock()

	value, err, _ := c.group.Do(repo, func() (any, error) {
		dir := filepath.Join(c.CacheDir, fmt.Sprintf("%016x.git", xxhash.Sum64String(repo)))
		if _, statErr := os.Stat(dir); statErr == nil {
			if _, err := c.run(ctx, dir, "fetch", "--prune", "--tags", "origin", "+refs/heads/*:refs/heads/*"); err != nil {
				return "", err
			}
		} else {
			if err := os.MkdirAll(c.CacheDir, 0755); err != nil {
				return "", err
			}
			if _, err := c.run(ctx, "", "clone", "--mirror", "--quiet", repo, dir); err != nil {
				_ = os.RemoveAll(dir)
				return "", err
			}
		}
		log.Ctx(ctx).Debug().Str("repo", repo).Str("mirror", dir).Msg("git mirror ready")
		c.mu.Lock()
		c.fetched[repo] = dir
		c.mu.Unlock()
		return dir, nil
	})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to mirror git repository").
			WithCause(err)
	}
	return value.(string), nil
}

func (c GitCLIClient) run(ctx context.Context, gitDir string, args ...string) ([]byte, error) {
	if gitDir != "" {
		args = append([]string{"--git-dir", gitDir}, args...)
	}
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, shared.CommandError(stderr.Bytes(), err)
	}
	return output, nil
}

func parseLsRemoteTags(output []byte) []string {
	var tags []string
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		if tag, ok := strings.CutPrefix(fields[1], "refs/tags/"); ok && tag != "" {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

var _ ports.VCSPort = GitCLIClient{}
