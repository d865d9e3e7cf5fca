package ports

//go:generate mockgen -source=vcs.go -destination=mocks/mock_vcs.go -package=mocks

import "context"

type VCSPort interface {
	Tags(ctx context.Context, repo string) ([]string, error)
	// ReadFile returns the content of path at ref. found is false when
	// the file does not exist at that ref.
	ReadFile(ctx context.Context, repo string, ref string, path string) (data []byte, found bool, err error)
	// Export writes the tree of subPath at ref into dest.
	Export(ctx context.Context, repo string, ref string, subPath string, dest string) error
}
