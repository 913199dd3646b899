package docker

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	appErr "evdemo/pkg/errors"
	"evdemo/pkg/utils/logger"

	"github.com/docker/docker/api/types/image"
	"go.uber.org/zap"
)

// ReadImageList reads image references from a file, one per line. Blank
// lines and lines starting with '#' are skipped.
func ReadImageList(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var images []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		images = append(images, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

// PullImages pulls every image reference through the daemon. Pulls run
// sequentially; the first failure aborts.
func (r *Runtime) PullImages(ctx context.Context, references []string) error {
	for _, ref := range references {
		logger.Info(ctx, "pulling image", zap.String("image", ref))
		reader, err := r.cli.ImagePull(ctx, ref, image.PullOptions{})
		if err != nil {
			return appErr.Wrapf(err, appErr.ImageNotFound,
				"pulling image '%s' failed: %v", ref, err)
		}
		// The pull happens while the progress stream is consumed.
		if _, err := io.Copy(io.Discard, reader); err != nil {
			reader.Close()
			return appErr.Wrapf(err, appErr.ImageNotFound,
				"pulling image '%s' failed: %v", ref, err)
		}
		reader.Close()
	}
	return nil
}
