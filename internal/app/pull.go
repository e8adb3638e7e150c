package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jobrunner/geocat/internal/adapters/storage"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// PullResult reports which documents Pull copied.
type PullResult struct {
	Downloaded []string
	Skipped    []string
}

// Pull mirrors the snapshot documents of src into dest, keeping their keys.
// Documents already present in dest are skipped unless overwrite is set.
func Pull(ctx context.Context, src output.ObjectStorage, dest *storage.LocalStorage, overwrite bool, logger *slog.Logger) (PullResult, error) {
	var result PullResult

	objects, err := src.List(ctx)
	if err != nil {
		return result, fmt.Errorf("listing snapshots: %w", err)
	}

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !overwrite {
			present, err := dest.Exists(ctx, obj.Key)
			if err != nil {
				return result, err
			}
			if present {
				result.Skipped = append(result.Skipped, obj.Key)
				continue
			}
		}
		if err := src.Download(ctx, obj.Key, dest.FullPath(obj.Key)); err != nil {
			return result, fmt.Errorf("downloading %s: %w", obj.Key, err)
		}
		logger.Debug("snapshot downloaded", "key", obj.Key, "size", obj.Size)
		result.Downloaded = append(result.Downloaded, obj.Key)
	}
	return result, nil
}
