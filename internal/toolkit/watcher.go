package toolkit

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/shieldops/shieldops/internal/core"
)

// WatchRules reloads the rule set whenever the file at path changes, swapping
// it in atomically. A reload that fails to parse or validate keeps the
// previous rules active. Blocks until ctx is done.
func (t *Toolkit) WatchRules(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return core.ErrConfig(core.CodeInvalidConfig, "creating rules watcher").WithCause(err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and atomic writers replace
	// the file, which would drop a direct watch.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return core.ErrConfig(core.CodeInvalidConfig, "watching rules directory "+dir).WithCause(err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			rs, err := LoadRules(path)
			if err != nil {
				t.logger.Error("rules reload failed, keeping previous rules",
					"path", path, "error", err)
				continue
			}
			t.SwapRules(rs)
			t.logger.Info("rules reloaded",
				"path", path,
				"classify_rules", len(rs.Classify),
				"chain_rules", len(rs.Chain),
			)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Error("rules watcher error", "error", err)
		}
	}
}
