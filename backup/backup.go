// Package backup produces compressed snapshots of the SQLite database.
// A snapshot is taken with VACUUM INTO, so normal reads and writes keep
// going while the copy is made, then xz-compressed into the backup
// directory. Old archives beyond the retention count are pruned.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

const (
	namePrefix = "lengolf-"
	nameSuffix = ".db.xz"
	nameLayout = "20060102-150405"
)

type Options struct {
	Dir       string
	Retention int       // archives to keep, 0 keeps everything
	Now       time.Time // zero means time.Now
	Progress  io.Writer // nil means os.Stderr
}

// Info describes one archive in the backup directory.
type Info struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Run snapshots the live database into opts.Dir and prunes archives beyond
// the retention count. It returns the path of the new archive.
func Run(db *sqlx.DB, opts Options) (string, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	if opts.Dir == "" {
		return "", fmt.Errorf("backup directory not configured")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	snapshot := filepath.Join(opts.Dir, fmt.Sprintf(".snapshot-%d.db", now.UnixNano()))
	defer os.Remove(snapshot)
	if _, err := db.Exec(`VACUUM INTO ?`, snapshot); err != nil {
		return "", fmt.Errorf("failed to snapshot database: %w", err)
	}

	target := filepath.Join(opts.Dir, namePrefix+now.Format(nameLayout)+nameSuffix)
	if err := compress(snapshot, target, opts.Progress); err != nil {
		os.Remove(target)
		return "", err
	}

	if opts.Retention > 0 {
		if _, err := Prune(opts.Dir, opts.Retention); err != nil {
			return "", err
		}
	}
	return target, nil
}

func compress(src, dst string, progress io.Writer) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat snapshot: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	xzw, err := xz.NewWriter(out)
	if err != nil {
		return fmt.Errorf("failed to start xz writer: %w", err)
	}

	bar := newBar(st.Size(), progress)
	if _, err := io.Copy(io.MultiWriter(xzw, bar), in); err != nil {
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}
	_ = bar.Finish()

	if err := xzw.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to sync archive: %w", err)
	}
	return out.Close()
}

func newBar(size int64, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription("compressing snapshot"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// List returns the archives in dir, newest first. Files that do not match
// the backup naming scheme are ignored.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var infos []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), namePrefix) || !strings.HasSuffix(e.Name(), nameSuffix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}
		infos = append(infos, Info{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name > infos[j].Name })
	return infos, nil
}

// Prune deletes the oldest archives beyond keep and returns the deleted
// paths. Only files matching the backup naming scheme are touched.
func Prune(dir string, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("retention must be at least 1")
	}
	infos, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(infos) <= keep {
		return nil, nil
	}

	var removed []string
	for _, info := range infos[keep:] {
		if err := os.Remove(info.Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", info.Name, err)
		}
		removed = append(removed, info.Path)
	}
	return removed, nil
}
