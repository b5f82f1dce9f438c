package crawler

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidConfig is returned when a crawl is started with settings that
// cannot describe a valid traversal.
var ErrInvalidConfig = errors.New("invalid crawler config")

var DefaultExcludePatterns = []string{
	"/files/", "/cdn/", "/wp-content/", "/wp-json/", "/admin/",
	"/cart", "/checkout", "/account", "/search", "preview_theme_id=",
}

var DefaultFileExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".bmp", ".ico", ".tiff", ".avif",
	".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv", ".m4v",
	".mp3", ".wav", ".ogg", ".aac", ".flac", ".m4a",
	".zip", ".rar", ".tar", ".gz", ".7z", ".bz2",
	".woff", ".woff2", ".ttf", ".eot", ".otf",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".csv",
}

var DefaultMilestones = []int{100, 200, 250, 300, 320, 350, 400}

// Config controls one crawl. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// BatchSize is the progress-log cadence in classified pages.
	BatchSize int
	// DelayMin and DelayMax bound the random pause after every fetched page.
	DelayMin time.Duration
	DelayMax time.Duration
	// MaxPages stops the crawl after this many fetched pages. 0 means no cap.
	MaxPages int
	// MaxDuration bounds the wall-clock time of a crawl. 0 means no bound.
	MaxDuration time.Duration
	// RecordFailures puts unreachable URLs in the "failed" bucket instead of
	// dropping them.
	RecordFailures  bool
	ExcludePatterns []string
	FileExtensions  []string
	Milestones      []int
}

func DefaultConfig() Config {
	return Config{
		BatchSize:       50,
		DelayMin:        time.Second,
		DelayMax:        3 * time.Second,
		ExcludePatterns: append([]string(nil), DefaultExcludePatterns...),
		FileExtensions:  append([]string(nil), DefaultFileExtensions...),
		Milestones:      append([]int(nil), DefaultMilestones...),
	}
}

// Validate reports configuration that would make the traversal meaningless.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.DelayMin < 0 || c.DelayMax < 0 {
		return fmt.Errorf("%w: negative delay range %v-%v", ErrInvalidConfig, c.DelayMin, c.DelayMax)
	}
	if c.DelayMax < c.DelayMin {
		return fmt.Errorf("%w: delay max %v is below delay min %v", ErrInvalidConfig, c.DelayMax, c.DelayMin)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("%w: max pages must not be negative, got %d", ErrInvalidConfig, c.MaxPages)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("%w: max duration must not be negative, got %v", ErrInvalidConfig, c.MaxDuration)
	}
	if !sort.IntsAreSorted(c.Milestones) {
		return fmt.Errorf("%w: milestones must be ascending", ErrInvalidConfig)
	}
	return nil
}
