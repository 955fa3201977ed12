package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Galoup/HARDSTATS/pkg/logger"
)

// ErrPublish wraps publishing failures.
var ErrPublish = errors.New("publish report")

// PublishResult records where a report landed.
type PublishResult struct {
	SourceReport    string
	PublishedLatest string
	PublishedDated  string
	PublishedIndex  string
}

// Publisher copies rendered reports into a static site directory and keeps a
// browsable index.
type Publisher struct {
	publishDir     string
	latestFilename string
	keepHistory    bool
	generateIndex  bool
	now            func() time.Time
	log            logger.Logger
}

// NewPublisher targets publishDir with history and index generation on.
func NewPublisher(publishDir string, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		publishDir:     publishDir,
		latestFilename: "latest.html",
		keepHistory:    true,
		generateIndex:  true,
		now:            time.Now,
		log:            logger.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// FindLatestReport returns the newest report file in outDir, preferring the
// report_ naming convention, or "" when the directory holds none.
func FindLatestReport(outDir string) (string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read %s: %v", ErrPublish, outDir, err)
	}

	pick := func(prefix string) (string, time.Time) {
		var (
			best   string
			bestAt time.Time
		)
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
				continue
			}
			if prefix != "" && !strings.HasPrefix(e.Name(), prefix) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if best == "" || info.ModTime().After(bestAt) {
				best = e.Name()
				bestAt = info.ModTime()
			}
		}
		return best, bestAt
	}

	name, _ := pick("report_")
	if name == "" {
		name, _ = pick("")
	}
	if name == "" {
		return "", nil
	}
	return filepath.Join(outDir, name), nil
}

// Publish copies reportPath into the publish directory as the latest file,
// optionally keeps the dated copy, and rewrites index.html.
func (p *Publisher) Publish(reportPath string) (*PublishResult, error) {
	info, err := os.Stat(reportPath)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: report not found: %s", ErrPublish, reportPath)
	}
	latestName := strings.TrimSpace(p.latestFilename)
	if latestName == "" {
		latestName = "latest.html"
	}
	if strings.ContainsAny(latestName, `/\`) {
		return nil, fmt.Errorf("%w: latest filename must not contain path separators", ErrPublish)
	}
	if err := os.MkdirAll(p.publishDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrPublish, p.publishDir, err)
	}

	res := &PublishResult{SourceReport: reportPath}

	latestPath := filepath.Join(p.publishDir, latestName)
	if err := copyFile(reportPath, latestPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublish, err)
	}
	res.PublishedLatest = latestPath
	p.log.Info("published latest report",
		logger.String("source", filepath.Base(reportPath)),
		logger.String("target", latestPath))

	if p.keepHistory && filepath.Base(reportPath) != latestName {
		datedPath := filepath.Join(p.publishDir, filepath.Base(reportPath))
		if err := copyFile(reportPath, datedPath); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPublish, err)
		}
		res.PublishedDated = datedPath
	}

	if p.generateIndex {
		indexPath := filepath.Join(p.publishDir, "index.html")
		if err := p.writeIndex(indexPath, latestName); err != nil {
			return nil, err
		}
		res.PublishedIndex = indexPath
	}
	return res, nil
}

// writeIndex lists the dated reports newest first, using the date embedded in
// the filename and falling back to modification time.
func (p *Publisher) writeIndex(indexPath, latestName string) error {
	entries, err := os.ReadDir(p.publishDir)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrPublish, p.publishDir, err)
	}

	type item struct {
		name string
		date time.Time
		mod  time.Time
	}
	var items []item
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "report_") || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		it := item{name: e.Name(), mod: info.ModTime()}
		// report_YYYY-MM-DD_...
		parts := strings.SplitN(strings.TrimSuffix(e.Name(), ".html"), "_", 3)
		if len(parts) >= 2 {
			if d, err := time.Parse("2006-01-02", parts[1]); err == nil {
				it.date = d
			}
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].date.Equal(items[j].date) {
			return items[i].date.After(items[j].date)
		}
		return items[i].mod.After(items[j].mod)
	})

	var list strings.Builder
	for _, it := range items {
		fmt.Fprintf(&list, "    <li><a href=%q>%s</a></li>\n", it.name, it.name)
	}
	if list.Len() == 0 {
		list.WriteString("    <li>No reports yet.</li>\n")
	}

	html := fmt.Sprintf(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>HARDSTATS Reports</title>
  <style>
    body { font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Arial, sans-serif; margin: 28px; }
    code { background: #f3f4f6; padding: 2px 6px; border-radius: 6px; }
  </style>
</head>
<body>
  <h1>HARDSTATS Reports</h1>
  <p>Latest: <a href="%s"><code>%s</code></a></p>
  <p>Generated: <code>%s</code></p>
  <h2>History</h2>
  <ul>
%s  </ul>
</body>
</html>
`, latestName, latestName, p.now().Format("2006-01-02T15:04:05"), list.String())

	if err := os.WriteFile(indexPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("%w: write index: %v", ErrPublish, err)
	}
	p.log.Info("published index", logger.String("path", indexPath))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
