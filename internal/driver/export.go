// Package driver runs the export pipeline over graph files on disk.
package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stackflow/internal/cfgjson"
	"stackflow/internal/graphfile"
)

// Request configures a batch export.
type Request struct {
	// In is a graph file or a directory searched recursively for them.
	In string
	// OutDir receives the exported documents. Empty means next to the input.
	OutDir string
	// Pretty indents the documents.
	Pretty bool
	// Jobs caps concurrent file exports; 0 means GOMAXPROCS.
	Jobs int
	// Progress receives per-file events; may be nil.
	Progress ProgressSink
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Path    string
	OutPath string
	Blocks  int
	Err     error
}

// Failed reports whether any file in results failed.
func Failed(results []FileResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Export runs the pipeline for every graph file under req.In. Results are
// returned in sorted path order regardless of completion order; per-file
// failures are recorded in the result, not returned as the batch error.
func Export(ctx context.Context, req *Request) ([]FileResult, error) {
	if req == nil {
		return nil, fmt.Errorf("missing export request")
	}
	files, err := ListGraphFiles(req.In)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no %s files found", req.In, graphfile.Ext)
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Path: path, Err: err}
				return err
			}
			results[i] = exportFile(path, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// exportFile runs decode -> export -> write for one graph file.
func exportFile(path string, req *Request) FileResult {
	start := time.Now()
	res := FileResult{Path: path, OutPath: outPath(path, req.OutDir)}

	fail := func(stage Stage, err error) FileResult {
		res.Err = err
		emit(req.Progress, path, stage, StatusError, err, time.Since(start))
		return res
	}

	emit(req.Progress, path, StageDecode, StatusWorking, nil, 0)
	graph, err := graphfile.Read(path)
	if err != nil {
		return fail(StageDecode, err)
	}

	emit(req.Progress, path, StageExport, StatusWorking, nil, 0)
	nodes, err := cfgjson.Export(graph, cfgjson.Options{})
	if err != nil {
		return fail(StageExport, fmt.Errorf("%s: %w", path, err))
	}
	res.Blocks = len(nodes) / 2

	emit(req.Progress, path, StageWrite, StatusWorking, nil, 0)
	if err := writeDoc(res.OutPath, nodes, req.Pretty); err != nil {
		return fail(StageWrite, err)
	}

	emit(req.Progress, path, StageWrite, StatusDone, nil, time.Since(start))
	return res
}

func writeDoc(path string, nodes []any, pretty bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(nodes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// outPath maps an input graph file to its document path.
func outPath(in, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(in), graphfile.Ext) + ".cfg.json"
	if outDir == "" {
		return filepath.Join(filepath.Dir(in), base)
	}
	return filepath.Join(outDir, base)
}

// ListGraphFiles returns the sorted graph files under path (or path itself
// when it names a file).
func ListGraphFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), graphfile.Ext) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
