// Package build implements BuildCoordinator (C5, spec §4.5): the
// single-owner actor that walks the notes tree at startup, watches it for
// changes, drives compiles through internal/compiler and internal/fragment,
// and keeps internal/filegraph and internal/notes in sync with what's on
// disk.
//
// The watcher and its debouncer are grounded on the teacher's
// internal/indexing/watcher.go (FileWatcher + eventDebouncer): an
// fsnotify.Watcher feeding a single debounce timer, recursive directory
// watches added as new directories appear — generalized here to a
// configurable quiescence window (default 500ms, see internal/config) and
// the create/modify/remove dispatch rules spec.md §4.5 specifies, which
// recognize only project-local .typ paths under the notes subdirectory as
// source roots.
package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/notegraphd/internal/buildlog"
	"github.com/standardbeagle/notegraphd/internal/compiler"
	"github.com/standardbeagle/notegraphd/internal/diag"
	"github.com/standardbeagle/notegraphd/internal/filegraph"
	"github.com/standardbeagle/notegraphd/internal/fsid"
	"github.com/standardbeagle/notegraphd/internal/notes"
	"github.com/standardbeagle/notegraphd/internal/world"
)

var logComponent = diag.Component("build")

// Coordinator is BuildCoordinator.
type Coordinator struct {
	root     string
	notesDir string
	buildDir string

	res    *world.Resources
	pkgs   world.PackageStorage
	cache  *world.SlotCache
	engine compiler.Engine

	watchDebounceMs int

	service *notes.Service
	cancel  context.CancelCauseFunc

	graphMu     sync.Mutex
	graph       *filegraph.Graph
	sourceRoots map[fsid.FileID]struct{}

	watcher   *fsnotify.Watcher
	debouncer *debouncer
	wg        sync.WaitGroup
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// New constructs a Coordinator. root is the project directory, notesDir and
// buildDir are absolute paths to its notes/ and build/ subdirectories.
// watchDebounceMs is the quiescence window applied before a batch of
// filesystem events is dispatched; callers pass config.Config.WatchDebounceMs.
func New(
	root, notesDir, buildDir string,
	res *world.Resources,
	pkgs world.PackageStorage,
	cache *world.SlotCache,
	engine compiler.Engine,
	service *notes.Service,
	cancel context.CancelCauseFunc,
	watchDebounceMs int,
) *Coordinator {
	return &Coordinator{
		root:            root,
		notesDir:        notesDir,
		buildDir:        buildDir,
		res:             res,
		pkgs:            pkgs,
		cache:           cache,
		engine:          engine,
		watchDebounceMs: watchDebounceMs,
		service:         service,
		cancel:          cancel,
		graph:           filegraph.New(),
		sourceRoots:     make(map[fsid.FileID]struct{}),
		stopCh:          make(chan struct{}),
	}
}

// Start performs the startup walk (§4.5), signals the NotesService once it
// finishes, then begins watching the project root for changes.
func (c *Coordinator) Start() error {
	if err := c.resetBuildDir(); err != nil {
		return buildlog.New(buildlog.CategoryFragmentIO, "reset build directory", err).WithFile(c.buildDir)
	}

	if err := c.startupWalk(); err != nil {
		return err
	}
	c.service.SetBuildFinished()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return buildlog.New(buildlog.CategoryWatcher, "create watcher", err)
	}
	c.watcher = watcher
	c.debouncer = newDebouncer(time.Duration(c.watchDebounceMs)*time.Millisecond, c)

	if err := c.addWatches(c.root); err != nil {
		return buildlog.New(buildlog.CategoryWatcher, "add watches", err).WithFile(c.root)
	}

	c.wg.Add(2)
	go c.processEvents()
	go c.debouncer.run(&c.wg, c.stopCh)

	return nil
}

// Stop tears down the watcher and waits for its goroutines to exit.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if c.watcher != nil {
			c.watcher.Close()
		}
		c.wg.Wait()
	})
}

func (c *Coordinator) resetBuildDir() error {
	if _, err := os.Stat(c.buildDir); err == nil {
		if err := os.RemoveAll(c.buildDir); err != nil {
			return err
		}
	}
	return os.MkdirAll(c.buildDir, 0o755)
}

func (c *Coordinator) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == c.buildDir {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := c.watcher.Add(path); err != nil {
			logComponent.Logf("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (c *Coordinator) processEvents() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.handleRawEvent(event)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logComponent.Logf("watcher error: %v", err)
		}
	}
}

// handleRawEvent classifies one fsnotify event and, for newly created
// directories, extends the recursive watch before handing the event to the
// debouncer.
func (c *Coordinator) handleRawEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := c.watcher.Add(event.Name); err != nil {
				logComponent.Logf("failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	var kind fsEventKind
	switch {
	case event.Op&fsnotify.Create != 0:
		kind = eventCreate
	case event.Op&fsnotify.Write != 0:
		kind = eventModify
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		kind = eventRemove
	default:
		return
	}

	c.debouncer.addEvent(event.Name, kind)
}

func (c *Coordinator) toFileID(absPath string) (fsid.FileID, bool) {
	vpath, ok := fsid.WithinRoot(absPath, c.root)
	if !ok {
		return fsid.FileID{}, false
	}
	return fsid.New(nil, vpath), true
}

func (c *Coordinator) isUnderNotesDir(absPath string) bool {
	rel, err := filepath.Rel(c.notesDir, absPath)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != ".."
}

func (c *Coordinator) fatal(category buildlog.Category, op string, path string, err error) {
	c.cancel(buildlog.New(category, op, err).WithFile(path))
}
