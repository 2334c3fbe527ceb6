// Package vaulthost implements the host boundary over a directory of
// markdown documents. Frontmatter becomes the property map, file-change
// notifications become content-cache events, and the stylesheet fragment
// is a file on disk. This is glue for the CLI; none of the engine's rule
// semantics live here.
package vaulthost

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"

	"github.com/propshade/propshade/internal/host"
	"github.com/propshade/propshade/internal/models"
)

var inlineTagRe = regexp.MustCompile(`(^|\s)#([\p{L}0-9/_-]+)`)

var _ host.Host = (*VaultHost)(nil)

// VaultHost serves documents from a vault directory and writes the
// stylesheet fragment to an output file.
type VaultHost struct {
	root    string
	output  string
	logger  *log.Logger
	watcher *fsnotify.Watcher

	mu         sync.Mutex
	activePath string // vault-relative, slash-separated
	folded     bool
	installed  bool
	lastMarks  []models.SurfaceMarks
	nextSubID  int
	onOpen     map[int]func(string)
	onSurface  map[int]func(models.SurfaceKind)
	onContent  map[int]func(string)
	onInput    map[int]func()
	done       chan struct{}
	closed     bool
}

// New creates a vault host rooted at dir, writing the stylesheet to output.
func New(dir, output string, logger *log.Logger) (*VaultHost, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("vault directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path %s is not a directory", dir)
	}
	if logger == nil {
		logger = log.Default()
	}

	return &VaultHost{
		root:      dir,
		output:    output,
		logger:    logger.With("component", "vaulthost"),
		onOpen:    make(map[int]func(string)),
		onSurface: make(map[int]func(models.SurfaceKind)),
		onContent: make(map[int]func(string)),
		onInput:   make(map[int]func()),
		done:      make(chan struct{}),
	}, nil
}

// Watch starts delivering file-change events. New or modified markdown
// files become the active document; changes to the active document fire
// content-change notifications.
func (v *VaultHost) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	v.watcher = w

	err = filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return fmt.Errorf("watch vault: %w", err)
	}

	go v.loop()
	return nil
}

func (v *VaultHost) loop() {
	for {
		select {
		case <-v.done:
			return
		case ev, ok := <-v.watcher.Events:
			if !ok {
				return
			}
			v.handleEvent(ev)
		case err, ok := <-v.watcher.Errors:
			if !ok {
				return
			}
			v.logger.Warn("watcher error", "err", err)
		}
	}
}

func (v *VaultHost) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		if ev.Op&fsnotify.Create != 0 {
			_ = v.watcher.Add(ev.Name)
		}
		return
	}
	if !strings.EqualFold(filepath.Ext(ev.Name), ".md") {
		return
	}

	rel, err := filepath.Rel(v.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	v.mu.Lock()
	opened := rel != v.activePath
	v.activePath = rel
	onOpen := collect(v.onOpen)
	onContent := collect(v.onContent)
	v.mu.Unlock()

	if opened {
		v.logger.Debug("document opened", "path", rel)
		for _, fn := range onOpen {
			fn(rel)
		}
		return
	}
	for _, fn := range onContent {
		fn(rel)
	}
}

// OpenDocument makes the given vault-relative path the active document and
// fires document-open subscribers.
func (v *VaultHost) OpenDocument(rel string) {
	rel = filepath.ToSlash(rel)
	v.mu.Lock()
	v.activePath = rel
	onOpen := collect(v.onOpen)
	v.mu.Unlock()

	for _, fn := range onOpen {
		fn(rel)
	}
}

// ActiveDocument reads the active document from disk and builds its
// context. Returns nil when no document is active or it cannot be read.
func (v *VaultHost) ActiveDocument() *models.DocumentContext {
	v.mu.Lock()
	rel := v.activePath
	v.mu.Unlock()
	if rel == "" {
		return nil
	}

	doc, err := v.ReadDocument(rel)
	if err != nil {
		v.logger.Warn("read active document", "path", rel, "err", err)
		return nil
	}
	return doc
}

// ReadDocument builds a document context for a vault-relative path:
// frontmatter becomes the property map, tags come from the tags property
// plus inline #tag tokens in the body.
func (v *VaultHost) ReadDocument(rel string) (*models.DocumentContext, error) {
	data, err := os.ReadFile(filepath.Join(v.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}

	fields, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &models.DocumentContext{
		Path:   filepath.ToSlash(rel),
		Tags:   resolveTags(fields, body),
		Fields: fields,
	}, nil
}

// splitFrontmatter separates a leading YAML frontmatter block from the
// document body. A document without frontmatter has an empty property map.
func splitFrontmatter(data []byte) (map[string]any, string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return map[string]any{}, text, nil
	}
	rest := text[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return map[string]any{}, text, nil
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &raw); err != nil {
		return nil, "", fmt.Errorf("parse frontmatter: %w", err)
	}

	// Lowercase keys once; the engine compares keys case-insensitively.
	fields := make(map[string]any, len(raw))
	for k, val := range raw {
		fields[strings.ToLower(k)] = val
	}
	return fields, rest[end+4:], nil
}

// resolveTags merges frontmatter tags with inline body tags, each carrying
// the # marker, deduplicated case-insensitively in first-seen order.
func resolveTags(fields map[string]any, body string) []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.TrimSpace(strings.TrimPrefix(t, "#"))
		if t == "" {
			return
		}
		low := strings.ToLower(t)
		if !seen[low] {
			seen[low] = true
			tags = append(tags, "#"+t)
		}
	}

	for _, t := range models.ValueStrings(fields["tags"]) {
		add(t)
	}
	for _, m := range inlineTagRe.FindAllStringSubmatch(body, -1) {
		add(m[2])
	}
	return tags
}

// Surfaces synthesizes a table surface from the active document's
// properties, sorted by key for deterministic ordering.
func (v *VaultHost) Surfaces() []models.Surface {
	doc := v.ActiveDocument()
	if doc == nil {
		return nil
	}

	keys := make([]string, 0, len(doc.Fields))
	for k := range doc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	elements := make([]models.FieldElement, 0, len(keys))
	for _, k := range keys {
		elements = append(elements, models.FieldElement{Key: k})
	}
	return []models.Surface{{Kind: models.SurfaceTable, Elements: elements}}
}

// InstallStyle writes the stylesheet fragment, replacing any previous one.
func (v *VaultHost) InstallStyle(css string) error {
	if dir := filepath.Dir(v.output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(v.output, []byte(css), 0o644); err != nil {
		return fmt.Errorf("write stylesheet: %w", err)
	}
	v.mu.Lock()
	v.installed = true
	v.mu.Unlock()
	return nil
}

// RemoveStyle deletes the stylesheet fragment. Absence is not an error.
func (v *VaultHost) RemoveStyle() error {
	v.mu.Lock()
	v.installed = false
	v.mu.Unlock()
	if err := os.Remove(v.output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stylesheet: %w", err)
	}
	return nil
}

// liveMarksPath is the sidecar recording live visibility marks.
func (v *VaultHost) liveMarksPath() string {
	return v.output + ".live.json"
}

// ApplyMarks records non-default live marks in a sidecar file next to the
// stylesheet. With nothing but defaults the sidecar is removed.
func (v *VaultHost) ApplyMarks(marks []models.SurfaceMarks) error {
	v.mu.Lock()
	v.lastMarks = marks
	v.mu.Unlock()

	surfaces := v.Surfaces()

	out := make(map[string]map[string]string)
	for i, sm := range marks {
		if i >= len(surfaces) {
			break
		}
		for j, mark := range sm.Marks {
			if mark == models.VisibilityAuto || j >= len(surfaces[i].Elements) {
				continue
			}
			name := sm.Kind.String()
			if out[name] == nil {
				out[name] = make(map[string]string)
			}
			out[name][surfaces[i].Elements[j].ResolvedKey()] = mark.String()
		}
	}

	if len(out) == 0 {
		if err := os.Remove(v.liveMarksPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(v.liveMarksPath(), append(data, '\n'), 0o644)
}

// LastMarks returns the marks from the most recent ApplyMarks call.
func (v *VaultHost) LastMarks() []models.SurfaceMarks {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastMarks
}

// Installed reports whether a stylesheet fragment is currently installed.
func (v *VaultHost) Installed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.installed
}

// Folded reports the property table collapse state.
func (v *VaultHost) Folded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.folded
}

// ToggleFold flips the property table collapse state.
func (v *VaultHost) ToggleFold() {
	v.mu.Lock()
	v.folded = !v.folded
	folded := v.folded
	v.mu.Unlock()
	v.logger.Debug("fold toggled", "folded", folded)
}

// OnDocumentOpen implements host.Host.
func (v *VaultHost) OnDocumentOpen(fn func(string)) host.UnsubscribeFunc {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSubID
	v.nextSubID++
	v.onOpen[id] = fn
	return v.unsubscribe(func() { delete(v.onOpen, id) })
}

// OnSurfaceChange implements host.Host.
func (v *VaultHost) OnSurfaceChange(fn func(models.SurfaceKind)) host.UnsubscribeFunc {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSubID
	v.nextSubID++
	v.onSurface[id] = fn
	return v.unsubscribe(func() { delete(v.onSurface, id) })
}

// OnContentChange implements host.Host.
func (v *VaultHost) OnContentChange(fn func(string)) host.UnsubscribeFunc {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSubID
	v.nextSubID++
	v.onContent[id] = fn
	return v.unsubscribe(func() { delete(v.onContent, id) })
}

// OnInput implements host.Host. A filesystem host has no input surface;
// the subscription is honored but never fires.
func (v *VaultHost) OnInput(fn func()) host.UnsubscribeFunc {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSubID
	v.nextSubID++
	v.onInput[id] = fn
	return v.unsubscribe(func() { delete(v.onInput, id) })
}

// unsubscribe wraps removal so calling the returned func twice is safe.
func (v *VaultHost) unsubscribe(remove func()) host.UnsubscribeFunc {
	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			remove()
		})
	}
}

// Close stops the watcher and event delivery.
func (v *VaultHost) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.mu.Unlock()

	close(v.done)
	if v.watcher != nil {
		return v.watcher.Close()
	}
	return nil
}

func collect[T any](m map[int]T) []T {
	out := make([]T, 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}
