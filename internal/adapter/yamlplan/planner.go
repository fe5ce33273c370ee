// Package yamlplan implements a planner that reads a task graph from a
// YAML file. Descriptions may contain {{prompt}}, which is replaced with
// the request text.
package yamlplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/port/planner"
)

const (
	providerName = "yaml"
	placeholder  = "{{prompt}}"
)

// File is the on-disk plan format.
type File struct {
	Tasks []task.Descriptor `yaml:"tasks"`
}

// Validate checks every descriptor and that IDs are unique within the file.
func (f *File) Validate() error {
	if len(f.Tasks) == 0 {
		return errors.New("plan has no tasks")
	}
	seen := make(map[string]bool, len(f.Tasks))
	for i := range f.Tasks {
		d := &f.Tasks[i]
		if err := d.Validate(); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
		if seen[d.ID] {
			return fmt.Errorf("task %d: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// Load reads and validates a plan file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read plan file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates plan YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validate plan: %w", err)
	}
	return &f, nil
}

// Planner expands a plan file for each prompt. The plan can be swapped
// while the planner is in use; see Watch.
type Planner struct {
	plan      atomic.Pointer[File]
	newPrefix func() string
}

// New creates a Planner from an already loaded plan.
func New(plan *File) *Planner {
	p := &Planner{newPrefix: func() string { return uuid.NewString()[:8] }}
	p.plan.Store(plan)
	return p
}

// Reload re-reads path and replaces the active plan. On error the previous
// plan stays active.
func (p *Planner) Reload(path string) error {
	f, err := Load(path)
	if err != nil {
		return err
	}
	p.plan.Store(f)
	return nil
}

// Watch reloads the plan whenever path is written or replaced, until ctx
// is done. The parent directory is watched so editors that save through a
// rename are picked up.
func (p *Planner) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("yamlplan: watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("yamlplan: watch %s: %w", path, err)
	}
	go p.watch(ctx, w, filepath.Clean(path))
	return nil
}

func (p *Planner) watch(ctx context.Context, w *fsnotify.Watcher, path string) {
	defer func() { _ = w.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if err := p.Reload(path); err != nil {
				slog.Warn("plan reload failed, keeping previous plan", "file", path, "error", err)
				continue
			}
			slog.Info("plan reloaded", "file", path)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("plan watcher error", "file", path, "error", err)
		}
	}
}

func (p *Planner) Name() string { return providerName }

// Plan implements planner.Planner.
func (p *Planner) Plan(_ context.Context, prompt string) ([]task.Descriptor, error) {
	if prompt == "" {
		return nil, planner.ErrEmptyPrompt
	}

	plan := p.plan.Load()
	descs := make([]task.Descriptor, len(plan.Tasks))
	for i, d := range plan.Tasks {
		descs[i] = task.Descriptor{
			ID:           d.ID,
			Description:  strings.ReplaceAll(d.Description, placeholder, prompt),
			Role:         d.Role,
			Dependencies: d.Dependencies,
		}
	}
	return planner.Namespace(p.newPrefix(), descs), nil
}

func init() {
	planner.Register(providerName, func(cfg map[string]string) (planner.Planner, error) {
		path := cfg["file"]
		if path == "" {
			return nil, errors.New("yamlplan: file is required")
		}
		f, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("yamlplan: %w", err)
		}
		return New(f), nil
	})
}
