package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	clierrors "github.com/pebble-dev/pebblectl/internal/errors"
	"github.com/pebble-dev/pebblectl/internal/prompt"
	"github.com/pebble-dev/pebblectl/internal/runner"
)

// ProjectRequest describes a new project. Empty fields are asked for or
// defaulted.
type ProjectRequest struct {
	Name string
	Kind string

	// Dir is the parent directory. It defaults to the last used location,
	// then the home directory.
	Dir string
}

// NewProject creates a project from a template and returns its path.
func (o *Orchestrator) NewProject(ctx context.Context, req ProjectRequest) (string, error) {
	kind, err := o.selectKind(ctx, req.Kind)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, err = o.chooser().Input(ctx, "Project name", "my-watchface")
		if err != nil {
			return "", o.promptError(err, "project name", "a NAME argument")
		}
	}

	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", clierrors.InvalidArgument("project name", name, "a name without path separators")
	}

	dir, err := o.projectDir(req.Dir)
	if err != nil {
		return "", err
	}

	if _, err := o.EnsureToolchain(ctx); err != nil {
		return "", err
	}

	if o.Workspace != nil {
		if err := o.Workspace.RememberPath(dir); err != nil {
			o.out().Warning("Could not remember %s: %v", dir, err)
		}
	}

	c, err := o.Runner.NewProject(ctx, dir, name, kind)
	if err := o.completionError("pebble new-project", c, err); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	o.out().Success("Created %s project at %s", kind, path)

	return path, nil
}

func (o *Orchestrator) selectKind(ctx context.Context, explicit string) (runner.ProjectKind, error) {
	if explicit != "" {
		kind, ok := runner.ParseProjectKind(explicit)
		if !ok {
			return "", clierrors.InvalidArgument("project type", explicit, "c, simple or js")
		}

		return kind, nil
	}

	options := make([]prompt.Option, len(runner.ProjectKinds))
	for i, k := range runner.ProjectKinds {
		options[i] = prompt.Option{Label: string(k), Detail: k.Detail()}
	}

	picked, err := o.chooser().Choose(ctx, "Project type", options)
	if err != nil {
		return "", o.promptError(err, "project type", "--type")
	}

	kind, _ := runner.ParseProjectKind(picked)

	return kind, nil
}

func (o *Orchestrator) projectDir(explicit string) (string, error) {
	dir := explicit

	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}

		dir = home
		if o.Workspace != nil {
			dir = o.Workspace.LastPathOr(home)
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", clierrors.InvalidArgument("directory", dir, "a valid path")
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", clierrors.InvalidArgument("directory", abs, "an existing directory")
	}

	return abs, nil
}
