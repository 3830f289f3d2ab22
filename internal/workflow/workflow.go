// Package workflow loads the project's workflow definition file and turns
// it into an operation registry. Operations declared in YAML execute shell
// commands in the job's workspace directory; projects that need arbitrary
// Go actions use the engine package directly and register their own.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mhutchins/flowspace/internal/engine"
	"github.com/mhutchins/flowspace/internal/job"
)

// DefaultFile is the workflow definition looked up at the project root.
const DefaultFile = "flowspace.yaml"

// ErrNoWorkflow indicates the project has no workflow definition file.
var ErrNoWorkflow = errors.New("no workflow file (create flowspace.yaml)")

// Environment variables exported to operation commands.
const (
	EnvJobID       = "FLOWSPACE_JOB_ID"
	EnvJobDir      = "FLOWSPACE_JOB_DIR"
	EnvProjectRoot = "FLOWSPACE_PROJECT_ROOT"
)

// File is the top-level shape of flowspace.yaml.
type File struct {
	Operations []OpSpec `yaml:"operations"`
}

// OpSpec declares one operation.
type OpSpec struct {
	Name string     `yaml:"name"`
	Cmd  string     `yaml:"cmd"`
	Pre  []CondSpec `yaml:"pre,omitempty"`
	Post []CondSpec `yaml:"post,omitempty"`
}

// CondSpec declares one condition. Exactly one field must be set:
//
//	file: input.dat          a named file exists in the job workspace
//	doc: t_max               the job document key is truthy
//	project-doc: aggregated  the project document key is truthy
//	after: setup             the named operation is complete (pre only)
type CondSpec struct {
	File       string `yaml:"file,omitempty"`
	Doc        string `yaml:"doc,omitempty"`
	ProjectDoc string `yaml:"project-doc,omitempty"`
	After      string `yaml:"after,omitempty"`
}

func (c CondSpec) count() int {
	n := 0
	for _, s := range []string{c.File, c.Doc, c.ProjectDoc, c.After} {
		if s != "" {
			n++
		}
	}
	return n
}

// Load parses a workflow file and builds the registry. projectRoot is
// exported to operation commands.
func Load(path, projectRoot string) (*engine.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoWorkflow, path)
		}
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	reg := engine.NewRegistry()
	for _, spec := range file.Operations {
		op, err := buildOperation(spec, projectRoot)
		if err != nil {
			return nil, fmt.Errorf("%s: operation %q: %w", path, spec.Name, err)
		}
		if err := reg.Register(op); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// LoadProject loads the default workflow file at the project root.
func LoadProject(projectRoot string) (*engine.Registry, error) {
	return Load(filepath.Join(projectRoot, DefaultFile), projectRoot)
}

func buildOperation(spec OpSpec, projectRoot string) (engine.Operation, error) {
	if spec.Name == "" {
		return engine.Operation{}, errors.New("missing name")
	}
	if spec.Cmd == "" {
		return engine.Operation{}, errors.New("missing cmd")
	}

	op := engine.Operation{
		Name:      spec.Name,
		Action:    execAction(spec.Cmd, projectRoot),
		Directive: spec.Cmd,
	}
	for _, cs := range spec.Pre {
		if cs.After != "" {
			if cs.count() != 1 {
				return engine.Operation{}, fmt.Errorf("condition %+v sets more than one kind", cs)
			}
			op.After = append(op.After, cs.After)
			continue
		}
		cond, err := buildCondition(cs)
		if err != nil {
			return engine.Operation{}, err
		}
		op.Pre = append(op.Pre, cond)
	}
	for _, cs := range spec.Post {
		if cs.After != "" {
			return engine.Operation{}, errors.New("'after' is only valid as a pre-condition")
		}
		cond, err := buildCondition(cs)
		if err != nil {
			return engine.Operation{}, err
		}
		op.Post = append(op.Post, cond)
	}
	return op, nil
}

func buildCondition(cs CondSpec) (engine.Condition, error) {
	if cs.count() != 1 {
		return engine.Condition{}, fmt.Errorf("condition %+v must set exactly one of file/doc/project-doc/after", cs)
	}
	switch {
	case cs.File != "":
		return engine.FileExists(cs.File), nil
	case cs.Doc != "":
		return engine.DocTruthy(cs.Doc), nil
	default:
		return engine.ProjectDocTruthy(cs.ProjectDoc), nil
	}
}

// execAction runs a shell command in the job's workspace directory. The
// command's side effects (document writes through the CLI, output files)
// are what later condition evaluations observe.
func execAction(command, projectRoot string) engine.Action {
	return func(ctx context.Context, j *job.Job) error {
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = j.Dir()
		cmd.Env = append(os.Environ(),
			EnvJobID+"="+string(j.ID()),
			EnvJobDir+"="+j.Dir(),
			EnvProjectRoot+"="+projectRoot,
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w: %s", command, err, firstLine(out))
		}
		return nil
	}
}

func firstLine(out []byte) string {
	for i, b := range out {
		if b == '\n' {
			return string(out[:i])
		}
	}
	return string(out)
}
