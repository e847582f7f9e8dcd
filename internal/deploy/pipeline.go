// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/monodeploy/monodeploy/internal/build"
	"github.com/monodeploy/monodeploy/internal/rewrite"
	"github.com/monodeploy/monodeploy/internal/staging"
	"github.com/monodeploy/monodeploy/internal/venv"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// DefaultOutputDir is the output directory used when a request names none.
const DefaultOutputDir = "dist"

type (
	// ProjectContext receives the staged project once it is ready to be built.
	ProjectContext interface {
		SetCurrent(m *pyproject.Manifest)
	}

	// FileCollector lists the files of a project that belong in its
	// distribution.
	FileCollector interface {
		FilesToAdd(ctx context.Context, m *pyproject.Manifest) ([]build.File, error)
	}

	// Installer installs dependencies into a virtual environment.
	Installer interface {
		Install(ctx context.Context, req venv.Request) error
	}

	// Dependencies are the collaborators of a Pipeline. Nil fields are
	// replaced with defaults by New.
	Dependencies struct {
		Project   ProjectContext
		Files     FileCollector
		Installer Installer
		Logger    *log.Logger
	}

	// Request describes one deploy run.
	Request struct {
		// ManifestPath is the project's pyproject.toml or its directory.
		ManifestPath string
		// TopNamespace is the raw namespace option; it is normalized.
		TopNamespace string
		// OutputDir receives the files of the distribution.
		OutputDir string
		// Prefix names the staging directory (".<prefix>_<name>").
		Prefix string
		// Exclude are extra patterns never copied into the staging tree.
		Exclude []string
		// WithVenv installs a virtual environment into OutputDir/.venv.
		WithVenv bool
		// SkipRewrite leaves imports untouched even with a namespace.
		SkipRewrite bool
		// KeepStaging leaves the staging tree on disk.
		KeepStaging bool
	}

	// Result describes what a run produced. It is returned even on failure,
	// filled as far as the run got.
	Result struct {
		Manifest   string
		StagingDir string
		Generated  string
		Namespace  staging.TopNamespace
		Relocated  []staging.RelocatedPackage
		Rewritten  []string
		OutputDir  string
		Artifacts  []string
		VenvPath   string
		State      State
	}

	// Pipeline runs deploys. Runs are sequential; see the package docs.
	Pipeline struct {
		project   ProjectContext
		files     FileCollector
		installer Installer
		logger    *log.Logger
		state     atomic.Int32
	}

	// CurrentProject is a ProjectContext that remembers the last project set.
	CurrentProject struct {
		mu sync.Mutex
		m  *pyproject.Manifest
	}
)

// SetCurrent records m as the current project.
func (c *CurrentProject) SetCurrent(m *pyproject.Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = m
}

// Current returns the last project set, or nil.
func (c *CurrentProject) Current() *pyproject.Manifest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m
}

// New creates a Pipeline, filling nil dependencies with defaults.
func New(deps Dependencies) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Project == nil {
		deps.Project = &CurrentProject{}
	}
	if deps.Files == nil {
		deps.Files = build.NewCollector()
	}
	if deps.Installer == nil {
		deps.Installer = venv.NewInstaller(venv.WithLogger(deps.Logger))
	}
	return &Pipeline{
		project:   deps.Project,
		files:     deps.Files,
		installer: deps.Installer,
		logger:    deps.Logger,
	}
}

// State returns the state the last run reached.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
	p.logger.Debug("Pipeline state", "state", s)
}

// ResolveManifest turns a project directory or manifest path into the
// absolute manifest path. An empty path means the working directory.
func ResolveManifest(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &pyproject.ManifestError{Path: path, Reason: "resolve path", Err: err}
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		abs = filepath.Join(abs, pyproject.FileName)
	}
	return abs, nil
}

// Run executes one deploy. Once the staging directory is claimed, it is
// removed when Run returns, whatever happened, unless req.KeepStaging is set.
// A cleanup failure is joined to the run's error and leaves the run in
// StateFailedDirty.
func (p *Pipeline) Run(ctx context.Context, req Request) (res *Result, err error) {
	p.setState(StateIdle)
	res = &Result{}
	defer func() { res.State = p.State() }()

	manifestPath, err := ResolveManifest(req.ManifestPath)
	if err != nil {
		return res, p.abort(err)
	}
	m, err := pyproject.Load(manifestPath)
	if err != nil {
		return res, p.abort(err)
	}
	res.Manifest = m.Path
	p.logger.Info("Using", "manifest", m.Path, "package", m.Name, "version", m.Version)
	if wd, wdErr := os.Getwd(); wdErr == nil {
		p.logger.Debug("Working directory", "path", wd)
	}

	ns := staging.NormalizeTopNamespace(req.TopNamespace)
	res.Namespace = ns
	if !ns.IsZero() {
		p.logger.Info("Using normalized top namespace", "namespace", ns)
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	if res.OutputDir, err = filepath.Abs(outputDir); err != nil {
		return res, p.abort(fmt.Errorf("resolve output directory: %w", err))
	}

	folder, err := staging.DestinationFolder(m.Path)
	if err != nil {
		return res, p.abort(err)
	}
	res.StagingDir = filepath.Join(folder, staging.StagingDirName(req.Prefix, m.Name))

	// Leftovers of an interrupted run are scratch space.
	if err := staging.RemoveProject(res.StagingDir); err != nil {
		p.setState(StateFailedDirty)
		return res, err
	}

	defer p.finish(req, res, &err)

	if err := p.stage(ctx, req, m, ns, res); err != nil {
		return res, err
	}

	if req.WithVenv {
		if err := p.installVenv(ctx, m, res); err != nil {
			return res, err
		}
	}

	staged, err := pyproject.Load(res.Generated)
	if err != nil {
		return res, err
	}
	p.project.SetCurrent(staged)
	p.setState(StateExternalBuildInvoked)

	if !ns.IsZero() && !req.SkipRewrite {
		rewritten, err := rewrite.RewriteTree(ctx, res.StagingDir, ns)
		res.Rewritten = rewritten
		for _, path := range rewritten {
			p.logger.Info("Updated with new top namespace for local imports", "module", filepath.Join(filepath.Base(filepath.Dir(path)), filepath.Base(path)))
		}
		if err != nil {
			return res, err
		}
		p.setState(StateNamespaceRewritten)
	}

	if err := p.copyArtifacts(ctx, staged, res); err != nil {
		return res, err
	}
	p.setState(StateArtifactsCopied)
	return res, nil
}

func (p *Pipeline) stage(ctx context.Context, req Request, m *pyproject.Manifest, ns staging.TopNamespace, res *Result) error {
	if err := staging.CopyProject(ctx, m, res.StagingDir, req.Exclude); err != nil {
		return err
	}
	p.setState(StateStaged)

	relocated, err := staging.CopyPackages(ctx, m, res.StagingDir, ns, req.Exclude)
	res.Relocated = relocated
	if err != nil {
		return err
	}
	for _, rp := range relocated {
		p.logger.Debug("Relocated package", "name", rp.Name, "kind", rp.Kind, "from", rp.Source)
	}
	p.logger.Info("Copied project and packages into temporary folder", "path", res.StagingDir)
	p.setState(StatePackagesCollected)

	generated, err := staging.CreateProjectFile(m, res.StagingDir, ns, relocated)
	if err != nil {
		return err
	}
	res.Generated = generated
	p.logger.Info("Generated", "manifest", generated)
	p.setState(StateManifestGenerated)
	return nil
}

func (p *Pipeline) installVenv(ctx context.Context, m *pyproject.Manifest, res *Result) error {
	root, err := venv.FindRootManifest(m.Path)
	if err != nil {
		return err
	}
	res.VenvPath = filepath.Join(res.OutputDir, venv.DirName)
	return p.installer.Install(ctx, venv.Request{
		RootManifest:    root,
		ProjectManifest: m.Path,
		Path:            res.VenvPath,
	})
}

func (p *Pipeline) copyArtifacts(ctx context.Context, staged *pyproject.Manifest, res *Result) error {
	files, err := p.files.FilesToAdd(ctx, staged)
	if err != nil {
		return err
	}
	p.logger.Info("Target directory", "path", res.OutputDir)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(res.OutputDir, filepath.FromSlash(f.Rel))
		if err := staging.CopyFile(f.Path, dst); err != nil {
			return err
		}
		p.logger.Debug("Copied", "file", f.Rel)
		res.Artifacts = append(res.Artifacts, dst)
	}
	p.logger.Info("Copied files", "count", len(res.Artifacts), "output", res.OutputDir)
	return nil
}

// abort ends a run that failed before the staging tree was claimed.
func (p *Pipeline) abort(err error) error {
	p.setState(StateFailedCleaned)
	return err
}

// finish removes the staging tree and settles the terminal state. errp is the
// run's named error result.
func (p *Pipeline) finish(req Request, res *Result, errp *error) {
	if req.KeepStaging {
		p.logger.Info("Kept temporary folder", "path", res.StagingDir)
		if *errp != nil {
			p.setState(StateFailedDirty)
		}
		return
	}

	cleanErr := staging.RemoveProject(res.StagingDir)
	switch {
	case cleanErr == nil && *errp == nil:
		p.logger.Info("Removed temporary folder")
		p.setState(StateCleaned)
	case cleanErr == nil:
		p.logger.Debug("Removed temporary folder after failure", "path", res.StagingDir)
		p.setState(StateFailedCleaned)
	default:
		p.logger.Error("Failed to remove temporary folder", "path", res.StagingDir, "err", cleanErr)
		*errp = errors.Join(*errp, cleanErr)
		p.setState(StateFailedDirty)
	}
}
