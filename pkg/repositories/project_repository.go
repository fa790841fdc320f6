package repositories

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// ProjectRepository gives read access to the project catalog.
type ProjectRepository interface {
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
}

// projectCatalog is the on-disk layout of the projects file.
type projectCatalog struct {
	Projects []models.Project `yaml:"projects"`
}

type fileProjectRepository struct {
	projects map[string]models.Project
}

// NewFileProjectRepository loads a YAML project catalog. ${VAR} references
// are expanded from the environment before parsing, so passwords can stay
// out of the file.
func NewFileProjectRepository(path string) (ProjectRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project catalog %s: %w", path, err)
	}
	return ParseProjectCatalog(data)
}

// ParseProjectCatalog builds a repository from catalog YAML.
func ParseProjectCatalog(data []byte) (ProjectRepository, error) {
	var catalog projectCatalog
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse project catalog: %w", err)
	}

	projects := make(map[string]models.Project, len(catalog.Projects))
	for _, p := range catalog.Projects {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
		if _, dup := projects[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate project id %s", apperrors.ErrInvalidInput, p.ID)
		}
		projects[p.ID] = p
	}

	return &fileProjectRepository{projects: projects}, nil
}

var _ ProjectRepository = (*fileProjectRepository)(nil)

// Get returns a copy so callers cannot modify the catalog.
func (r *fileProjectRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r *fileProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	ids := make([]string, 0, len(r.projects))
	for id := range r.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*models.Project, 0, len(ids))
	for _, id := range ids {
		p := r.projects[id]
		out = append(out, &p)
	}
	return out, nil
}
