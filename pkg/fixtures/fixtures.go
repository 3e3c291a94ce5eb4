package fixtures

import (
	"context"
	"fmt"
	"os"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Project struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Member struct {
	UserID string           `yaml:"userId"`
	Name   string           `yaml:"name"`
	Email  string           `yaml:"email"`
	Role   types.MemberRole `yaml:"role"`
}

// Fixture is a project snapshot: members, the assets bundles act on, and the
// bundles themselves. Assets and bundles inherit the project id when theirs is empty.
type Fixture struct {
	Project Project               `yaml:"project"`
	Members []Member              `yaml:"members"`
	Assets  []types.AssetMetadata `yaml:"assets"`
	Bundles []types.ActionBundle  `yaml:"bundles"`
}

func Load(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if f.Project.ID == "" {
		return nil, fmt.Errorf("fixture has no project id")
	}

	for i := range f.Assets {
		if f.Assets[i].ProjectID == "" {
			f.Assets[i].ProjectID = f.Project.ID
		}
	}
	for i := range f.Bundles {
		if f.Bundles[i].BundleID == "" {
			return nil, fmt.Errorf("bundle %d has no bundleId", i)
		}
		if f.Bundles[i].ProjectID == "" {
			f.Bundles[i].ProjectID = f.Project.ID
		}
	}
	for _, m := range f.Members {
		switch m.Role {
		case types.MemberRoleOwner, types.MemberRoleEditor, types.MemberRoleViewer:
		default:
			return nil, fmt.Errorf("member %s has unknown role %q", m.UserID, m.Role)
		}
	}

	return &f, nil
}

// Member returns the first member with the role, if any.
func (f *Fixture) Member(role types.MemberRole) (Member, bool) {
	for _, m := range f.Members {
		if m.Role == role {
			return m, true
		}
	}
	return Member{}, false
}

// Seed writes the fixture through the work queue store. Every write is an
// upsert, so seeding twice resets the bundles to the fixture's state.
func Seed(ctx context.Context, f *Fixture) error {
	if err := workqueue.CreateProject(ctx, f.Project.ID, f.Project.Name); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	for _, m := range f.Members {
		if err := workqueue.AddProjectMember(ctx, f.Project.ID, m.UserID, m.Name, m.Email, m.Role); err != nil {
			return fmt.Errorf("failed to add member %s: %w", m.UserID, err)
		}
	}

	for _, a := range f.Assets {
		if err := workqueue.UpsertAsset(ctx, a); err != nil {
			return fmt.Errorf("failed to upsert asset %s: %w", a.Handle, err)
		}
	}

	for _, b := range f.Bundles {
		if err := workqueue.CreateActionBundle(ctx, b); err != nil {
			return fmt.Errorf("failed to create bundle %s: %w", b.BundleID, err)
		}
	}

	logger.Info("Seeded fixture",
		zap.String("projectId", f.Project.ID),
		zap.Int("members", len(f.Members)),
		zap.Int("assets", len(f.Assets)),
		zap.Int("bundles", len(f.Bundles)))

	return nil
}
