package entity

import (
	"context"

	"github.com/eringen/folioadmin/remote"
)

// Entity definitions. Ordering is fixed per entity.
var (
	BioDef = Definition{
		Name: "bio", Table: "bio", Label: "bio",
		Ops: OpCreate | OpUpdate,
	}
	EducationDef = Definition{
		Name: "education", Table: "education", Label: "education entry",
		Order: []remote.QueryOption{remote.Order("date", false)},
		Ops:   OpAll,
	}
	ExperienceDef = Definition{
		Name: "experiences", Table: "experiences", Label: "experience",
		Order: []remote.QueryOption{remote.Order("date", false)},
		Ops:   OpAll,
	}
	SkillCategoryDef = Definition{
		Name: "skill-categories", Table: "skill_categories", Label: "skill category",
		Order: []remote.QueryOption{remote.Order("title", true)},
		Ops:   OpAll,
	}
	SkillDef = Definition{
		Name: "skills", Table: "skills", Label: "skill",
		Order: []remote.QueryOption{remote.Order("name", true)},
		Ops:   OpAll,
	}
	ProjectDef = Definition{
		Name: "projects", Table: "projects", Label: "project",
		Order: []remote.QueryOption{remote.Order("created_at", false)},
		Ops:   OpAll,
	}
	BlogPostDef = Definition{
		Name: "blog-posts", Table: "blog_posts", Label: "blog post",
		Order: []remote.QueryOption{remote.Order("created_at", false)},
		Ops:   OpAll,
	}
	ContactDef = Definition{
		Name: "contacts", Table: "contacts", Label: "message",
		Order: []remote.QueryOption{remote.Order("created_at", false)},
		Ops:   OpDelete,
	}
	DashboardDef = Definition{
		Name: "dashboards", Table: "dashboards", Label: "dashboard",
		Order: []remote.QueryOption{remote.Order("created_at", false)},
		Ops:   OpAll,
	}
)

// Hooks is every entity hook the console uses.
type Hooks struct {
	Bio             *Hook[Bio, BioInput]
	Education       *Hook[Education, EducationInput]
	Experiences     *Hook[Experience, ExperienceInput]
	SkillCategories *Hook[SkillCategory, SkillCategoryInput]
	Skills          *Hook[Skill, SkillInput]
	Projects        *Hook[Project, ProjectInput]
	BlogPosts       *Hook[BlogPost, BlogPostInput]
	Contacts        *Hook[Contact, ReadOnly]
	Dashboards      *Hook[Dashboard, DashboardInput]
	Sessions        *SessionHook
}

// NewHooks builds every hook over the same dependencies.
func NewHooks(deps Deps) *Hooks {
	return &Hooks{
		Bio:             NewHook[Bio, BioInput](BioDef, deps),
		Education:       NewHook[Education, EducationInput](EducationDef, deps),
		Experiences:     NewHook[Experience, ExperienceInput](ExperienceDef, deps),
		SkillCategories: NewHook[SkillCategory, SkillCategoryInput](SkillCategoryDef, deps),
		Skills:          NewHook[Skill, SkillInput](SkillDef, deps),
		Projects:        NewHook[Project, ProjectInput](ProjectDef, deps),
		BlogPosts:       NewHook[BlogPost, BlogPostInput](BlogPostDef, deps),
		Contacts:        NewHook[Contact, ReadOnly](ContactDef, deps),
		Dashboards:      NewHook[Dashboard, DashboardInput](DashboardDef, deps),
		Sessions:        NewSessionHook(deps),
	}
}

type watcher interface {
	Watch() (stop func())
}

// Watch makes every table-backed hook re-fetch after its key is
// invalidated. Sessions are per admin and are re-read on demand.
func (h *Hooks) Watch() (stop func()) {
	ws := []watcher{
		h.Bio, h.Education, h.Experiences, h.SkillCategories, h.Skills,
		h.Projects, h.BlogPosts, h.Contacts, h.Dashboards,
	}
	stops := make([]func(), 0, len(ws))
	for _, w := range ws {
		stops = append(stops, w.Watch())
	}
	return func() {
		for _, s := range stops {
			s()
		}
	}
}

// CurrentBio returns the single bio row, if one exists.
func (h *Hooks) CurrentBio(ctx context.Context) (Bio, bool, error) {
	res := h.Bio.Read(ctx)
	if res.Err != nil {
		return Bio{}, false, res.Err
	}
	if len(res.Data) == 0 {
		return Bio{}, false, nil
	}
	return res.Data[0], true, nil
}

// Count is the number of rows of one entity.
type Count struct {
	Name  string
	Label string
	Rows  int
	Err   error
}

// Counts reads every table-backed entity, for the home page.
func (h *Hooks) Counts(ctx context.Context) []Count {
	return []Count{
		count(ctx, h.Education),
		count(ctx, h.Experiences),
		count(ctx, h.SkillCategories),
		count(ctx, h.Skills),
		count(ctx, h.Projects),
		count(ctx, h.BlogPosts),
		count(ctx, h.Contacts),
		count(ctx, h.Dashboards),
	}
}

func count[T Row, In Payload[In]](ctx context.Context, h *Hook[T, In]) Count {
	res := h.Read(ctx)
	return Count{Name: h.def.Name, Label: h.def.Label, Rows: len(res.Data), Err: res.Err}
}
