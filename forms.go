package folioadmin

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/eringen/folioadmin/entity"
	"github.com/eringen/folioadmin/form"
	"github.com/eringen/folioadmin/listing"
	"github.com/eringen/folioadmin/views"
)

// Field constructors. Names match the JSON names so validation errors land
// on the right control.

func textField(name, label, value string, required bool) views.Field {
	return views.Field{Name: name, Label: label, Kind: views.KindText, Value: value, Required: required}
}

func areaField(name, label, value string, required bool) views.Field {
	return views.Field{Name: name, Label: label, Kind: views.KindTextarea, Value: value, Required: required}
}

func urlField(name, label string, value *string) views.Field {
	return views.Field{Name: name, Label: label, Kind: views.KindURL, Value: form.Value(value), Placeholder: "https://"}
}

func dateField(name, label, value string) views.Field {
	return views.Field{Name: name, Label: label, Kind: views.KindDate, Value: value, Required: true}
}

func checkField(name, label string, checked bool) views.Field {
	return views.Field{Name: name, Label: label, Kind: views.KindCheckbox, Checked: checked}
}

func chipsField(name, label string, values []string, placeholder string) views.Field {
	return views.Field{Name: name, Label: label, Kind: views.KindChips, Values: values, Placeholder: placeholder}
}

func readField(label, value string) views.Field {
	return views.Field{Name: strings.ToLower(label), Label: label, Kind: views.KindReadOnly, Value: value}
}

func optional(v url.Values, name string) *string {
	return form.Optional(v.Get(name))
}

func checked(v url.Values, name string) bool {
	return v.Get(name) != ""
}

func ptr(s *string) string { return form.Value(s) }

func publishedFilter(selected string) *views.Filter {
	if selected == "" {
		selected = listing.All
	}
	return &views.Filter{
		Param:    "status",
		Label:    "Status",
		Selected: selected,
		Options: []views.Option{
			{Value: listing.All, Label: "All"},
			{Value: listing.Published, Label: "Published"},
			{Value: listing.Draft, Label: "Drafts"},
		},
	}
}

func (a *App) buildResources() []routable {
	h := a.Hooks
	return []routable{
		&resource[entity.Bio, entity.BioInput]{
			app: a, hook: h.Bio, plural: "Bio", singleton: true,
			empty:  "No bio yet. Create one to introduce yourself.",
			search: []func(entity.Bio) string{func(b entity.Bio) string { return b.Name }},
			item: func(b entity.Bio) views.Item {
				return views.Item{Title: b.Name, Subtitle: strings.Join(b.Roles, " · "), Body: b.Description, Image: ptr(b.Image)}
			},
			title: func(b entity.Bio) string { return b.Name },
			blank: func() entity.BioInput { return entity.BioInput{Roles: []string{}} },
			input: entity.Bio.InputOf,
			bind: func(v url.Values) entity.BioInput {
				return entity.BioInput{
					Name:        v.Get("name"),
					Roles:       form.List(v["roles"]),
					Description: v.Get("description"),
					Github:      optional(v, "github"),
					Linkedin:    optional(v, "linkedin"),
					Twitter:     optional(v, "twitter"),
					Insta:       optional(v, "insta"),
					Facebook:    optional(v, "facebook"),
					Resume:      optional(v, "resume"),
					Image:       optional(v, "image"),
				}
			},
			fields: func(_ context.Context, in entity.BioInput) []views.Field {
				return []views.Field{
					textField("name", "Name", in.Name, true),
					chipsField("roles", "Roles", in.Roles, "Add a role"),
					areaField("description", "Description", in.Description, true),
					urlField("github", "GitHub", in.Github),
					urlField("linkedin", "LinkedIn", in.Linkedin),
					urlField("twitter", "Twitter", in.Twitter),
					urlField("insta", "Instagram", in.Insta),
					urlField("facebook", "Facebook", in.Facebook),
					urlField("resume", "Resume", in.Resume),
					urlField("image", "Image", in.Image),
				}
			},
		},

		&resource[entity.Education, entity.EducationInput]{
			app: a, hook: h.Education, plural: "Education",
			empty: "No education entries yet.",
			search: []func(entity.Education) string{
				func(e entity.Education) string { return e.School },
				func(e entity.Education) string { return e.Degree },
			},
			item: func(e entity.Education) views.Item {
				it := views.Item{Title: e.School, Subtitle: e.Degree, Body: ptr(e.Description), Image: ptr(e.Img), Meta: []string{e.Date}}
				if e.Grade != nil {
					it.Meta = append(it.Meta, "Grade "+*e.Grade)
				}
				return it
			},
			title: func(e entity.Education) string { return e.School },
			blank: func() entity.EducationInput { return entity.EducationInput{} },
			input: entity.Education.InputOf,
			bind: func(v url.Values) entity.EducationInput {
				return entity.EducationInput{
					School:      v.Get("school"),
					Degree:      v.Get("degree"),
					Date:        v.Get("date"),
					Grade:       optional(v, "grade"),
					Description: optional(v, "description"),
					Img:         optional(v, "img"),
				}
			},
			fields: func(_ context.Context, in entity.EducationInput) []views.Field {
				return []views.Field{
					textField("school", "School", in.School, true),
					textField("degree", "Degree", in.Degree, true),
					textField("date", "Dates", in.Date, true),
					textField("grade", "Grade", ptr(in.Grade), false),
					areaField("description", "Description", ptr(in.Description), false),
					urlField("img", "Image", in.Img),
				}
			},
		},

		&resource[entity.Experience, entity.ExperienceInput]{
			app: a, hook: h.Experiences, plural: "Experience",
			empty: "No experience yet.",
			search: []func(entity.Experience) string{
				func(e entity.Experience) string { return e.Role },
				func(e entity.Experience) string { return e.Company },
			},
			item: func(e entity.Experience) views.Item {
				return views.Item{Title: e.Role, Subtitle: e.Company, Body: e.Desc, Image: ptr(e.Img), Meta: []string{e.Date}, Tags: e.Skills}
			},
			title: func(e entity.Experience) string { return e.Role + " at " + e.Company },
			blank: func() entity.ExperienceInput { return entity.ExperienceInput{Skills: []string{}} },
			input: entity.Experience.InputOf,
			bind: func(v url.Values) entity.ExperienceInput {
				return entity.ExperienceInput{
					Role:    v.Get("role"),
					Company: v.Get("company"),
					Date:    v.Get("date"),
					Desc:    v.Get("desc"),
					Desc2:   optional(v, "desc2"),
					Desc3:   optional(v, "desc3"),
					Skills:  form.List(v["skills"]),
					Doc:     optional(v, "doc"),
					Img:     optional(v, "img"),
				}
			},
			fields: func(_ context.Context, in entity.ExperienceInput) []views.Field {
				return []views.Field{
					textField("role", "Role", in.Role, true),
					textField("company", "Company", in.Company, true),
					textField("date", "Dates", in.Date, true),
					areaField("desc", "Description", in.Desc, true),
					areaField("desc2", "Description (2)", ptr(in.Desc2), false),
					areaField("desc3", "Description (3)", ptr(in.Desc3), false),
					chipsField("skills", "Skills", in.Skills, "Add a skill"),
					urlField("doc", "Document", in.Doc),
					urlField("img", "Logo", in.Img),
				}
			},
		},

		&resource[entity.SkillCategory, entity.SkillCategoryInput]{
			app: a, hook: h.SkillCategories, plural: "Skill categories",
			empty:  "No skill categories yet.",
			search: []func(entity.SkillCategory) string{func(s entity.SkillCategory) string { return s.Title }},
			item: func(s entity.SkillCategory) views.Item {
				return views.Item{Title: s.Title}
			},
			title: func(s entity.SkillCategory) string { return s.Title },
			blank: func() entity.SkillCategoryInput { return entity.SkillCategoryInput{} },
			input: entity.SkillCategory.InputOf,
			bind: func(v url.Values) entity.SkillCategoryInput {
				return entity.SkillCategoryInput{Title: v.Get("title")}
			},
			fields: func(_ context.Context, in entity.SkillCategoryInput) []views.Field {
				return []views.Field{textField("title", "Title", in.Title, true)}
			},
		},

		a.skillResource(),

		&resource[entity.Project, entity.ProjectInput]{
			app: a, hook: h.Projects, plural: "Projects",
			empty: "No projects yet.",
			search: []func(entity.Project) string{
				func(p entity.Project) string { return p.Title },
				func(p entity.Project) string { return p.Description },
				func(p entity.Project) string { return strings.Join(p.Tags, " ") },
			},
			filter: func(_ context.Context, rows []entity.Project, selected string) (*views.Filter, []entity.Project) {
				seen := map[string]bool{}
				opts := []views.Option{{Value: listing.All, Label: "All categories"}}
				for _, p := range rows {
					if cat := ptr(p.Category); cat != "" && !seen[cat] {
						seen[cat] = true
						opts = append(opts, views.Option{Value: cat, Label: cat})
					}
				}
				sort.Slice(opts[1:], func(i, j int) bool { return opts[1+i].Label < opts[1+j].Label })
				if selected == "" {
					selected = listing.All
				}
				f := &views.Filter{Param: "category", Label: "Category", Selected: selected, Options: opts}
				return f, listing.ByCategory(rows, selected, func(p entity.Project) string { return ptr(p.Category) })
			},
			item: func(p entity.Project) views.Item {
				it := views.Item{Title: p.Title, Subtitle: ptr(p.Category), Body: p.Description, Image: ptr(p.Image), Tags: p.Tags}
				if p.Webapp != nil {
					it.Link, it.LinkLabel = *p.Webapp, "Live"
				} else if p.Github != nil {
					it.Link, it.LinkLabel = *p.Github, "Code"
				}
				return it
			},
			title: func(p entity.Project) string { return p.Title },
			blank: func() entity.ProjectInput { return entity.ProjectInput{Tags: []string{}} },
			input: entity.Project.InputOf,
			bind: func(v url.Values) entity.ProjectInput {
				return entity.ProjectInput{
					Title:        v.Get("title"),
					Description:  v.Get("description"),
					Description2: optional(v, "description2"),
					Description3: optional(v, "description3"),
					Image:        optional(v, "image"),
					Tags:         form.List(v["tags"]),
					Category:     optional(v, "category"),
					Github:       optional(v, "github"),
					Webapp:       optional(v, "webapp"),
				}
			},
			fields: func(_ context.Context, in entity.ProjectInput) []views.Field {
				return []views.Field{
					textField("title", "Title", in.Title, true),
					areaField("description", "Description", in.Description, true),
					areaField("description2", "Description (2)", ptr(in.Description2), false),
					areaField("description3", "Description (3)", ptr(in.Description3), false),
					urlField("image", "Image", in.Image),
					chipsField("tags", "Tags", in.Tags, "Add a tag"),
					textField("category", "Category", ptr(in.Category), false),
					urlField("github", "Repository", in.Github),
					urlField("webapp", "Live app", in.Webapp),
				}
			},
		},

		&resource[entity.BlogPost, entity.BlogPostInput]{
			app: a, hook: h.BlogPosts, plural: "Blog posts",
			empty: "No blog posts yet.",
			search: []func(entity.BlogPost) string{
				func(p entity.BlogPost) string { return p.Title },
				func(p entity.BlogPost) string { return ptr(p.Excerpt) },
				func(p entity.BlogPost) string { return strings.Join(p.Tags, " ") },
			},
			filter: func(_ context.Context, rows []entity.BlogPost, selected string) (*views.Filter, []entity.BlogPost) {
				f := publishedFilter(selected)
				return f, listing.ByPublished(rows, f.Selected, func(p entity.BlogPost) bool { return p.Published })
			},
			item: func(p entity.BlogPost) views.Item {
				it := views.Item{
					Title: p.Title, Subtitle: "/" + p.Slug, Body: ptr(p.Excerpt), Image: ptr(p.CoverImage), Tags: p.Tags,
					Meta: []string{strconv.Itoa(p.Views) + " views"},
				}
				if p.CreatedAt != "" {
					it.Meta = append(it.Meta, shortDate(p.CreatedAt))
				}
				if !p.Published {
					it.Badge = "Draft"
				}
				return it
			},
			title: func(p entity.BlogPost) string { return p.Title },
			blank: func() entity.BlogPostInput { return entity.BlogPostInput{Tags: []string{}} },
			input: entity.BlogPost.InputOf,
			bind: func(v url.Values) entity.BlogPostInput {
				return entity.BlogPostInput{
					Title:           v.Get("title"),
					Slug:            v.Get("slug"),
					Excerpt:         optional(v, "excerpt"),
					Content:         v.Get("content"),
					Published:       checked(v, "published"),
					Tags:            form.List(v["tags"]),
					MetaTitle:       optional(v, "meta_title"),
					MetaDescription: optional(v, "meta_description"),
					CoverImage:      optional(v, "cover_image"),
				}
			},
			fields: func(_ context.Context, in entity.BlogPostInput) []views.Field {
				slug := textField("slug", "Slug", in.Slug, false)
				slug.Help = "Leave empty to derive it from the title."
				return []views.Field{
					textField("title", "Title", in.Title, true),
					slug,
					areaField("excerpt", "Excerpt", ptr(in.Excerpt), false),
					areaField("content", "Content (Markdown)", in.Content, true),
					chipsField("tags", "Tags", in.Tags, "Add a tag"),
					textField("meta_title", "Meta title", ptr(in.MetaTitle), false),
					areaField("meta_description", "Meta description", ptr(in.MetaDescription), false),
					urlField("cover_image", "Cover image", in.CoverImage),
					checkField("published", "Published", in.Published),
				}
			},
		},

		&resource[entity.Contact, entity.ReadOnly]{
			app: a, hook: h.Contacts, plural: "Messages",
			empty: "No messages yet.",
			search: []func(entity.Contact) string{
				func(m entity.Contact) string { return m.Name },
				func(m entity.Contact) string { return m.Email },
				func(m entity.Contact) string { return m.Subject },
				func(m entity.Contact) string { return m.Message },
			},
			item: func(m entity.Contact) views.Item {
				return views.Item{
					Title: m.Subject, Subtitle: m.Name + " <" + m.Email + ">", Body: m.Message,
					Meta: []string{shortDate(m.CreatedAt)},
					Link: replyLink(m), LinkLabel: "Reply",
				}
			},
			title: func(m entity.Contact) string { return m.Subject },
			detail: func(m entity.Contact) []views.Field {
				return []views.Field{
					readField("From", m.Name+" <"+m.Email+">"),
					readField("Received", shortDate(m.CreatedAt)),
					readField("Subject", m.Subject),
					readField("Message", m.Message),
				}
			},
		},

		&resource[entity.Dashboard, entity.DashboardInput]{
			app: a, hook: h.Dashboards, plural: "Dashboards",
			empty: "No dashboards yet.",
			search: []func(entity.Dashboard) string{
				func(d entity.Dashboard) string { return d.Title },
				func(d entity.Dashboard) string { return ptr(d.Description) },
				func(d entity.Dashboard) string { return strings.Join(d.Tags, " ") },
			},
			filter: func(_ context.Context, rows []entity.Dashboard, selected string) (*views.Filter, []entity.Dashboard) {
				f := publishedFilter(selected)
				return f, listing.ByPublished(rows, f.Selected, func(d entity.Dashboard) bool { return d.IsPublished })
			},
			item: func(d entity.Dashboard) views.Item {
				it := views.Item{Title: d.Title, Subtitle: "/" + d.Slug, Body: ptr(d.Description), Tags: d.Tags, Link: d.EmbedURL, LinkLabel: "Open"}
				if !d.IsPublished {
					it.Badge = "Draft"
				}
				return it
			},
			title: func(d entity.Dashboard) string { return d.Title },
			blank: func() entity.DashboardInput { return entity.DashboardInput{Tags: []string{}} },
			input: entity.Dashboard.InputOf,
			bind: func(v url.Values) entity.DashboardInput {
				return entity.DashboardInput{
					Title:       v.Get("title"),
					Slug:        v.Get("slug"),
					Description: optional(v, "description"),
					EmbedURL:    v.Get("embed_url"),
					Tags:        form.List(v["tags"]),
					IsPublished: checked(v, "is_published"),
				}
			},
			fields: func(_ context.Context, in entity.DashboardInput) []views.Field {
				slug := textField("slug", "Slug", in.Slug, false)
				slug.Help = "Leave empty to derive it from the title."
				embed := views.Field{Name: "embed_url", Label: "Power BI embed URL", Kind: views.KindURL, Value: in.EmbedURL, Required: true, Placeholder: "https://app.powerbi.com/view?r="}
				return []views.Field{
					textField("title", "Title", in.Title, true),
					slug,
					areaField("description", "Description", ptr(in.Description), false),
					embed,
					chipsField("tags", "Tags", in.Tags, "Add a tag"),
					checkField("is_published", "Published", in.IsPublished),
				}
			},
		},
	}
}

// skillResource filters and labels skills by their category, read through
// the skill category hook.
func (a *App) skillResource() routable {
	h := a.Hooks
	categories := func(ctx context.Context) []entity.SkillCategory {
		return h.SkillCategories.Read(ctx).Data
	}
	return &resource[entity.Skill, entity.SkillInput]{
		app: a, hook: h.Skills, plural: "Skills",
		empty:  "No skills yet.",
		search: []func(entity.Skill) string{func(s entity.Skill) string { return s.Name }},
		filter: func(ctx context.Context, rows []entity.Skill, selected string) (*views.Filter, []entity.Skill) {
			opts := []views.Option{{Value: listing.All, Label: "All categories"}}
			for _, cat := range categories(ctx) {
				opts = append(opts, views.Option{Value: cat.ID, Label: cat.Title})
			}
			if selected == "" {
				selected = listing.All
			}
			f := &views.Filter{Param: "category", Label: "Category", Selected: selected, Options: opts}
			return f, listing.ByCategory(rows, selected, func(s entity.Skill) string { return ptr(s.CategoryID) })
		},
		item: func(s entity.Skill) views.Item {
			return views.Item{Title: s.Name, Image: ptr(s.Image)}
		},
		title: func(s entity.Skill) string { return s.Name },
		blank: func() entity.SkillInput { return entity.SkillInput{} },
		input: entity.Skill.InputOf,
		bind: func(v url.Values) entity.SkillInput {
			return entity.SkillInput{
				Name:       v.Get("name"),
				Image:      optional(v, "image"),
				CategoryID: optional(v, "category_id"),
			}
		},
		fields: func(ctx context.Context, in entity.SkillInput) []views.Field {
			opts := []views.Option{{Value: "", Label: "No category"}}
			for _, cat := range categories(ctx) {
				opts = append(opts, views.Option{Value: cat.ID, Label: cat.Title})
			}
			return []views.Field{
				textField("name", "Name", in.Name, true),
				urlField("image", "Icon", in.Image),
				{Name: "category_id", Label: "Category", Kind: views.KindSelect, Value: ptr(in.CategoryID), Options: opts},
			}
		},
	}
}

func replyLink(m entity.Contact) string {
	q := url.Values{}
	q.Set("subject", "Re: "+m.Subject)
	return "mailto:" + m.Email + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}

// shortDate trims a backend timestamp to its date.
func shortDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
