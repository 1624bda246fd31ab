package entity

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eringen/folioadmin/form"
)

// Optional fields are *string without omitempty: nil is sent as null so an
// update clears the stored value.

// Bio is the single profile row shown on the portfolio home page.
type Bio struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Description string   `json:"description"`
	Github      *string  `json:"github"`
	Linkedin    *string  `json:"linkedin"`
	Twitter     *string  `json:"twitter"`
	Insta       *string  `json:"insta"`
	Facebook    *string  `json:"facebook"`
	Resume      *string  `json:"resume"`
	Image       *string  `json:"image"`
}

// RowID implements Row.
func (b Bio) RowID() string { return b.ID }

// BioInput is the editable part of a Bio.
type BioInput struct {
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Description string   `json:"description"`
	Github      *string  `json:"github"`
	Linkedin    *string  `json:"linkedin"`
	Twitter     *string  `json:"twitter"`
	Insta       *string  `json:"insta"`
	Facebook    *string  `json:"facebook"`
	Resume      *string  `json:"resume"`
	Image       *string  `json:"image"`
}

// Validate requires a name and a description; links must be URLs.
func (in BioInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, form.Required, form.MinLength(2)),
		validation.Field(&in.Description, form.Required, form.MinLength(10)),
		validation.Field(&in.Github, form.URL),
		validation.Field(&in.Linkedin, form.URL),
		validation.Field(&in.Twitter, form.URL),
		validation.Field(&in.Insta, form.URL),
		validation.Field(&in.Facebook, form.URL),
		validation.Field(&in.Resume, form.URL),
		validation.Field(&in.Image, form.URL),
	)
}

// Normalized trims text, dedupes roles and turns blank links into null.
func (in BioInput) Normalized() BioInput {
	return BioInput{
		Name:        form.Text(in.Name),
		Roles:       form.List(in.Roles),
		Description: form.Text(in.Description),
		Github:      form.Absent(in.Github),
		Linkedin:    form.Absent(in.Linkedin),
		Twitter:     form.Absent(in.Twitter),
		Insta:       form.Absent(in.Insta),
		Facebook:    form.Absent(in.Facebook),
		Resume:      form.Absent(in.Resume),
		Image:       form.Absent(in.Image),
	}
}

// InputOf returns the editable fields of b.
func (b Bio) InputOf() BioInput {
	return BioInput{
		Name: b.Name, Roles: form.List(b.Roles), Description: b.Description,
		Github: b.Github, Linkedin: b.Linkedin, Twitter: b.Twitter, Insta: b.Insta,
		Facebook: b.Facebook, Resume: b.Resume, Image: b.Image,
	}
}

// Education is one school or degree entry.
type Education struct {
	ID          string  `json:"id"`
	School      string  `json:"school"`
	Degree      string  `json:"degree"`
	Date        string  `json:"date"`
	Grade       *string `json:"grade"`
	Description *string `json:"description"`
	Img         *string `json:"img"`
}

// RowID implements Row.
func (e Education) RowID() string { return e.ID }

// EducationInput is the editable part of an Education.
type EducationInput struct {
	School      string  `json:"school"`
	Degree      string  `json:"degree"`
	Date        string  `json:"date"`
	Grade       *string `json:"grade"`
	Description *string `json:"description"`
	Img         *string `json:"img"`
}

// Validate checks school, degree and date.
func (in EducationInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.School, form.Required, form.MinLength(2)),
		validation.Field(&in.Degree, form.Required, form.MinLength(2)),
		validation.Field(&in.Date, form.Required),
		validation.Field(&in.Img, form.URL),
	)
}

// Normalized trims every field.
func (in EducationInput) Normalized() EducationInput {
	return EducationInput{
		School:      form.Text(in.School),
		Degree:      form.Text(in.Degree),
		Date:        form.Text(in.Date),
		Grade:       form.Absent(in.Grade),
		Description: form.Absent(in.Description),
		Img:         form.Absent(in.Img),
	}
}

// InputOf returns the editable fields of e.
func (e Education) InputOf() EducationInput {
	return EducationInput{School: e.School, Degree: e.Degree, Date: e.Date, Grade: e.Grade, Description: e.Description, Img: e.Img}
}

// Experience is one job held.
type Experience struct {
	ID      string   `json:"id"`
	Role    string   `json:"role"`
	Company string   `json:"company"`
	Date    string   `json:"date"`
	Desc    string   `json:"desc"`
	Desc2   *string  `json:"desc2"`
	Desc3   *string  `json:"desc3"`
	Skills  []string `json:"skills"`
	Doc     *string  `json:"doc"`
	Img     *string  `json:"img"`
}

// RowID implements Row.
func (e Experience) RowID() string { return e.ID }

// ExperienceInput is the editable part of an Experience.
type ExperienceInput struct {
	Role    string   `json:"role"`
	Company string   `json:"company"`
	Date    string   `json:"date"`
	Desc    string   `json:"desc"`
	Desc2   *string  `json:"desc2"`
	Desc3   *string  `json:"desc3"`
	Skills  []string `json:"skills"`
	Doc     *string  `json:"doc"`
	Img     *string  `json:"img"`
}

// Validate reports missing or too short fields.
func (in ExperienceInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Role, form.Required, form.MinLength(2)),
		validation.Field(&in.Company, form.Required, form.MinLength(2)),
		validation.Field(&in.Date, form.Required),
		validation.Field(&in.Desc, form.Required, form.MinLength(10)),
		validation.Field(&in.Doc, form.URL),
		validation.Field(&in.Img, form.URL),
	)
}

// Normalized trims text and nulls empty optional fields.
func (in ExperienceInput) Normalized() ExperienceInput {
	return ExperienceInput{
		Role:    form.Text(in.Role),
		Company: form.Text(in.Company),
		Date:    form.Text(in.Date),
		Desc:    form.Text(in.Desc),
		Desc2:   form.Absent(in.Desc2),
		Desc3:   form.Absent(in.Desc3),
		Skills:  form.List(in.Skills),
		Doc:     form.Absent(in.Doc),
		Img:     form.Absent(in.Img),
	}
}

// InputOf returns the editable fields of e.
func (e Experience) InputOf() ExperienceInput {
	return ExperienceInput{
		Role: e.Role, Company: e.Company, Date: e.Date, Desc: e.Desc, Desc2: e.Desc2, Desc3: e.Desc3,
		Skills: form.List(e.Skills), Doc: e.Doc, Img: e.Img,
	}
}

// SkillCategory groups skills.
type SkillCategory struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// RowID implements Row.
func (c SkillCategory) RowID() string { return c.ID }

// SkillCategoryInput is the editable part of a SkillCategory.
type SkillCategoryInput struct {
	Title string `json:"title"`
}

// Validate requires a title of at least two characters.
func (in SkillCategoryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, form.Required, form.MinLength(2)),
	)
}

// Normalized trims the title.
func (in SkillCategoryInput) Normalized() SkillCategoryInput {
	return SkillCategoryInput{Title: form.Text(in.Title)}
}

// InputOf returns the editable fields of c.
func (c SkillCategory) InputOf() SkillCategoryInput {
	return SkillCategoryInput{Title: c.Title}
}

// Skill is a named skill, optionally filed under a SkillCategory.
type Skill struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Image      *string `json:"image"`
	CategoryID *string `json:"category_id"`
}

// RowID implements Row.
func (s Skill) RowID() string { return s.ID }

// SkillInput is the editable part of a Skill.
type SkillInput struct {
	Name       string  `json:"name"`
	Image      *string `json:"image"`
	CategoryID *string `json:"category_id"`
}

// Validate requires a name. An image must be a URL.
func (in SkillInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, form.Required),
		validation.Field(&in.Image, form.URL),
	)
}

// Normalized trims the name and nulls an empty image or category.
func (in SkillInput) Normalized() SkillInput {
	return SkillInput{
		Name:       form.Text(in.Name),
		Image:      form.Absent(in.Image),
		CategoryID: form.Absent(in.CategoryID),
	}
}

// InputOf returns the editable fields of s.
func (s Skill) InputOf() SkillInput {
	return SkillInput{Name: s.Name, Image: s.Image, CategoryID: s.CategoryID}
}

// Project is a portfolio project with optional source and live links.
type Project struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Description2 *string  `json:"description2"`
	Description3 *string  `json:"description3"`
	Image        *string  `json:"image"`
	Tags         []string `json:"tags"`
	Category     *string  `json:"category"`
	Github       *string  `json:"github"`
	Webapp       *string  `json:"webapp"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// RowID implements Row.
func (p Project) RowID() string { return p.ID }

// ProjectInput is the editable part of a Project.
type ProjectInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Description2 *string  `json:"description2"`
	Description3 *string  `json:"description3"`
	Image        *string  `json:"image"`
	Tags         []string `json:"tags"`
	Category     *string  `json:"category"`
	Github       *string  `json:"github"`
	Webapp       *string  `json:"webapp"`
}

// Validate checks the title and description and that links are URLs.
func (in ProjectInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, form.Required, form.MinLength(2)),
		validation.Field(&in.Description, form.Required, form.MinLength(10)),
		validation.Field(&in.Image, form.URL),
		validation.Field(&in.Github, form.URL),
		validation.Field(&in.Webapp, form.URL),
	)
}

// Normalized trims text, dedupes tags and nulls empty links.
func (in ProjectInput) Normalized() ProjectInput {
	return ProjectInput{
		Title:        form.Text(in.Title),
		Description:  form.Text(in.Description),
		Description2: form.Absent(in.Description2),
		Description3: form.Absent(in.Description3),
		Image:        form.Absent(in.Image),
		Tags:         form.List(in.Tags),
		Category:     form.Absent(in.Category),
		Github:       form.Absent(in.Github),
		Webapp:       form.Absent(in.Webapp),
	}
}

// InputOf returns the editable fields of p.
func (p Project) InputOf() ProjectInput {
	return ProjectInput{
		Title: p.Title, Description: p.Description, Description2: p.Description2, Description3: p.Description3,
		Image: p.Image, Tags: form.List(p.Tags), Category: p.Category, Github: p.Github, Webapp: p.Webapp,
	}
}

// BlogPost is an article, published or draft.
type BlogPost struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Excerpt         *string  `json:"excerpt"`
	Content         string   `json:"content"`
	Published       bool     `json:"published"`
	Views           int      `json:"views"`
	Tags            []string `json:"tags"`
	MetaTitle       *string  `json:"meta_title"`
	MetaDescription *string  `json:"meta_description"`
	CoverImage      *string  `json:"cover_image"`
	CreatedAt       string   `json:"created_at,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

// RowID implements Row.
func (p BlogPost) RowID() string { return p.ID }

// BlogPostInput leaves out views and timestamps; the backend owns them.
type BlogPostInput struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Excerpt         *string  `json:"excerpt"`
	Content         string   `json:"content"`
	Published       bool     `json:"published"`
	Tags            []string `json:"tags"`
	MetaTitle       *string  `json:"meta_title"`
	MetaDescription *string  `json:"meta_description"`
	CoverImage      *string  `json:"cover_image"`
}

// Validate checks the title, slug and content.
func (in BlogPostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, form.Required, form.MinLength(3)),
		validation.Field(&in.Slug, form.Required, form.Slug),
		validation.Field(&in.Content, form.Required, form.MinLength(10)),
		validation.Field(&in.MetaTitle, form.MaxLength(60)),
		validation.Field(&in.MetaDescription, form.MaxLength(160)),
		validation.Field(&in.CoverImage, form.URL),
	)
}

// Normalized derives the slug from the title when it is left empty.
func (in BlogPostInput) Normalized() BlogPostInput {
	out := BlogPostInput{
		Title:           form.Text(in.Title),
		Slug:            form.Text(in.Slug),
		Excerpt:         form.Absent(in.Excerpt),
		Content:         form.Text(in.Content),
		Published:       in.Published,
		Tags:            form.List(in.Tags),
		MetaTitle:       form.Absent(in.MetaTitle),
		MetaDescription: form.Absent(in.MetaDescription),
		CoverImage:      form.Absent(in.CoverImage),
	}
	if out.Slug == "" {
		out.Slug = form.Slugify(out.Title)
	}
	return out
}

// InputOf returns the editable fields of p.
func (p BlogPost) InputOf() BlogPostInput {
	return BlogPostInput{
		Title: p.Title, Slug: p.Slug, Excerpt: p.Excerpt, Content: p.Content, Published: p.Published,
		Tags: form.List(p.Tags), MetaTitle: p.MetaTitle, MetaDescription: p.MetaDescription, CoverImage: p.CoverImage,
	}
}

// Contact is a message left through the public contact form.
type Contact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// RowID implements Row.
func (c Contact) RowID() string { return c.ID }

// ReadOnly is the payload of entities the console never writes.
type ReadOnly struct{}

// Validate accepts everything.
func (ReadOnly) Validate() error      { return nil }
// Normalized returns the zero value.
func (ReadOnly) Normalized() ReadOnly { return ReadOnly{} }

// Dashboard is an embedded analytics dashboard listed on the site.
type Dashboard struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description *string  `json:"description"`
	EmbedURL    string   `json:"embed_url"`
	Tags        []string `json:"tags"`
	IsPublished bool     `json:"is_published"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// RowID implements Row.
func (d Dashboard) RowID() string { return d.ID }

// DashboardInput is the editable part of a Dashboard.
type DashboardInput struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description *string  `json:"description"`
	EmbedURL    string   `json:"embed_url"`
	Tags        []string `json:"tags"`
	IsPublished bool     `json:"is_published"`
}

// Validate checks the title and slug and requires an embed URL.
func (in DashboardInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, form.Required, form.MinLength(3)),
		validation.Field(&in.Slug, form.Required, form.Slug),
		validation.Field(&in.EmbedURL, form.Required, form.URL),
	)
}

// Normalized derives the slug from the title when it is left empty.
func (in DashboardInput) Normalized() DashboardInput {
	out := DashboardInput{
		Title:       form.Text(in.Title),
		Slug:        form.Text(in.Slug),
		Description: form.Absent(in.Description),
		EmbedURL:    form.Text(in.EmbedURL),
		Tags:        form.List(in.Tags),
		IsPublished: in.IsPublished,
	}
	if out.Slug == "" {
		out.Slug = form.Slugify(out.Title)
	}
	return out
}

// InputOf returns the editable fields of d.
func (d Dashboard) InputOf() DashboardInput {
	return DashboardInput{
		Title: d.Title, Slug: d.Slug, Description: d.Description, EmbedURL: d.EmbedURL,
		Tags: form.List(d.Tags), IsPublished: d.IsPublished,
	}
}

// Session is one identity-service sign-in of the current admin.
type Session struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	UserAgent string `json:"user_agent"`
	IP        string `json:"ip"`
}

// RowID implements Row.
func (s Session) RowID() string { return s.ID }
