// Package course holds the plain data model of a Canvas course: pages,
// quizzes, assignments, rubrics and the module structure tying them
// together. These are simple attribute holders, all behavior lives in the
// template scanner and the package writer.
package course

import (
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Course is the top-level course description (course.json).
type Course struct {
	Title       string `json:"title"`
	Code        string `json:"course_code"`
	DefaultView string `json:"default_view,omitempty"` // "wiki" or "modules", wiki when a home page exists
	License     string `json:"license,omitempty"`
	IsPublic    bool   `json:"is_public,omitempty"`

	Identifier string `json:"-"`
}

// Page is one wiki page. Body carries the rendered package-ready fragment,
// not the raw template HTML.
type Page struct {
	Title      string
	Filename   string // template file name under wiki_content
	URL        string // canvas page url slug
	Identifier string
	Home       bool
	Body       string
}

// Quiz is a classic quiz definition (quizzes/*.json).
type Quiz struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	QuizType    string     `json:"quiz_type,omitempty"` // defaults to assignment
	Questions   []Question `json:"questions"`

	Filename   string `json:"-"`
	Identifier string `json:"-"`
}

// PointsPossible sums question points.
func (q *Quiz) PointsPossible() float64 {
	var total float64
	for _, qq := range q.Questions {
		total += qq.Points
	}
	return total
}

// Question is a single quiz question. Type is one of multiple_choice,
// true_false, short_answer, essay.
type Question struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Points  float64  `json:"points,omitempty"`
	Answers []Answer `json:"answers,omitempty"`
}

// Answer is one answer option for choice-style questions.
type Answer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

// Assignment is an assignment definition (assignments/*.json plus an
// optional html description file next to it).
type Assignment struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`  // inline html description
	DescriptionFile string   `json:"description_file,omitempty"` // html file relative to assignments/
	Points          float64  `json:"points,omitempty"`
	SubmissionTypes []string `json:"submission_types,omitempty"`
	RubricRef       string   `json:"rubric,omitempty"` // rubric title or file base name

	Filename   string `json:"-"`
	Identifier string `json:"-"`
}

// Rubric is a scoring rubric (rubrics/*.json).
type Rubric struct {
	Title    string      `json:"title"`
	Criteria []Criterion `json:"criteria"`

	Filename   string `json:"-"`
	Identifier string `json:"-"`
}

// PointsPossible sums the maximum rating of every criterion.
func (r *Rubric) PointsPossible() float64 {
	var total float64
	for _, c := range r.Criteria {
		var max float64
		for _, rt := range c.Ratings {
			if rt.Points > max {
				max = rt.Points
			}
		}
		total += max
	}
	return total
}

// Criterion is one rubric row.
type Criterion struct {
	Description string   `json:"description"`
	LongDesc    string   `json:"long_description,omitempty"`
	Ratings     []Rating `json:"ratings"`
}

// Rating is one cell of a rubric row.
type Rating struct {
	Description string  `json:"description"`
	Points      float64 `json:"points"`
}

// Module groups content into the course navigation (modules.json).
type Module struct {
	Title string       `json:"title"`
	Items []ModuleItem `json:"items"`

	Identifier string `json:"-"`
}

// ModuleItem references content by template file name: a wiki page html
// name, a quiz or assignment json name, or a web_resources path for type
// "file".
type ModuleItem struct {
	Type   string `json:"type"` // page, quiz, assignment, file, header
	Name   string `json:"name"`
	Title  string `json:"title,omitempty"`
	Indent int    `json:"indent,omitempty"`

	Identifier string `json:"-"`
}

// NewIdentifier produces a Canvas-style resource identifier: "g" followed by
// 32 hex characters. Identifiers are stable for the lifetime of one build.
func NewIdentifier() string {
	return "g" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// PageURL derives the canvas page url slug from a title, falling back to the
// file base name when the title is empty.
func PageURL(title, filename string) string {
	if strings.TrimSpace(title) != "" {
		return slug.Make(title)
	}
	base := strings.TrimSuffix(filename, ".html")
	return slug.Make(base)
}
