package course

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LoadCourse reads course.json. A missing file is not an error: the course
// is then named after the template directory by the caller.
func LoadCourse(path string, log *zap.Logger) (*Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("No course.json, using defaults", zap.String("path", path))
			return &Course{}, nil
		}
		return nil, fmt.Errorf("unable to read course description: %w", err)
	}
	c := &Course{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", filepath.Base(path), err)
	}
	return c, nil
}

// LoadModules reads modules.json. A missing file yields no modules.
func LoadModules(path string, log *zap.Logger) ([]Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("No modules.json, package will carry no module structure", zap.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("unable to read module description: %w", err)
	}

	// accept both a bare list and a {"modules": [...]} wrapper
	var wrapper struct {
		Modules []Module `json:"modules"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		var list []Module
		if err2 := json.Unmarshal(data, &list); err2 != nil {
			return nil, fmt.Errorf("unable to parse %s: %w", filepath.Base(path), err)
		}
		wrapper.Modules = list
	}

	for i := range wrapper.Modules {
		wrapper.Modules[i].Identifier = NewIdentifier()
		for j := range wrapper.Modules[i].Items {
			wrapper.Modules[i].Items[j].Identifier = NewIdentifier()
		}
	}
	return wrapper.Modules, nil
}

// LoadQuizzes reads every *.json under dir. Other files are ignored, a
// missing directory yields no quizzes.
func LoadQuizzes(dir string, log *zap.Logger) ([]*Quiz, error) {
	var quizzes []*Quiz
	err := loadJSONDir(dir, log, func(name string, data []byte) error {
		q := &Quiz{}
		if err := json.Unmarshal(data, q); err != nil {
			return err
		}
		if q.Title == "" {
			q.Title = titleFromName(name)
		}
		if q.QuizType == "" {
			q.QuizType = "assignment"
		}
		q.Filename = name
		q.Identifier = NewIdentifier()
		quizzes = append(quizzes, q)
		return nil
	})
	return quizzes, err
}

// LoadAssignments reads every *.json under dir, pulling in the referenced
// description html file when one is named.
func LoadAssignments(dir string, log *zap.Logger) ([]*Assignment, error) {
	var assignments []*Assignment
	err := loadJSONDir(dir, log, func(name string, data []byte) error {
		a := &Assignment{}
		if err := json.Unmarshal(data, a); err != nil {
			return err
		}
		if a.Title == "" {
			a.Title = titleFromName(name)
		}
		if a.Description == "" && a.DescriptionFile != "" {
			html, err := os.ReadFile(filepath.Join(dir, a.DescriptionFile))
			if err != nil {
				return fmt.Errorf("unable to read description %s: %w", a.DescriptionFile, err)
			}
			a.Description = string(html)
		}
		if len(a.SubmissionTypes) == 0 {
			a.SubmissionTypes = []string{"online_text_entry"}
		}
		a.Filename = name
		a.Identifier = NewIdentifier()
		assignments = append(assignments, a)
		return nil
	})
	return assignments, err
}

// LoadRubrics reads every *.json under dir.
func LoadRubrics(dir string, log *zap.Logger) ([]*Rubric, error) {
	var rubrics []*Rubric
	err := loadJSONDir(dir, log, func(name string, data []byte) error {
		r := &Rubric{}
		if err := json.Unmarshal(data, r); err != nil {
			return err
		}
		if r.Title == "" {
			r.Title = titleFromName(name)
		}
		r.Filename = name
		r.Identifier = NewIdentifier()
		rubrics = append(rubrics, r)
		return nil
	})
	return rubrics, err
}

// loadJSONDir feeds every .json file in dir to fn in lexical order. A broken
// file fails the load: unlike CSS, malformed content definitions are author
// errors worth stopping for.
func loadJSONDir(dir string, log *zap.Logger, fn func(name string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("unable to read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("unable to read %s: %w", e.Name(), err)
		}
		if err := fn(e.Name(), data); err != nil {
			return fmt.Errorf("unable to load %s: %w", e.Name(), err)
		}
		log.Debug("Loaded content definition", zap.String("dir", filepath.Base(dir)), zap.String("file", e.Name()))
	}
	return nil
}

// titleFromName turns "peer-review_TEMPLATE.json" into "Peer Review TEMPLATE"
// style titles; authors are expected to set titles explicitly, this is only a
// fallback.
func titleFromName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	words := strings.Fields(base)
	for i, w := range words {
		if w == strings.ToLower(w) {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
