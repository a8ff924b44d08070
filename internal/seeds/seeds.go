// Package seeds loads the pool of questions that open an interview topic.
package seeds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no file is configured.
const DefaultFile = "initialising_questions.json"

var ErrNoQuestions = errors.New("seed file contains no questions")

// FileStore reads seed questions from a JSON or YAML file.
// Both a plain list and a mapping with a "questions" key are accepted.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if strings.TrimSpace(path) == "" {
		path = DefaultFile
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// LoadAll reads the file on every call so edits are picked up by the next interview.
func (s *FileStore) LoadAll(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %q: %w", s.path, err)
	}

	questions, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing seed file %q: %w", s.path, err)
	}

	return questions, nil
}

// Parse decodes a seed document. Blank entries are dropped.
func Parse(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}

	if len(node.Content) == 0 {
		return nil, ErrNoQuestions
	}

	var raw []string
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raw); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var doc struct {
			Questions []string `yaml:"questions"`
		}
		if err := root.Decode(&doc); err != nil {
			return nil, err
		}
		raw = doc.Questions
	default:
		return nil, fmt.Errorf("expected a list of questions, got %s", kindName(root.Kind))
	}

	questions := make([]string, 0, len(raw))
	for _, q := range raw {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	return questions, nil
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unknown node"
	}
}
