package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Author is one entry of a batch run.
type Author struct {
	Name        string `yaml:"name"`
	Institution string `yaml:"institution,omitempty"`
}

// AuthorList is the on-disk shape of a batch file.
type AuthorList struct {
	Authors []Author `yaml:"authors"`
}

// DefaultAuthors is the batch list used when no file is given.
func DefaultAuthors() []Author {
	return []Author{
		{Name: "张三", Institution: "清华大学"},
		{Name: "李四", Institution: "北京大学"},
		{Name: "王五", Institution: "中科院"},
	}
}

// LoadAuthors reads a batch file. Entries with a blank name are dropped;
// a file with no usable entry is an error.
func LoadAuthors(path string) ([]Author, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read author list: %w", err)
	}

	var list AuthorList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse author list %s: %w", path, err)
	}

	authors := make([]Author, 0, len(list.Authors))
	for _, a := range list.Authors {
		a.Name = strings.TrimSpace(a.Name)
		a.Institution = strings.TrimSpace(a.Institution)
		if a.Name == "" {
			continue
		}
		authors = append(authors, a)
	}
	if len(authors) == 0 {
		return nil, errors.New("author list has no entries: " + path)
	}
	return authors, nil
}

// WriteAuthors saves authors in the format LoadAuthors reads.
func WriteAuthors(path string, authors []Author) error {
	data, err := yaml.Marshal(&AuthorList{Authors: authors})
	if err != nil {
		return fmt.Errorf("failed to encode author list: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write author list: %w", err)
	}
	return nil
}
