package main

import (
	"fmt"
	"os"

	"github.com/dcshock/formpipe/student"
	"gopkg.in/yaml.v3"
)

type submissionsFile struct {
	Submissions []student.FormData `yaml:"submissions"`
}

// loadSubmissions reads a YAML file of registration forms:
//
//	submissions:
//	  - first_name: Ada
//	    last_name: Lovelace
//	    email: ada@example.com
//	    phone: "+14155552671"
func loadSubmissions(path string) ([]student.FormData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	var f submissionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Submissions) == 0 {
		return nil, fmt.Errorf("%s: no submissions", path)
	}
	return f.Submissions, nil
}
