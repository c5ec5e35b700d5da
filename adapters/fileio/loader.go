package fileio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"arbiter/adapters/excel"
	"arbiter/domain/block"
	"arbiter/domain/rules"
)

// Format is a document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension, defaulting to JSON
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// blockDocument accepts either a bare list of blocks or {"blocks": [...]}
type blockDocument struct {
	Blocks []block.Block `json:"blocks" yaml:"blocks"`
}

// LoadBlocks reads a block corpus from JSON, YAML, XLSX or CSV
func LoadBlocks(path string) ([]block.Block, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv":
		return excel.NewDataReader(path).ReadBlocks()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blocks: %w", err)
	}
	blocks, err := DecodeBlocks(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return blocks, nil
}

// DecodeBlocks parses a block list document
func DecodeBlocks(data []byte, format Format) ([]block.Block, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty block document")
	}

	var blocks []block.Block
	switch format {
	case FormatYAML:
		var doc blockDocument
		if err := yaml.Unmarshal(trimmed, &doc); err == nil && doc.Blocks != nil {
			return doc.Blocks, nil
		}
		if err := yaml.Unmarshal(trimmed, &blocks); err != nil {
			return nil, err
		}
	default:
		if trimmed[0] == '{' {
			var doc blockDocument
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return nil, err
			}
			return doc.Blocks, nil
		}
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return nil, err
		}
	}
	return blocks, nil
}

// LoadRuleSet reads a rule definition document ({name, rules: [...]}) from
// JSON or YAML. The result still has to be compiled.
func LoadRuleSet(path string) (rules.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("read rules: %w", err)
	}
	rs, err := DecodeRuleSet(data, FormatFor(path))
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if rs.Name == "" {
		rs.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return rs, nil
}

// DecodeRuleSet parses a rule definition document
func DecodeRuleSet(data []byte, format Format) (rules.RuleSet, error) {
	var rs rules.RuleSet
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &rs)
	} else {
		err = json.Unmarshal(data, &rs)
	}
	return rs, err
}

// LoadCompiledRuleSet loads and compiles a rule file, or returns the
// built-in rule set when path is empty
func LoadCompiledRuleSet(path string) (*rules.CompiledRuleSet, error) {
	if path == "" {
		return rules.DefaultRuleSet().Compile()
	}
	rs, err := LoadRuleSet(path)
	if err != nil {
		return nil, err
	}
	return rs.Compile()
}

// WriteJSON writes v as indented JSON to path, or stdout when path is "-"
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" || path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
