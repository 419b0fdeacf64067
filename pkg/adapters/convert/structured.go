package convert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/convreg/convreg/internal/application/converters"
	"github.com/convreg/convreg/internal/domain"
	"gopkg.in/yaml.v3"
)

// JSONToYAML converts application/json to application/x-yaml.
func JSONToYAML() converters.Converter {
	return converters.Converter{
		Name: "json-to-yaml",
		From: []string{"application/json"},
		To:   "application/x-yaml",
		Fn: func(ctx context.Context, src domain.Dataset) (domain.Dataset, error) {
			data, err := src.Bytes(ctx)
			if err != nil {
				return domain.Dataset{}, err
			}

			var value interface{}
			if err := json.Unmarshal(data, &value); err != nil {
				return domain.Dataset{}, fmt.Errorf("failed to parse JSON: %w", err)
			}

			out, err := yaml.Marshal(value)
			if err != nil {
				return domain.Dataset{}, fmt.Errorf("failed to encode YAML: %w", err)
			}

			return domain.NewBytesDataset(src.URL(), "application/x-yaml", out), nil
		},
	}
}

// YAMLToJSON converts application/x-yaml to application/json.
func YAMLToJSON() converters.Converter {
	return converters.Converter{
		Name: "yaml-to-json",
		From: []string{"application/x-yaml"},
		To:   "application/json",
		Fn: func(ctx context.Context, src domain.Dataset) (domain.Dataset, error) {
			data, err := src.Bytes(ctx)
			if err != nil {
				return domain.Dataset{}, err
			}

			var value interface{}
			if err := yaml.Unmarshal(data, &value); err != nil {
				return domain.Dataset{}, fmt.Errorf("failed to parse YAML: %w", err)
			}

			out, err := json.Marshal(value)
			if err != nil {
				return domain.Dataset{}, fmt.Errorf("failed to encode JSON: %w", err)
			}

			return domain.NewBytesDataset(src.URL(), "application/json", out), nil
		},
	}
}
