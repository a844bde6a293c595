// Package apispec performs an in-process structural check of the fetched API
// specification before it is handed to the external code generator.
//
// Swagger 2.0 documents (the Open Service Broker API is published in that
// format) are converted to OpenAPI 3 and validated with kin-openapi. The
// result is advisory: the generator's own validate command stays the
// authoritative gate.
package apispec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ghodss/yaml"
)

// Format is the dialect a specification document is written in.
type Format string

const (
	FormatSwagger2 Format = "swagger2"
	FormatOpenAPI3 Format = "openapi3"
)

// ErrUnknownFormat is returned for documents that declare neither swagger nor openapi.
var ErrUnknownFormat = errors.New("document declares neither swagger nor openapi version")

// Summary describes a specification that passed the check.
type Summary struct {
	Format  Format
	Title   string
	Version string
	Paths   int
}

type header struct {
	Swagger string `json:"swagger"`
	OpenAPI string `json:"openapi"`
}

// DetectFormat reads the version marker of a YAML or JSON document.
func DetectFormat(data []byte) (Format, error) {
	var h header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return "", fmt.Errorf("parse document header: %w", err)
	}
	switch {
	case strings.HasPrefix(h.Swagger, "2."):
		return FormatSwagger2, nil
	case strings.HasPrefix(h.OpenAPI, "3."):
		return FormatOpenAPI3, nil
	default:
		return "", ErrUnknownFormat
	}
}

// CheckFile loads and validates the specification at path.
func CheckFile(ctx context.Context, path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Check(ctx, data)
}

// Check validates a specification document held in memory.
func Check(ctx context.Context, data []byte) (*Summary, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	var doc *openapi3.T
	switch format {
	case FormatSwagger2:
		var doc2 openapi2.T
		if err := yaml.Unmarshal(data, &doc2); err != nil {
			return nil, fmt.Errorf("parse swagger document: %w", err)
		}
		doc, err = openapi2conv.ToV3(&doc2)
		if err != nil {
			return nil, fmt.Errorf("convert swagger document: %w", err)
		}
	case FormatOpenAPI3:
		loader := openapi3.NewLoader()
		doc, err = loader.LoadFromData(data)
		if err != nil {
			return nil, fmt.Errorf("load openapi document: %w", err)
		}
	}

	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("validate %s document: %w", format, err)
	}

	s := &Summary{Format: format}
	if doc.Info != nil {
		s.Title = doc.Info.Title
		s.Version = doc.Info.Version
	}
	if doc.Paths != nil {
		s.Paths = doc.Paths.Len()
	}
	return s, nil
}
