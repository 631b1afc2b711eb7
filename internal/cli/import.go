package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tend/pkg/model"
)

const importSchemaURL = "tend-import.schema.json"

// importSchema describes `tend import` files: an array of tasks whose ids
// and parents are local to the file.
const importSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name"],
    "properties": {
      "id": {"type": "integer"},
      "name": {"type": "string", "minLength": 1},
      "complete": {"type": "boolean"},
      "parent": {"type": ["integer", "null"]}
    }
  }
}`

func importCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import tasks from a JSON file",
		Long: `Import tasks from a JSON array such as

  [{"id": 1, "name": "Plan"}, {"id": 2, "name": "Ship", "parent": 1, "complete": true}]

Ids are local to the file. All tasks are inserted in one transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tasks, err := decodeImport(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			mapped, err := s.store.Import(cmd.Context(), tasks)
			if err != nil {
				return err
			}
			s.logger.Debug("import id mapping", "ids", mapped)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", len(mapped))
			return nil
		},
	}
}

// decodeImport validates data against importSchema and decodes it.
func decodeImport(data []byte) ([]model.ImportTask, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(importSchemaURL, strings.NewReader(importSchema)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	schema, err := compiler.Compile(importSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, schemaError(err)
	}

	var tasks []model.ImportTask
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

// schemaError reduces a validation error to its leaf causes.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var msgs []string
	collectSchemaCauses(ve, &msgs)
	if len(msgs) == 0 {
		return fmt.Errorf("invalid import: %s", ve.Message)
	}
	return fmt.Errorf("invalid import: %s", strings.Join(msgs, "; "))
}

func collectSchemaCauses(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaCauses(cause, msgs)
	}
}
