package scenario

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario wraps every definition that fails decoding, schema
// validation or the structural checks.
var ErrInvalidScenario = errors.New("invalid scenario")

//go:embed schema.json
var schemaJSON []byte

//go:embed modules/*.yaml
var builtin embed.FS

const schemaURL = "mem://forensiq/scenario.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse scenario schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add scenario schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Parse decodes a YAML definition and validates it against the schema,
// the supported schema version and the structural rules.
func Parse(data []byte) (*Definition, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %w", ErrInvalidScenario, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty definition", ErrInvalidScenario)
	}

	doc, err := toJSONDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: decode definition: %w", ErrInvalidScenario, err)
	}

	if err := checkVersion(def.SchemaVersion); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if err := validateDefinition(&def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return &def, nil
}

// toJSONDocument round-trips a YAML value through JSON so the validator
// sees JSON types.
func toJSONDocument(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

// checkVersion accepts definitions of the same major version that are not
// newer than SchemaVersion.
func checkVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("schema_version %q is not a semantic version", v)
	}
	if semver.Major(v) != semver.Major(SchemaVersion) {
		return fmt.Errorf("schema_version %s is incompatible with %s", v, SchemaVersion)
	}
	if semver.Compare(v, SchemaVersion) > 0 {
		return fmt.Errorf("schema_version %s is newer than supported %s", v, SchemaVersion)
	}
	return nil
}

// Load returns the built-in definition called name, or reads name as a
// file path.
func Load(name string) (*Definition, error) {
	if data, err := builtin.ReadFile(path.Join("modules", name+".yaml")); err == nil {
		return Parse(data)
	}
	return LoadFile(name)
}

// LoadFile reads and parses a definition file.
func LoadFile(p string) (*Definition, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("scenario %q is neither built in (%s) nor a file", p, strings.Join(Builtins(), ", "))
		}
		return nil, fmt.Errorf("read scenario %s: %w", p, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return def, nil
}

// Builtins lists the names of the embedded definitions.
func Builtins() []string {
	entries, err := fs.ReadDir(builtin, "modules")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
