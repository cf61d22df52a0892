package gemini

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

// recordSchema constrains one response element. Only tema_general is
// required: the engine can classify around every other missing field, but a
// record without a general theme carries no signal at all.
const recordSchema = `{
	"type": "object",
	"properties": {
		"documento": {"type": "integer", "minimum": 1},
		"archivo": {"type": "string"},
		"tema_general": {"type": "string"},
		"subtema": {"type": ["string", "null"]},
		"tema_especifico": {"type": ["string", "null"]},
		"confianza": {"type": ["string", "null"]},
		"palabras_clave": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["tema_general"]
}`

// Codec turns batches into prompts and model responses into validated
// records.
type Codec struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewCodec(logger *slog.Logger) (*Codec, error) {
	if logger == nil {
		logger = slog.Default()
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", strings.NewReader(recordSchema)); err != nil {
		return nil, fmt.Errorf("add record schema: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &Codec{schema: schema, logger: logger}, nil
}

func (c *Codec) EncodePrompt(items []domain.BatchItem) string {
	return BuildBatchPrompt(items)
}

type wireRecord struct {
	Documento      int      `json:"documento"`
	Archivo        string   `json:"archivo"`
	TemaGeneral    string   `json:"tema_general"`
	Subtema        string   `json:"subtema"`
	TemaEspecifico string   `json:"tema_especifico"`
	Confianza      string   `json:"confianza"`
	PalabrasClave  []string `json:"palabras_clave"`
}

// Decode strips optional code-fence wrapping, parses the array, and validates
// each element. A response that is not a JSON array fails as a whole with a
// MalformedResponseError retaining the raw text. A single schema-invalid
// element degrades to an unclassifiable record instead of voiding the batch.
func (c *Codec) Decode(raw string) ([]domain.Record, error) {
	stripped := StripCodeFence(raw)
	if stripped == "" {
		return nil, &domain.MalformedResponseError{Raw: raw, Err: fmt.Errorf("empty response")}
	}
	// json.Unmarshal accepts null into a slice without error; it is valid
	// JSON but not an array.
	if stripped == "null" {
		return nil, &domain.MalformedResponseError{Raw: raw, Err: fmt.Errorf("response is JSON null, not an array")}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(stripped), &elements); err != nil {
		return nil, &domain.MalformedResponseError{Raw: raw, Err: fmt.Errorf("response is not a JSON array: %w", err)}
	}

	records := make([]domain.Record, 0, len(elements))
	for i, element := range elements {
		records = append(records, c.decodeElement(i, element))
	}
	return records, nil
}

func (c *Codec) decodeElement(index int, element json.RawMessage) domain.Record {
	var generic any
	if err := json.Unmarshal(element, &generic); err != nil {
		c.logger.Warn("record_element_unreadable", "index", index, "error", err)
		return domain.Record{Documento: index + 1}
	}
	if err := c.schema.Validate(generic); err != nil {
		c.logger.Warn("record_schema_violation", "index", index, "error", err)
		return domain.Record{Documento: index + 1}
	}

	var wire wireRecord
	if err := json.Unmarshal(element, &wire); err != nil {
		c.logger.Warn("record_element_unreadable", "index", index, "error", err)
		return domain.Record{Documento: index + 1}
	}

	record := domain.Record{
		Documento:      wire.Documento,
		Archivo:        strings.TrimSpace(wire.Archivo),
		TemaGeneral:    strings.TrimSpace(wire.TemaGeneral),
		Subtema:        strings.TrimSpace(wire.Subtema),
		TemaEspecifico: strings.TrimSpace(wire.TemaEspecifico),
		Confianza:      domain.NormalizeConfidence(wire.Confianza),
		PalabrasClave:  wire.PalabrasClave,
	}
	if record.Documento == 0 {
		record.Documento = index + 1
	}
	if record.PalabrasClave == nil {
		record.PalabrasClave = []string{}
	}
	return record
}

// StripCodeFence removes one leading fence line (with optional language tag)
// and one trailing fence. Unfenced input passes through unchanged.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	return strings.TrimSpace(s)
}
