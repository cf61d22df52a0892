package gemini

import (
	"fmt"
	"strings"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

// BuildBatchPrompt serializes one batch into a single classification request.
// The instruction pins the response contract: a JSON array, one element per
// document in input order, nothing outside the array.
func BuildBatchPrompt(items []domain.BatchItem) string {
	var docs strings.Builder
	for i, item := range items {
		docs.WriteString(fmt.Sprintf("--- DOCUMENTO %d (Archivo: %s) ---\n%s\n\n", i+1, item.Filename, item.Text))
	}

	return fmt.Sprintf(`Analiza los %d textos de documentos PDF que te proporciono a continuación.
Para cada uno, clasifícalo en una jerarquía temática de 3 niveles, considerando que son libros o documentos académicos/técnicos.

%s
Responde ÚNICAMENTE con un array JSON válido, uno por cada documento en el mismo orden.
La estructura debe ser exactamente esta:
[
    {
        "documento": 1,
        "archivo": "nombre_del_archivo.pdf",
        "tema_general": "Categoría principal (ej: Ciencias, Tecnología, Historia, etc.)",
        "subtema": "Subcategoría específica",
        "tema_especifico": "Tema muy específico del contenido",
        "confianza": "alta|media|baja",
        "palabras_clave": ["palabra1", "palabra2", "palabra3"]
    }
]

Asegúrate de que el JSON sea válido y sin texto adicional.`, len(items), docs.String())
}
