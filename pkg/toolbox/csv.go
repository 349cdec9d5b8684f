package toolbox

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/concierge-labs/concierge/pkg/models"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

// maxCSVRows bounds how much of a spreadsheet is rendered into the
// analysis prompt.
const maxCSVRows = 200

// CSVAnalyzer answers questions about uploaded CSV files by rendering
// the table into a prompt for the model.
type CSVAnalyzer struct {
	Dir   string // directory uploaded spreadsheets live in
	Model models.Model
}

func (a *CSVAnalyzer) Spec() tooling.ToolSpec {
	return tooling.ToolSpec{
		Name:        "analyze_csv",
		Description: "Answer a question about an uploaded CSV file. Input is \"<filename>||<question>\".",
		Params: []tooling.Param{
			{Name: "input", Type: "string", Required: true, Description: "composite \"<filename>||<question>\""},
		},
	}
}

func (a *CSVAnalyzer) Invoke(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
	parts, err := tooling.ParseDelimited(tooling.StringArg(req.Arguments, "input"), 2, "")
	if err != nil {
		return tooling.ToolResponse{}, err
	}
	file, question := parts[0], parts[1]

	table, err := a.renderTable(file)
	if err != nil {
		return tooling.ToolResponse{}, err
	}
	prompt := fmt.Sprintf(
		"You are a data analyst. Answer the question using only the CSV data below.\n\nFile: %s\n%s\nQuestion: %s",
		file, table, question)
	answer, err := a.Model.Generate(ctx, prompt)
	if err != nil {
		return tooling.ToolResponse{}, fmt.Errorf("analyze csv: %w", err)
	}
	return tooling.ToolResponse{Content: answer, Metadata: map[string]string{"file": file}}, nil
}

func (a *CSVAnalyzer) renderTable(name string) (string, error) {
	// Base strips any path components a model might sneak into the name.
	path := filepath.Join(a.Dir, filepath.Base(name))
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open csv %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv %s: %w", name, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("csv %s is empty", name)
	}

	truncated := false
	if len(rows) > maxCSVRows+1 {
		rows = rows[:maxCSVRows+1]
		truncated = true
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, ", "))
		b.WriteByte('\n')
	}
	if truncated {
		fmt.Fprintf(&b, "(showing first %d rows)\n", maxCSVRows)
	}
	return b.String(), nil
}

var _ tooling.Tool = (*CSVAnalyzer)(nil)
