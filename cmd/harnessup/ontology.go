package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/harnessup"
	"gopkg.in/yaml.v3"
)

var OntologyGroup = Group("ontology", "Inspect the custom graph ontology used by the evaluation",
	Command(ontologyListE,
		"list",
		"List the entity and edge types",
	),
	Command(ontologyExportE,
		"export",
		"Export the ontology as YAML or JSON",
		Flags(func(flags *pflag.FlagSet) {
			flags.String("format", "yaml", "Output format: yaml or json")
			flags.StringP("output", "o", "", "Write to this file instead of stdout")
		}),
	),
)

// ontologyListE prints the entity and edge types
func ontologyListE(cmd *cobra.Command, args []string) error {
	ontology := harnessup.DefaultOntology()
	if err := ontology.Validate(); err != nil {
		return fmt.Errorf("invalid ontology: %w", err)
	}

	cmd.Println("Entity types:")
	for _, entity := range ontology.Entities {
		attrs := make([]string, 0, len(entity.Attributes))
		for _, attr := range entity.Attributes {
			attrs = append(attrs, attr.Name)
		}
		cmd.Printf("  %-12s %s\n", entity.Name, strings.Join(attrs, ", "))
	}

	cmd.Println()
	cmd.Println("Edge types:")
	for _, edge := range ontology.Edges {
		pairs := make([]string, 0, len(edge.Endpoints))
		for _, endpoint := range edge.Endpoints {
			pairs = append(pairs, endpoint.Source+" -> "+endpoint.Target)
		}
		cmd.Printf("  %-16s %s\n", edge.Name, strings.Join(pairs, ", "))
	}
	return nil
}

// ontologyExportE serializes the ontology
func ontologyExportE(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	ontology := harnessup.DefaultOntology()
	if err := ontology.Validate(); err != nil {
		return fmt.Errorf("invalid ontology: %w", err)
	}

	var data []byte
	var err error
	switch format {
	case "yaml", "yml":
		data, err = yaml.Marshal(ontology)
	case "json":
		data, err = json.MarshalIndent(ontology, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown format %q (expected yaml or json)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize ontology: %w", err)
	}

	if output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write ontology: %w", err)
	}
	cmd.Printf("Ontology written to %s\n", output)
	return nil
}
